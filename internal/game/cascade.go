package game

import (
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// powerValue sums the power values of player's buildings next to hex.
func (s *State) powerValue(hex, player int) int {
	total := 0
	for _, n := range s.board.AdjacentHexes(hex) {
		if s.ownsBuilding(n, player) {
			total += s.board.Building(n).PowerValue()
		}
	}
	return total
}

// gainOption prices the power player could take from a building placed on hex.
func (s *State) gainOption(hex, player int) power.GainOption {
	r := s.players[player]
	return power.CalculateGainOption(r.Power, s.powerValue(hex, player), r.VictoryPoints)
}

// nextCandidate scans players in turn order after `after` and stops before
// reaching owner. It returns the first player with a usable gain option.
func (s *State) nextCandidate(hex, owner, after int) (int, bool) {
	n := len(s.players)
	for p := (after + 1) % n; p != owner; p = (p + 1) % n {
		opt := s.gainOption(hex, p)
		if opt.Amount > 0 && opt.Affordable {
			return p, true
		}
	}
	return 0, false
}

// startCascade offers power to the neighbours of a building owner just placed
// or upgraded on hex.
func (s *State) startCascade(hex, owner int) {
	s.setOffer(hex, owner, owner)
}

// advanceOffer moves the pending offer to the next candidate, or clears it.
func (s *State) advanceOffer() {
	if s.offer == nil {
		return
	}
	s.setOffer(s.offer.Hex, s.offer.Owner, s.offer.Candidate)
}

func (s *State) setOffer(hex, owner, after int) {
	candidate, ok := s.nextCandidate(hex, owner, after)
	if !ok {
		if s.offer != nil {
			s.logger.Debug("power cascade finished", zap.Int("hex", hex), zap.Int("owner", owner))
		}
		s.offer = nil
		return
	}
	s.offer = &PendingOffer{Hex: hex, Owner: owner, Candidate: candidate}

	opt := s.gainOption(hex, candidate)
	s.logger.Debug("power offered",
		zap.Int("hex", hex),
		zap.Int("owner", owner),
		zap.Int("candidate", candidate),
		zap.Int("amount", opt.Amount),
		zap.Int("vp_cost", opt.VPCost),
	)
	s.publish(rules.NewEventWithAmount(rules.EventPowerOffered, candidate, hex, opt.Amount))
}

// resolveOffer applies the candidate's choice and moves the cascade on.
func (s *State) resolveOffer(accept bool) error {
	if s.offer == nil {
		return preconditionf("no power offer pending")
	}
	o := *s.offer

	if !accept {
		s.publish(rules.NewEvent(rules.EventPowerDeclined, o.Candidate, o.Hex))
		s.advanceOffer()
		return nil
	}

	opt := s.gainOption(o.Hex, o.Candidate)
	if opt.Amount <= 0 || !opt.Affordable || s.players[o.Candidate].VictoryPoints < opt.VPCost {
		return preconditionf("power offer for player %d is no longer affordable", o.Candidate)
	}
	r := &s.players[o.Candidate]
	r.VictoryPoints -= opt.VPCost
	gained := r.Power.Gain(opt.Amount)

	s.publish(rules.NewEventWithAmount(rules.EventPowerAccepted, o.Candidate, o.Hex, gained))
	s.advanceOffer()
	return nil
}
