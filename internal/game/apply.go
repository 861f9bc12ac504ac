package game

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/rules"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}

// ApplyAction validates a against the current legal set and applies it. Actions
// outside the legal set fail with ErrInvalidAction. Every handler checks its
// preconditions before mutating, so a failed call leaves the state unchanged.
func (s *State) ApplyAction(a Action) error {
	if s.IsTerminal() {
		return ErrGameOver
	}
	player := s.CurrentPlayer()
	if !slices.Contains(s.LegalActions(), a) {
		s.logger.Warn("rejected action",
			zap.Int("player", player),
			zap.String("action", a.String()),
		)
		s.publishRejected(player, a)
		return fmt.Errorf("%w: %s", ErrInvalidAction, a)
	}

	if err := s.apply(player, a); err != nil {
		s.logger.Warn("action failed",
			zap.Int("player", player),
			zap.String("action", a.String()),
			zap.Error(err),
		)
		s.publishRejected(player, a)
		return err
	}

	s.logger.Debug("applied action",
		zap.Int("player", player),
		zap.String("action", a.String()),
		zap.Int("round", s.turns.Round()),
	)
	evt := rules.NewEvent(rules.EventActionApplied, player, a.Hex)
	evt.Data = a.String()
	s.publish(evt)
	return nil
}

func (s *State) publishRejected(player int, a Action) {
	evt := rules.NewEvent(rules.EventActionRejected, player, a.Hex)
	evt.Data = a.String()
	s.publish(evt)
}

// apply dispatches a to its handler without consulting the legal set.
func (s *State) apply(p int, a Action) error {
	if s.offer != nil {
		switch a.Kind {
		case ActionAcceptPower:
			return s.resolveOffer(true)
		case ActionDeclinePower:
			return s.resolveOffer(false)
		default:
			return preconditionf("power offer pending for player %d", s.offer.Candidate)
		}
	}

	switch a.Kind {
	case ActionPowerToPriest, ActionPowerToWorker, ActionPowerToCoin, ActionPriestToWorker, ActionWorkerToCoin:
		return s.applyConversion(p, a.Kind)
	case ActionBurnPower:
		return s.applyBurn(p, a.Amount)
	case ActionPower:
		return s.applyPowerAction(p, a)
	case ActionTransform:
		return s.applyTransform(p, a.Hex, a.Terrain, false)
	case ActionTransformBuild:
		return s.applyTransform(p, a.Hex, a.Terrain, true)
	case ActionBuild:
		return s.applyBuild(p, a.Hex)
	case ActionUpgrade:
		return s.applyUpgrade(p, a.Hex, a.Building)
	case ActionSendPriest:
		return s.applySendPriest(p, a.Cult, a.Sacrifice)
	case ActionAdvanceShipping:
		return s.applyShipping(p)
	case ActionAdvanceExchange:
		return s.applyExchange(p)
	case ActionSpade:
		return s.applySpade(p, a.Hex, a.Terrain, a.Build)
	case ActionEndTurn:
		return s.applyEndTurn(p)
	case ActionAcceptPower, ActionDeclinePower:
		return preconditionf("no power offer pending")
	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, a.Kind)
	}
}

func (s *State) requireActionPhase() error {
	if s.turns.Phase() != rules.PhaseActions {
		return preconditionf("not allowed during %s", s.turns.Phase())
	}
	if s.spades.Count > 0 {
		return preconditionf("%d spades pending", s.spades.Count)
	}
	return nil
}

func (s *State) applyConversion(p int, kind ActionKind) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	r := &s.players[p]
	switch kind {
	case ActionPowerToPriest:
		if s.priestsInPlay(p) >= MaxPriests {
			return preconditionf("priest limit reached")
		}
		if !r.Power.Spend(power.PriestCost) {
			return preconditionf("need %d power", power.PriestCost)
		}
		r.Priests++
	case ActionPowerToWorker:
		if !r.Power.Spend(power.WorkerCost) {
			return preconditionf("need %d power", power.WorkerCost)
		}
		r.Workers++
	case ActionPowerToCoin:
		if !r.Power.Spend(power.CoinCost) {
			return preconditionf("need %d power", power.CoinCost)
		}
		r.Coins++
	case ActionPriestToWorker:
		if r.Priests < 1 {
			return preconditionf("no priest to convert")
		}
		r.Priests--
		r.Workers++
	case ActionWorkerToCoin:
		if r.Workers < 1 {
			return preconditionf("no worker to convert")
		}
		r.Workers--
		r.Coins++
	}
	s.endTurn()
	return nil
}

func (s *State) applyBurn(p, amount int) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	if amount <= 0 || !s.players[p].Power.Burn(amount) {
		return preconditionf("cannot burn %d power", amount)
	}
	s.endTurn()
	return nil
}

func (s *State) applyPowerAction(p int, a Action) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	pa := a.Power
	if _, ok := powerActionCosts[pa]; !ok {
		return preconditionf("unknown power action %d", int(pa))
	}
	if !s.powerActionAvailable(p, pa) {
		return preconditionf("power action %s unavailable", pa)
	}
	if pa == PowerBridge && !s.CanBuildBridge(p, a.Hex, a.Hex2) {
		return preconditionf("cannot bridge %d and %d", a.Hex, a.Hex2)
	}

	r := &s.players[p]
	r.Power.Spend(pa.Cost())
	s.usedPowerActions[pa] = true

	switch pa {
	case PowerBridge:
		s.addBridge(p, a.Hex, a.Hex2)
	case PowerPriest:
		r.Priests++
	case PowerWorkers:
		r.Workers += powerWorkersGain
	case PowerCoins:
		r.Coins += powerCoinsGain
	case PowerSpade, PowerDoubleSpade:
		s.spades = PendingSpades{Count: pa.Spades(), CanBuild: true}
		s.logger.Debug("spades pending", zap.Int("player", p), zap.Int("count", s.spades.Count))
		s.publish(rules.NewEventWithAmount(rules.EventSpadesPending, p, rules.NoHex, s.spades.Count))
		return nil
	}
	s.endTurn()
	return nil
}

func (s *State) applyTransform(p, hex int, t terraform.Terrain, build bool) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	if !s.transformable(p, hex) {
		return preconditionf("hex %d cannot be transformed", hex)
	}
	cost, ok := s.transformBill(p, hex, t)
	if !ok {
		return preconditionf("cannot turn hex %d into %s", hex, t)
	}
	if build {
		if err := s.checkDwelling(p, t); err != nil {
			return err
		}
		cost = cost.plus(buildingBill(s.factions[p].BuildingCost(building.Dwelling)))
	}
	if !s.players[p].covers(cost) {
		return preconditionf("cannot afford transform")
	}

	s.players[p].pay(cost)
	s.board.SetTerrain(hex, t)
	if build {
		s.placeBuilding(p, hex, building.Dwelling)
	}
	s.afterMainAction()
	return nil
}

func (s *State) checkDwelling(p int, t terraform.Terrain) error {
	if t != s.factions[p].Home {
		return preconditionf("dwellings need %s", s.factions[p].Home)
	}
	if !s.canPlaceDwelling(p) {
		return preconditionf("no dwellings left")
	}
	return nil
}

func (s *State) applyBuild(p, hex int) error {
	if s.turns.Phase() == rules.PhaseSetup {
		return s.applySetupBuild(p, hex)
	}
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	if !s.transformable(p, hex) {
		return preconditionf("hex %d is not buildable", hex)
	}
	if err := s.checkDwelling(p, s.board.Terrain(hex)); err != nil {
		return err
	}
	cost := buildingBill(s.factions[p].BuildingCost(building.Dwelling))
	if !s.players[p].covers(cost) {
		return preconditionf("cannot afford dwelling")
	}

	s.players[p].pay(cost)
	s.placeBuilding(p, hex, building.Dwelling)
	s.afterMainAction()
	return nil
}

func (s *State) applySetupBuild(p, hex int) error {
	if hex < 0 || hex >= s.board.NumHexes() || s.board.Building(hex) != building.None {
		return preconditionf("hex %d is not free", hex)
	}
	if s.board.Terrain(hex) != s.factions[p].Home {
		return preconditionf("dwellings need %s", s.factions[p].Home)
	}
	s.board.SetBuilding(hex, building.Dwelling, p)
	s.endTurn()
	return nil
}

func (s *State) applyUpgrade(p, hex int, to building.Type) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	cost, ok := s.upgradeBill(p, hex, to)
	if !ok {
		return preconditionf("cannot upgrade hex %d to %s", hex, to)
	}
	if !s.players[p].covers(cost) {
		return preconditionf("cannot afford %s", to)
	}

	s.players[p].pay(cost)
	s.placeBuilding(p, hex, to)
	s.afterMainAction()
	return nil
}

func (s *State) applySendPriest(p int, c cult.Type, sacrifice bool) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	track := s.cults.Track(c)
	if track == nil {
		return preconditionf("unknown cult track %d", int(c))
	}
	if s.players[p].Priests < 1 {
		return preconditionf("no priest to send")
	}
	if track.Headroom(p) == 0 {
		return preconditionf("no room on %s", c)
	}
	if !sacrifice && len(track.AvailableSpots()) == 0 {
		return preconditionf("no free spot on %s", c)
	}

	r := &s.players[p]
	r.Priests--
	placement := track.PlacePriest(p, sacrifice)
	gained := r.Power.Gain(placement.Power)
	s.logger.Debug("priest sent",
		zap.Int("player", p),
		zap.String("cult", c.String()),
		zap.Int("spot", placement.Spot),
		zap.Int("levels", placement.Levels),
		zap.Int("power", gained),
	)
	s.afterMainAction()
	return nil
}

func (s *State) applyShipping(p int) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	track := s.factions[p].Shipping
	r := &s.players[p]
	if !track.CanAdvance(r.Shipping, r.holdings()) {
		return preconditionf("cannot advance shipping")
	}
	r.pay(trackBill(track.Cost))
	r.VictoryPoints += track.PointsFor(r.Shipping)
	r.Shipping++
	s.afterMainAction()
	return nil
}

func (s *State) applyExchange(p int) error {
	if err := s.requireActionPhase(); err != nil {
		return err
	}
	track := s.factions[p].Exchange
	r := &s.players[p]
	if !track.CanAdvance(r.Exchange, r.holdings()) {
		return preconditionf("cannot advance exchange")
	}
	r.pay(trackBill(track.Cost))
	r.VictoryPoints += track.PointsFor(r.Exchange)
	r.Exchange++
	s.afterMainAction()
	return nil
}

func (s *State) applySpade(p, hex int, t terraform.Terrain, build bool) error {
	if s.spades.Count == 0 {
		return preconditionf("no spades pending")
	}
	use, ok := s.planSpade(p, hex, t)
	if !ok {
		return preconditionf("cannot use spades on hex %d", hex)
	}
	cost := use.cost
	if build {
		if !s.spades.CanBuild {
			return preconditionf("this spade cannot build")
		}
		if err := s.checkDwelling(p, t); err != nil {
			return err
		}
		cost = cost.plus(buildingBill(s.factions[p].BuildingCost(building.Dwelling)))
	}
	if !s.players[p].covers(cost) {
		return preconditionf("cannot afford spade use")
	}

	s.players[p].pay(cost)
	s.board.SetTerrain(hex, t)
	s.spades.Count -= use.applied
	s.spades.CanBuild = false
	if build {
		s.placeBuilding(p, hex, building.Dwelling)
	}
	if s.spades.Count == 0 {
		s.spades = PendingSpades{}
		s.endTurn()
	}
	return nil
}

func (s *State) applyEndTurn(p int) error {
	if s.spades.Count > 0 {
		s.logger.Debug("spades forfeited", zap.Int("player", p), zap.Int("count", s.spades.Count))
		s.spades = PendingSpades{}
	}
	s.endTurn()
	return nil
}

// placeBuilding puts b on hex for p and starts the power cascade.
func (s *State) placeBuilding(p, hex int, b building.Type) {
	s.board.SetBuilding(hex, b, p)
	s.startCascade(hex, p)
}

// afterMainAction applies the rotation policy to actions that do not end the
// turn by themselves.
func (s *State) afterMainAction() {
	if s.opts.Rotation == rules.RotateOnEveryAction {
		s.endTurn()
	}
}

func (s *State) endTurn() {
	player := s.turns.CurrentPlayer()
	changed := s.turns.AdvanceTurn()
	s.logger.Debug("turn ended",
		zap.Int("player", player),
		zap.Int("next", s.turns.CurrentPlayer()),
	)
	s.publish(rules.NewEvent(rules.EventTurnEnded, player, rules.NoHex))
	if changed {
		s.publishPhase()
	}
}
