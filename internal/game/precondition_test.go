package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

// A handler whose resource check fails must leave every part of the state as it
// was: resources, board, tracks and flags.
func TestFailedPreconditionLeavesStateUntouched(t *testing.T) {
	actions := []Action{
		Transform(1, terraform.Swamp),
		Transform(1, terraform.Forest),
		TransformBuild(1, terraform.Forest),
		Build(1),
		Upgrade(0, building.TradingPost),
		SendPriest(cult.Fire, false),
		SendPriest(cult.Water, true),
		Convert(ActionPowerToPriest),
		Convert(ActionPowerToWorker),
		Convert(ActionPowerToCoin),
		Convert(ActionPriestToWorker),
		Convert(ActionWorkerToCoin),
		Burn(4),
		Burn(0),
		TakePower(PowerCoins),
		TakePower(PowerDoubleSpade),
		TakeBridge(0, 2),
		AdvanceShipping(),
		AdvanceExchange(),
		UseSpade(1, terraform.Swamp, false),
		AcceptPower(),
		DeclinePower(),
	}

	for _, a := range actions {
		t.Run(a.String(), func(t *testing.T) {
			s := newTestState(t, testOptions("FPD"))
			place(s, 0, building.Dwelling, 0)
			place(s, 2, building.Dwelling, 1)
			s.players[0] = PlayerResources{
				Workers:       0,
				Coins:         2,
				Priests:       0,
				Power:         power.NewBowls(5, 7, 0),
				VictoryPoints: 20,
			}
			before := s.Checksum()
			p0, p1 := s.Player(0), s.Player(1)

			err := s.apply(0, a)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPreconditionFailed)
			assert.Equal(t, before, s.Checksum())
			assert.Equal(t, p0, s.Player(0))
			assert.Equal(t, p1, s.Player(1))

			// The public entry point refuses the same action up front.
			assert.ErrorIs(t, s.ApplyAction(a), ErrInvalidAction)
			assert.Equal(t, before, s.Checksum())
		})
	}
}

func TestLegalActions_AllApplicable(t *testing.T) {
	s := newTestState(t, testOptions(riverBoard...))
	place(s, 0, building.Dwelling, 0)
	place(s, 6, building.Dwelling, 0)
	place(s, 2, building.Dwelling, 1)
	s.players[0].Power = power.NewBowls(0, 4, 8)
	s.players[0].Workers = 6

	for _, a := range s.LegalActions() {
		c := s.Clone()
		assert.NoError(t, c.ApplyAction(a), "legal action %s failed", a)
	}
}
