package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

func TestChecksum_CoversEveryPart(t *testing.T) {
	base := func() *State {
		s := newTestState(t, testOptions(riverBoard...))
		place(s, 0, building.Dwelling, 0)
		return s
	}
	ref := base().Checksum()

	mutations := map[string]func(s *State){
		"resources":  func(s *State) { s.players[0].Workers++ },
		"bowls":      func(s *State) { s.players[1].Power = power.NewBowls(4, 8, 0) },
		"terrain":    func(s *State) { s.board.SetTerrain(4, terraform.Plains) },
		"building":   func(s *State) { place(s, 0, building.TradingPost, 0) },
		"cult level": func(s *State) { s.cults.Advance(1, cult.Fire, 1) },
		"cult key":   func(s *State) { s.cults.GiveKey(1, cult.Fire) },
		"priest":     func(s *State) { s.cults.PlacePriest(0, cult.Water, false) },
		"flag":       func(s *State) { s.usedPowerActions[PowerCoins] = true },
		"bridge":     func(s *State) { s.addBridge(0, 0, 2) },
		"offer":      func(s *State) { s.offer = &PendingOffer{Hex: 0, Owner: 0, Candidate: 1} },
		"spades":     func(s *State) { s.spades = PendingSpades{Count: 1, CanBuild: true} },
		"turn":       func(s *State) { s.turns.AdvanceTurn() },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := base()
			mutate(s)
			assert.NotEqual(t, ref, s.Checksum())
		})
	}
}

func TestChecksum_IgnoresUnusedFlags(t *testing.T) {
	a := newTestState(t, testOptions("FD"))
	b := newTestState(t, testOptions("FD"))
	b.usedPowerActions[PowerSpade] = false

	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestCanonical_Readable(t *testing.T) {
	s := newTestState(t, testOptions("FD"))
	text := string(s.canonical())

	assert.True(t, strings.HasPrefix(text, "TURN:ACTIONS|1|6|1|0\n"))
	assert.Contains(t, text, "PLAYER:0|Witches|3|15|1|5/7/0|0|0|20\n")
	assert.Contains(t, text, "HEX:1|DESERT|NONE|-1|[0]\n")
	assert.Contains(t, text, "OFFER:-\n")
}
