package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/faction"
)

// testOptions starts straight in the action phase on a small board.
// Seat 0 plays Witches (forest), seat 1 Nomads (desert) unless overridden.
func testOptions(rows ...string) Options {
	opts := DefaultOptions()
	opts.SetupDwellings = 0
	opts.Board = board.File{Name: "test", Rows: rows}
	return opts
}

func newTestState(t *testing.T, opts Options) *State {
	t.Helper()
	s, err := NewState(opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func threePlayers(rows ...string) Options {
	opts := testOptions(rows...)
	opts.Factions = []faction.ID{faction.Witches, faction.Nomads, faction.Giants}
	return opts
}

func place(s *State, hex int, b building.Type, owner int) {
	s.board.SetBuilding(hex, b, owner)
}

func mustApply(t *testing.T, s *State, a Action) {
	t.Helper()
	require.NoError(t, s.ApplyAction(a), "apply %s", a)
}
