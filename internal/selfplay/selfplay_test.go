package selfplay

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/terrabots/terra-server-go/internal/game"
)

func shortOptions() game.Options {
	opts := game.DefaultOptions()
	opts.MaxRounds = 2
	return opts
}

func TestPlayGame_Finishes(t *testing.T) {
	res, err := PlayGame(shortOptions(), First, 4, 1000, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Len(t, res.Returns, 2)
	assert.NotEmpty(t, res.Winners)
	assert.Greater(t, res.Steps, 0)
	assert.NotEmpty(t, res.Checksum)
}

func TestPlayGame_Deterministic(t *testing.T) {
	play := func() Result {
		rng := rand.New(rand.NewPCG(7, 3))
		res, err := PlayGame(shortOptions(), Random(rng), 6, 1000, nil)
		require.NoError(t, err)
		return res
	}
	a, b := play(), play()
	assert.Equal(t, a.Checksum, b.Checksum)
	assert.Equal(t, a.Steps, b.Steps)
}

func TestPlayGame_StepLimit(t *testing.T) {
	_, err := PlayGame(shortOptions(), First, 4, 3, nil)
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestPlayGame_BadOptions(t *testing.T) {
	opts := shortOptions()
	opts.Factions = nil
	_, err := PlayGame(opts, First, 4, 100, nil)
	assert.ErrorIs(t, err, game.ErrInvalidOptions)
}

func TestWinners(t *testing.T) {
	assert.Equal(t, []int{1}, winners([]float64{3, 5, 4}))
	assert.Equal(t, []int{0, 2}, winners([]float64{5, 1, 5}))
}

func TestSeries_Run(t *testing.T) {
	s := NewSeries(Config{Games: 6, Workers: 3, Seed: 42, Options: shortOptions()})
	assert.Equal(t, SeriesStateWaiting, s.GetState())

	require.NoError(t, s.Run(context.Background(), zaptest.NewLogger(t)))
	assert.Equal(t, SeriesStateFinished, s.GetState())
	require.Len(t, s.Results, 6)
	for i, r := range s.Results {
		assert.Equal(t, i, r.Index)
	}

	standings := s.Standings()
	require.Len(t, standings, 2)
	games, decided := 0, 0
	for _, st := range standings {
		games += st.Games
		decided += st.Wins
		assert.Equal(t, 6, st.Games)
		assert.Greater(t, st.AverageVP(), 0.0)
	}
	assert.Equal(t, 12, games)
	assert.LessOrEqual(t, decided, 6)

	assert.Error(t, s.Run(context.Background(), nil), "a series runs once")
}

func TestSeries_SameSeedSameResults(t *testing.T) {
	run := func(workers int) []Result {
		s := NewSeries(Config{Games: 4, Workers: workers, Seed: 9, Options: shortOptions()})
		require.NoError(t, s.Run(context.Background(), nil))
		return s.Results
	}
	one, many := run(1), run(4)
	require.Len(t, many, len(one))
	for i := range one {
		assert.Equal(t, one[i].Checksum, many[i].Checksum)
	}
}

func TestSeries_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSeries(Config{Games: 100, Workers: 2, Options: shortOptions()})
	err := s.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SeriesStateCancelled, s.GetState())
	assert.Less(t, len(s.Results), 100)
}
