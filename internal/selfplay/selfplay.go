// Package selfplay runs batches of engine-only games with scripted policies and
// keeps per-faction standings.
package selfplay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// SeriesState is the lifecycle of a series.
type SeriesState int

const (
	SeriesStateWaiting SeriesState = iota
	SeriesStateRunning
	SeriesStateFinished
	SeriesStateCancelled
)

func (s SeriesState) String() string {
	switch s {
	case SeriesStateWaiting:
		return "WAITING"
	case SeriesStateRunning:
		return "RUNNING"
	case SeriesStateFinished:
		return "FINISHED"
	case SeriesStateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ErrTooLong is returned when a game does not finish within MaxSteps.
var ErrTooLong = errors.New("game did not finish")

// Policy picks one of the legal actions. legal is never empty.
type Policy func(legal []game.Action) game.Action

// Random picks uniformly with rng.
func Random(rng *rand.Rand) Policy {
	return func(legal []game.Action) game.Action {
		return legal[rng.IntN(len(legal))]
	}
}

// First always picks the first legal action.
func First(legal []game.Action) game.Action {
	return legal[0]
}

// Config describes a series.
type Config struct {
	Games   int
	Workers int
	Seed    uint64
	// ActionsPerRound is how many action-phase moves are played before the
	// runner closes the round.
	ActionsPerRound int
	// MaxSteps bounds a single game.
	MaxSteps int
	Options  game.Options
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.ActionsPerRound <= 0 {
		c.ActionsPerRound = 4 * c.Options.NumPlayers()
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 10000
	}
	return c
}

// Result is the outcome of one game.
type Result struct {
	Index    int
	Seed     uint64
	Returns  []float64
	Winners  []int
	Steps    int
	Checksum string
}

// Standing aggregates results for one faction.
type Standing struct {
	Faction string
	Games   int
	Wins    int
	Draws   int
	TotalVP float64
}

// AverageVP returns the mean final victory points.
func (s Standing) AverageVP() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.TotalVP / float64(s.Games)
}

// PlayGame plays one game to the end, choosing every action with policy.
func PlayGame(opts game.Options, policy Policy, actionsPerRound, maxSteps int, logger *zap.Logger) (Result, error) {
	s, err := game.NewState(opts, logger)
	if err != nil {
		return Result{}, err
	}

	var res Result
	inRound := 0
	for !s.IsTerminal() {
		if res.Steps >= maxSteps {
			return res, fmt.Errorf("%w after %d steps", ErrTooLong, res.Steps)
		}
		_, offered := s.Offer()
		if s.Phase() == rules.PhaseActions && inRound >= actionsPerRound && !offered && s.Spades().Count == 0 {
			if err := s.EndRound(); err != nil {
				return res, err
			}
			inRound = 0
			continue
		}

		legal := s.LegalActions()
		if len(legal) == 0 {
			return res, fmt.Errorf("no legal actions in round %d", s.Round())
		}
		if s.Phase() == rules.PhaseActions {
			inRound++
		}
		if err := s.ApplyAction(policy(legal)); err != nil {
			return res, err
		}
		res.Steps++
	}

	res.Returns = s.Returns()
	res.Winners = winners(res.Returns)
	res.Checksum = s.Checksum()
	return res, nil
}

func winners(returns []float64) []int {
	var best []int
	for i, r := range returns {
		switch {
		case len(best) == 0 || r > returns[best[0]]:
			best = []int{i}
		case r == returns[best[0]]:
			best = append(best, i)
		}
	}
	return best
}

// Series is a batch of games played with random policies.
type Series struct {
	ID        string
	Config    Config
	State     SeriesState
	Results   []Result
	Failures  int
	StartTime *time.Time
	EndTime   *time.Time
	mu        sync.RWMutex
}

// NewSeries creates a waiting series.
func NewSeries(cfg Config) *Series {
	return &Series{
		ID:     uuid.New().String(),
		Config: cfg.withDefaults(),
		State:  SeriesStateWaiting,
	}
}

// Run plays every game of the series on Config.Workers goroutines. Game i is
// seeded from Seed and i, so results do not depend on scheduling.
func (s *Series) Run(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	s.mu.Lock()
	if s.State != SeriesStateWaiting {
		s.mu.Unlock()
		return fmt.Errorf("series already started")
	}
	s.State = SeriesStateRunning
	now := time.Now()
	s.StartTime = &now
	cfg := s.Config
	s.mu.Unlock()

	logger.Info("self-play series started",
		zap.String("series_id", s.ID),
		zap.Int("games", cfg.Games),
		zap.Int("workers", cfg.Workers),
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s.play(cfg, i, logger)
			}
		}()
	}

	cancelled := false
feed:
	for i := 0; i < cfg.Games; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = true
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	end := time.Now()
	s.EndTime = &end
	sort.Slice(s.Results, func(a, b int) bool { return s.Results[a].Index < s.Results[b].Index })
	if cancelled {
		s.State = SeriesStateCancelled
		return ctx.Err()
	}
	s.State = SeriesStateFinished
	logger.Info("self-play series finished",
		zap.String("series_id", s.ID),
		zap.Int("played", len(s.Results)),
		zap.Int("failed", s.Failures),
		zap.Duration("elapsed", end.Sub(*s.StartTime)),
	)
	return nil
}

func (s *Series) play(cfg Config, index int, logger *zap.Logger) {
	seed := cfg.Seed
	rng := rand.New(rand.NewPCG(seed, uint64(index)))
	res, err := PlayGame(cfg.Options, Random(rng), cfg.ActionsPerRound, cfg.MaxSteps, nil)
	res.Index = index
	res.Seed = seed

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Failures++
		logger.Warn("self-play game failed",
			zap.String("series_id", s.ID),
			zap.Int("game", index),
			zap.Error(err),
		)
		return
	}
	s.Results = append(s.Results, res)
	logger.Debug("self-play game finished",
		zap.String("series_id", s.ID),
		zap.Int("game", index),
		zap.Int("steps", res.Steps),
		zap.Ints("winners", res.Winners),
	)
}

// GetState returns the series state.
func (s *Series) GetState() SeriesState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// Standings aggregates results per faction, best win count first.
func (s *Series) Standings() []Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byFaction := make(map[string]*Standing)
	order := make([]string, 0, len(s.Config.Options.Factions))
	for _, id := range s.Config.Options.Factions {
		name := id.String()
		byFaction[name] = &Standing{Faction: name}
		order = append(order, name)
	}

	for _, r := range s.Results {
		for seat, vp := range r.Returns {
			st := byFaction[order[seat]]
			st.Games++
			st.TotalVP += vp
		}
		for _, seat := range r.Winners {
			st := byFaction[order[seat]]
			if len(r.Winners) == 1 {
				st.Wins++
			} else {
				st.Draws++
			}
		}
	}

	out := make([]Standing, 0, len(order))
	for _, name := range order {
		out = append(out, *byFaction[name])
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Wins > out[b].Wins })
	return out
}
