package game

import (
	"fmt"

	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/faction"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// Options configure a new game. They are plain data so a game can be rebuilt
// from its options and action log.
type Options struct {
	Factions       []faction.ID         `json:"factions"`
	Workers        int                  `json:"workers"`
	Coins          int                  `json:"coins"`
	Priests        int                  `json:"priests"`
	VictoryPoints  int                  `json:"victory_points"`
	MaxRounds      int                  `json:"max_rounds"`
	SetupDwellings int                  `json:"setup_dwellings"`
	Rotation       rules.RotationPolicy `json:"rotation"`
	Board          board.File           `json:"board"`
}

const (
	MinPlayers = 2
	MaxPlayers = 5
	// MaxPriests caps priests in hand plus priests sitting on cult spots.
	MaxPriests = 7
	// MaxBridges is how many bridges one player may build.
	MaxBridges = 2
)

// DefaultOptions returns a two-player game on the default board.
func DefaultOptions() Options {
	return Options{
		Factions:       []faction.ID{faction.Witches, faction.Nomads},
		Workers:        3,
		Coins:          15,
		Priests:        1,
		VictoryPoints:  20,
		MaxRounds:      6,
		SetupDwellings: 2,
		Rotation:       rules.RotateOnConversions,
		Board:          board.Default,
	}
}

// NumPlayers returns the seat count.
func (o Options) NumPlayers() int {
	return len(o.Factions)
}

// Validate checks the options can start a game.
func (o Options) Validate() error {
	n := o.NumPlayers()
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: %d players, need %d to %d", ErrInvalidOptions, n, MinPlayers, MaxPlayers)
	}
	seen := make(map[faction.ID]bool, n)
	for _, id := range o.Factions {
		if _, ok := faction.Lookup(id); !ok {
			return fmt.Errorf("%w: unknown faction %d", ErrInvalidOptions, int(id))
		}
		if seen[id] {
			return fmt.Errorf("%w: faction %s chosen twice", ErrInvalidOptions, id)
		}
		seen[id] = true
	}
	if o.Workers < 0 || o.Coins < 0 || o.Priests < 0 || o.VictoryPoints < 0 {
		return fmt.Errorf("%w: negative starting resources", ErrInvalidOptions)
	}
	if o.Priests > MaxPriests {
		return fmt.Errorf("%w: more than %d starting priests", ErrInvalidOptions, MaxPriests)
	}
	if o.MaxRounds < 1 {
		return fmt.Errorf("%w: max rounds must be positive", ErrInvalidOptions)
	}
	if o.SetupDwellings < 0 {
		return fmt.Errorf("%w: negative setup dwellings", ErrInvalidOptions)
	}
	return nil
}
