package rules

import "fmt"

// Phase represents the broad phases of a game.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseActions
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseSetup:    "SETUP",
	PhaseActions:  "ACTIONS",
	PhaseFinished: "FINISHED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// RotationPolicy decides which applied actions hand the turn to the next player.
type RotationPolicy int

const (
	// RotateOnConversions rotates after conversions, burns, non-spade power
	// actions and completed spade sequences. Other actions keep the turn until
	// the player ends it.
	RotateOnConversions RotationPolicy = iota
	// RotateOnEveryAction rotates after every completed action.
	RotateOnEveryAction
)

var rotationNames = map[RotationPolicy]string{
	RotateOnConversions: "conversions",
	RotateOnEveryAction: "every-action",
}

func (r RotationPolicy) String() string {
	if name, ok := rotationNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROTATION_%d", int(r))
}

// ParseRotationPolicy maps a config string to a policy.
func ParseRotationPolicy(s string) (RotationPolicy, error) {
	for r, name := range rotationNames {
		if name == s {
			return r, nil
		}
	}
	return RotateOnConversions, fmt.Errorf("unknown rotation policy %q", s)
}

// SetupOrder returns the snake order for placing starting dwellings: forward on
// even passes, backward on odd passes.
func SetupOrder(numPlayers, dwellings int) []int {
	order := make([]int, 0, numPlayers*max(dwellings, 0))
	for pass := 0; pass < dwellings; pass++ {
		for i := 0; i < numPlayers; i++ {
			if pass%2 == 0 {
				order = append(order, i)
			} else {
				order = append(order, numPlayers-1-i)
			}
		}
	}
	return order
}

// TurnManager tracks the current player, round and phase.
type TurnManager struct {
	numPlayers    int
	maxRounds     int
	round         int
	turnNumber    int
	phase         Phase
	currentPlayer int
	setupOrder    []int
	setupIndex    int
}

// NewTurnManager creates a turn manager at round 1. When setupDwellings is zero
// the game starts directly in the action phase.
func NewTurnManager(numPlayers, maxRounds, setupDwellings int) *TurnManager {
	tm := &TurnManager{
		numPlayers: numPlayers,
		maxRounds:  maxRounds,
		round:      1,
		turnNumber: 1,
		setupOrder: SetupOrder(numPlayers, setupDwellings),
	}
	if len(tm.setupOrder) > 0 {
		tm.phase = PhaseSetup
		tm.currentPlayer = tm.setupOrder[0]
	} else {
		tm.phase = PhaseActions
	}
	return tm
}

// Phase returns the phase currently in progress.
func (tm *TurnManager) Phase() Phase {
	return tm.phase
}

// Round returns the current round (1-based).
func (tm *TurnManager) Round() int {
	return tm.round
}

// MaxRounds returns the number of rounds in the game.
func (tm *TurnManager) MaxRounds() int {
	return tm.maxRounds
}

// TurnNumber counts turns handed on since the game started (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// CurrentPlayer returns the player who has the turn.
func (tm *TurnManager) CurrentPlayer() int {
	return tm.currentPlayer
}

// NumPlayers returns the number of seats.
func (tm *TurnManager) NumPlayers() int {
	return tm.numPlayers
}

// Finished reports whether the last round is over.
func (tm *TurnManager) Finished() bool {
	return tm.phase == PhaseFinished
}

// AdvanceTurn hands the turn to the next player. During setup it follows the
// snake order and moves to the action phase once every dwelling is placed.
// It reports whether the phase changed.
func (tm *TurnManager) AdvanceTurn() (changed bool) {
	if tm.phase == PhaseFinished {
		return false
	}
	tm.turnNumber++

	if tm.phase == PhaseSetup {
		tm.setupIndex++
		if tm.setupIndex < len(tm.setupOrder) {
			tm.currentPlayer = tm.setupOrder[tm.setupIndex]
			return false
		}
		tm.phase = PhaseActions
		tm.currentPlayer = tm.startPlayer()
		return true
	}

	tm.currentPlayer = (tm.currentPlayer + 1) % tm.numPlayers
	return false
}

// EndRound closes the current round. The start player moves one seat each round.
// After the last round the game is finished. It reports whether the phase changed.
func (tm *TurnManager) EndRound() (changed bool) {
	if tm.phase != PhaseActions {
		return false
	}
	if tm.round >= tm.maxRounds {
		tm.phase = PhaseFinished
		return true
	}
	tm.round++
	tm.currentPlayer = tm.startPlayer()
	return false
}

func (tm *TurnManager) startPlayer() int {
	return (tm.round - 1) % tm.numPlayers
}

// Clone returns an independent copy.
func (tm *TurnManager) Clone() *TurnManager {
	c := *tm
	c.setupOrder = make([]int, len(tm.setupOrder))
	copy(c.setupOrder, tm.setupOrder)
	return &c
}
