package game

import "errors"

var (
	// ErrInvalidAction is returned for an action that is not in the current legal set.
	ErrInvalidAction = errors.New("invalid action")
	// ErrPreconditionFailed is returned when an action no longer fits the state.
	// The state is left untouched.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrGameOver is returned when acting on a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrGameNotFound is returned by the manager for unknown game IDs.
	ErrGameNotFound = errors.New("game not found")
	// ErrNotYourTurn is returned by the manager when a seat acts out of turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrInvalidOptions is returned for unusable game options.
	ErrInvalidOptions = errors.New("invalid game options")
)
