package server

import (
	"errors"
	"net/http"

	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// Websocket message types.
const (
	TypeAction   = "action"
	TypeEndRound = "end_round"
	TypeGiveKey  = "give_key"
	TypeView     = "view"
	TypeEvent    = "event"
	TypeError    = "error"
)

// Message is the websocket envelope in both directions. Clients send action,
// end_round, give_key or view; the server sends view, event or error.
type Message struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id,omitempty"`
	Action *game.Action   `json:"action,omitempty"`
	Player *int           `json:"player,omitempty"`
	Cult   *cult.Type     `json:"cult,omitempty"`
	View   *game.GameView `json:"view,omitempty"`
	Event  *EventPayload  `json:"event,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// EventPayload is the wire form of an engine event.
type EventPayload struct {
	Type   rules.EventType `json:"type"`
	Player int             `json:"player"`
	Hex    int             `json:"hex"`
	Amount int             `json:"amount"`
	Data   string          `json:"data,omitempty"`
	Round  int             `json:"round"`
}

func eventPayload(e rules.Event) *EventPayload {
	return &EventPayload{
		Type:   e.Type,
		Player: e.Player,
		Hex:    e.Hex,
		Amount: e.Amount,
		Data:   e.Data,
		Round:  e.Round,
	}
}

// CreateRequest is the body of POST /games. Empty fields take the configured
// defaults.
type CreateRequest struct {
	Factions       []string `json:"factions,omitempty"`
	MaxRounds      int      `json:"max_rounds,omitempty"`
	SetupDwellings *int     `json:"setup_dwellings,omitempty"`
	Rotation       string   `json:"rotation,omitempty"`
	Board          []string `json:"board,omitempty"`
}

// CreateResponse is returned by POST /games.
type CreateResponse struct {
	ID   string        `json:"id"`
	View game.GameView `json:"view"`
}

// ActionRequest is the body of POST /games/{id}/actions.
type ActionRequest struct {
	Player int         `json:"player"`
	Action game.Action `json:"action"`
}

// KeyRequest is the body of POST /games/{id}/keys.
type KeyRequest struct {
	Player int       `json:"player"`
	Cult   cult.Type `json:"cult"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidAction), errors.Is(err, game.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
