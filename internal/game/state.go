package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/faction"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// PlayerResources is everything a player holds.
type PlayerResources struct {
	Workers       int         `json:"workers"`
	Coins         int         `json:"coins"`
	Priests       int         `json:"priests"`
	Power         power.Bowls `json:"power"`
	Shipping      int         `json:"shipping"`
	Exchange      int         `json:"exchange"`
	VictoryPoints int         `json:"victory_points"`
}

// Bridge joins two hexes across a river. A is always the lower hex.
type Bridge struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Owner int `json:"owner"`
}

// PendingOffer is a power gain waiting for Candidate to accept or decline.
type PendingOffer struct {
	Hex       int `json:"hex"`
	Owner     int `json:"owner"`
	Candidate int `json:"candidate"`
}

// PendingSpades are spades granted by a power action and not yet used.
type PendingSpades struct {
	Count    int  `json:"count"`
	CanBuild bool `json:"can_build"`
}

// State is the turn state machine for one game. It is not safe for concurrent
// use; Manager serializes access for hosted games.
type State struct {
	opts     Options
	board    board.Board
	factions []faction.Info
	players  []PlayerResources
	cults    *cult.Manager
	turns    *rules.TurnManager

	usedPowerActions map[PowerAction]bool
	bridges          []Bridge
	offer            *PendingOffer
	spades           PendingSpades

	logger *zap.Logger
	events *rules.EventBus
}

// NewState builds a game on the board described by opts.
func NewState(opts Options, logger *zap.Logger) (*State, error) {
	m, err := opts.Board.Map()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return NewStateWithBoard(opts, m, logger)
}

// NewStateWithBoard builds a game on a caller-supplied board. The state takes
// ownership of b.
func NewStateWithBoard(opts Options, b board.Board, logger *zap.Logger) (*State, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: no board", ErrInvalidOptions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	n := opts.NumPlayers()
	s := &State{
		opts:             opts,
		board:            b,
		factions:         make([]faction.Info, n),
		players:          make([]PlayerResources, n),
		cults:            cult.NewManager(n),
		turns:            rules.NewTurnManager(n, opts.MaxRounds, opts.SetupDwellings),
		usedPowerActions: make(map[PowerAction]bool),
		logger:           logger,
		events:           rules.NewEventBus(),
	}
	s.opts.Factions = append([]faction.ID(nil), opts.Factions...)

	for i, id := range opts.Factions {
		info, _ := faction.Lookup(id)
		s.factions[i] = info
		s.players[i] = PlayerResources{
			Workers:       opts.Workers,
			Coins:         opts.Coins,
			Priests:       opts.Priests,
			Power:         info.Bowls,
			Shipping:      info.Shipping.Start,
			Exchange:      info.Exchange.Start,
			VictoryPoints: opts.VictoryPoints,
		}
		s.cults.SetStartingLevels(i, info.StartingCult)
	}

	s.logger.Info("game state created",
		zap.Int("players", n),
		zap.Int("hexes", b.NumHexes()),
		zap.String("phase", s.turns.Phase().String()),
		zap.String("rotation", opts.Rotation.String()),
	)
	return s, nil
}

// Events returns the state's event bus. Clones get their own empty bus.
func (s *State) Events() *rules.EventBus {
	return s.events
}

// Options returns the options the game was created with.
func (s *State) Options() Options {
	o := s.opts
	o.Factions = append([]faction.ID(nil), s.opts.Factions...)
	return o
}

// NumPlayers returns the seat count.
func (s *State) NumPlayers() int {
	return len(s.players)
}

// Board exposes the board for read access.
func (s *State) Board() board.Board {
	return s.board
}

// Player returns a copy of a player's resources.
func (s *State) Player(p int) PlayerResources {
	return s.players[p]
}

// Faction returns a player's faction rules.
func (s *State) Faction(p int) faction.Info {
	return s.factions[p]
}

// CultProgress returns a player's position on track c.
func (s *State) CultProgress(p int, c cult.Type) cult.Progress {
	return s.cults.Progress(p, c)
}

// CultTrack returns the shared track for c.
func (s *State) CultTrack(c cult.Type) *cult.Track {
	return s.cults.Track(c)
}

// Bridges returns a copy of the built bridges.
func (s *State) Bridges() []Bridge {
	return append([]Bridge(nil), s.bridges...)
}

// Offer returns the pending power offer, if any.
func (s *State) Offer() (PendingOffer, bool) {
	if s.offer == nil {
		return PendingOffer{}, false
	}
	return *s.offer, true
}

// Spades returns the pending spade sequence.
func (s *State) Spades() PendingSpades {
	return s.spades
}

// PowerActionUsed reports whether p was taken this round.
func (s *State) PowerActionUsed(p PowerAction) bool {
	return s.usedPowerActions[p]
}

// Phase returns the game phase.
func (s *State) Phase() rules.Phase {
	return s.turns.Phase()
}

// Round returns the current round.
func (s *State) Round() int {
	return s.turns.Round()
}

// TurnPlayer returns the player whose turn it is, ignoring pending offers.
func (s *State) TurnPlayer() int {
	return s.turns.CurrentPlayer()
}

// CurrentPlayer returns the player who must act next: the offer candidate while
// a power offer is pending, otherwise the turn player.
func (s *State) CurrentPlayer() int {
	if s.offer != nil {
		return s.offer.Candidate
	}
	return s.turns.CurrentPlayer()
}

// IsTerminal reports whether the game is over.
func (s *State) IsTerminal() bool {
	return s.turns.Finished()
}

// Returns gives each player's victory points. Final scoring happens outside the engine.
func (s *State) Returns() []float64 {
	out := make([]float64, len(s.players))
	for i, p := range s.players {
		out[i] = float64(p.VictoryPoints)
	}
	return out
}

// EndRound closes the round: power actions become available again and the start
// player moves on. Closing the last round finishes the game. Pending offers and
// spades must be resolved first.
func (s *State) EndRound() error {
	if s.IsTerminal() {
		return ErrGameOver
	}
	if s.turns.Phase() != rules.PhaseActions {
		return fmt.Errorf("%w: round cannot end during %s", ErrPreconditionFailed, s.turns.Phase())
	}
	if s.offer != nil || s.spades.Count > 0 {
		return fmt.Errorf("%w: round cannot end with pending decisions", ErrPreconditionFailed)
	}

	round := s.turns.Round()
	for k := range s.usedPowerActions {
		delete(s.usedPowerActions, k)
	}
	finished := s.turns.EndRound()

	s.logger.Info("round ended",
		zap.Int("round", round),
		zap.Bool("finished", finished),
	)
	s.publish(rules.NewEventWithAmount(rules.EventRoundEnded, rules.NoPlayer, rules.NoHex, round))
	if finished {
		s.publishPhase()
	}
	return nil
}

// GiveKey unlocks the top of cult track c for player, as founding a town does.
func (s *State) GiveKey(player int, c cult.Type) error {
	if player < 0 || player >= len(s.players) || !c.Valid() {
		return fmt.Errorf("%w: no player %d or track %d", ErrPreconditionFailed, player, int(c))
	}
	s.cults.GiveKey(player, c)
	return nil
}

// Clone returns a fully independent copy. The clone shares the logger but has
// its own event bus with no subscribers.
func (s *State) Clone() *State {
	c := &State{
		opts:             s.Options(),
		board:            s.board.Clone(),
		factions:         append([]faction.Info(nil), s.factions...),
		players:          append([]PlayerResources(nil), s.players...),
		cults:            s.cults.Clone(),
		turns:            s.turns.Clone(),
		usedPowerActions: make(map[PowerAction]bool, len(s.usedPowerActions)),
		bridges:          append([]Bridge(nil), s.bridges...),
		spades:           s.spades,
		logger:           s.logger,
		events:           rules.NewEventBus(),
	}
	for k, v := range s.usedPowerActions {
		c.usedPowerActions[k] = v
	}
	if s.offer != nil {
		o := *s.offer
		c.offer = &o
	}
	return c
}

// buildingCount counts player's buildings of type b on the board.
func (s *State) buildingCount(player int, b building.Type) int {
	n := 0
	for h := 0; h < s.board.NumHexes(); h++ {
		if s.board.Owner(h) == player && s.board.Building(h) == b {
			n++
		}
	}
	return n
}

// ownsBuilding reports whether player has a building on hex.
func (s *State) ownsBuilding(hex, player int) bool {
	return s.board.Building(hex) != building.None && s.board.Owner(hex) == player
}

// priestsInPlay counts priests in hand and on cult spots.
func (s *State) priestsInPlay(player int) int {
	return s.players[player].Priests + s.cults.PriestsOnTracks(player)
}

func (s *State) publish(evt rules.Event) {
	if s.events == nil {
		return
	}
	evt.Round = s.turns.Round()
	s.events.Publish(evt)
}

func (s *State) publishPhase() {
	phase := s.turns.Phase()
	s.logger.Info("phase changed", zap.String("phase", phase.String()))
	evt := rules.NewEvent(rules.EventPhaseChanged, rules.NoPlayer, rules.NoHex)
	evt.Data = phase.String()
	s.publish(evt)
}
