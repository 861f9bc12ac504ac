package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/rules"
	"github.com/terrabots/terra-server-go/internal/repository"
)

// Store persists hosted games.
type Store interface {
	Save(ctx context.Context, rec repository.Record) error
	Load(ctx context.Context, id string) (repository.Record, error)
}

// Notification carries an engine event out of a hosted game.
type Notification struct {
	GameID string
	Event  rules.Event
}

// NotificationHandler receives notifications in the order the games published
// them. It runs on the manager's dispatch goroutine and may call back into the
// manager.
type NotificationHandler func(Notification)

type hostedGame struct {
	mu        sync.Mutex
	state     *State
	replay    *Replay
	startedAt time.Time
}

// Manager hosts many games by ID. Each game is guarded by its own mutex; the
// manager lock only protects the game map.
type Manager struct {
	logger    *zap.Logger
	store     Store
	replayDir string

	mu      sync.RWMutex
	games   map[string]*hostedGame
	handler NotificationHandler

	// Notifications queue here and are drained by a single goroutine.
	queueMu   sync.Mutex
	queue     []Notification
	wake      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager creates a manager. store may be nil to keep games in memory only;
// replayDir may be empty to skip writing replay files for finished games.
func NewManager(logger *zap.Logger, store Store, replayDir string) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:    logger,
		store:     store,
		replayDir: replayDir,
		games:     make(map[string]*hostedGame),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// SetNotificationHandler registers the handler for game notifications.
func (m *Manager) SetNotificationHandler(handler NotificationHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	m.startOnce.Do(func() { go m.dispatch() })
}

// Close stops notification delivery. Queued notifications are dropped.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// emit queues n without blocking, so it is safe to call with a game locked.
func (m *Manager) emit(n Notification) {
	m.mu.RLock()
	handler := m.handler
	m.mu.RUnlock()
	if handler == nil {
		return
	}

	m.queueMu.Lock()
	m.queue = append(m.queue, n)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) dispatch() {
	for {
		select {
		case <-m.wake:
		case <-m.done:
			return
		}
		for {
			m.queueMu.Lock()
			batch := m.queue
			m.queue = nil
			m.queueMu.Unlock()
			if len(batch) == 0 {
				break
			}

			m.mu.RLock()
			handler := m.handler
			m.mu.RUnlock()
			if handler == nil {
				continue
			}
			for _, n := range batch {
				select {
				case <-m.done:
					return
				default:
				}
				handler(n)
			}
		}
	}
}

// host registers a game under id. When id is already hosted the existing game
// wins and is returned with false.
func (m *Manager) host(id string, state *State, replay *Replay, startedAt time.Time) (*hostedGame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[id]; ok {
		return g, false
	}

	g := &hostedGame{state: state, replay: replay, startedAt: startedAt}
	state.Events().Subscribe(func(evt rules.Event) {
		m.emit(Notification{GameID: id, Event: evt})
	})
	m.games[id] = g
	return g, true
}

// Create starts a new game and returns its ID.
func (m *Manager) Create(ctx context.Context, opts Options) (string, error) {
	id := uuid.NewString()
	state, err := NewState(opts, m.logger.With(zap.String("game_id", id)))
	if err != nil {
		return "", err
	}
	g, _ := m.host(id, state, NewReplay(id, state.Options()), time.Now())

	g.mu.Lock()
	defer g.mu.Unlock()
	state.publish(rules.NewEventWithAmount(rules.EventGameStarted, rules.NoPlayer, rules.NoHex, state.NumPlayers()))
	m.persist(ctx, id, g)

	m.logger.Info("game created",
		zap.String("game_id", id),
		zap.Int("players", state.NumPlayers()),
	)
	return id, nil
}

// Restore loads a stored game into the manager by replaying its log. The
// rebuilt state must match the stored checksum. Restoring a game that is already
// hosted does nothing.
func (m *Manager) Restore(ctx context.Context, id string) error {
	if _, err := m.lookup(id); err == nil {
		return nil
	}
	if m.store == nil {
		return fmt.Errorf("%w: %s (no store)", ErrGameNotFound, id)
	}
	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGameNotFound, id, err)
	}
	replay, err := UnmarshalReplay(rec.Data)
	if err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	state, err := replay.Rebuild(m.logger.With(zap.String("game_id", id)))
	if err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	if sum := state.Checksum(); sum != rec.Checksum {
		return fmt.Errorf("restore %s: checksum mismatch: stored=%s rebuilt=%s", id, rec.Checksum, sum)
	}

	if _, fresh := m.host(id, state, replay, rec.UpdatedAt); !fresh {
		m.logger.Debug("game already hosted", zap.String("game_id", id))
		return nil
	}
	m.logger.Info("game restored",
		zap.String("game_id", id),
		zap.Int("entries", replay.Size()),
		zap.Int("round", state.Round()),
	)
	return nil
}

func (m *Manager) lookup(id string) (*hostedGame, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

// List returns the hosted game IDs in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove drops a game from memory. Stored records are kept.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	delete(m.games, id)
	m.logger.Debug("game removed", zap.String("game_id", id))
	return nil
}

// View returns the current view of a game.
func (m *Manager) View(id string) (GameView, error) {
	g, err := m.lookup(id)
	if err != nil {
		return GameView{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.View(id, g.startedAt), nil
}

// Snapshot returns an independent copy of a game's state.
func (m *Manager) Snapshot(id string) (*State, error) {
	g, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone(), nil
}

// Replay returns a game's transition log.
func (m *Manager) Replay(id string) (*Replay, error) {
	g, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return g.replay, nil
}

// Apply performs an action for player, who must be the player to act.
func (m *Manager) Apply(ctx context.Context, id string, player int, a Action) (GameView, error) {
	return m.mutate(ctx, id, func(s *State) (Entry, error) {
		if s.IsTerminal() {
			return Entry{}, ErrGameOver
		}
		if current := s.CurrentPlayer(); current != player {
			return Entry{}, fmt.Errorf("%w: player %d acted, player %d to act", ErrNotYourTurn, player, current)
		}
		if err := s.ApplyAction(a); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryAction, Player: player, Action: a}, nil
	})
}

// EndRound closes the current round of a game.
func (m *Manager) EndRound(ctx context.Context, id string) (GameView, error) {
	return m.mutate(ctx, id, func(s *State) (Entry, error) {
		if err := s.EndRound(); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryEndRound}, nil
	})
}

// GiveKey unlocks the top of a cult track for player.
func (m *Manager) GiveKey(ctx context.Context, id string, player int, c cult.Type) (GameView, error) {
	return m.mutate(ctx, id, func(s *State) (Entry, error) {
		if err := s.GiveKey(player, c); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryGiveKey, Player: player, Cult: c}, nil
	})
}

// mutate runs fn under the game lock, logs the transition it reports and
// persists the game.
func (m *Manager) mutate(ctx context.Context, id string, fn func(*State) (Entry, error)) (GameView, error) {
	g, err := m.lookup(id)
	if err != nil {
		return GameView{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, err := fn(g.state)
	if err != nil {
		return GameView{}, err
	}
	g.replay.Record(entry)
	m.persist(ctx, id, g)

	if g.state.IsTerminal() {
		m.finish(id, g)
	}
	return g.state.View(id, g.startedAt), nil
}

// persist saves the game's log. Failures are logged; the in-memory game stays
// authoritative.
func (m *Manager) persist(ctx context.Context, id string, g *hostedGame) {
	if m.store == nil {
		return
	}
	data, err := g.replay.MarshalBinary()
	if err != nil {
		m.logger.Error("failed to encode game", zap.String("game_id", id), zap.Error(err))
		return
	}
	rec := repository.Record{
		ID:        id,
		Data:      data,
		Checksum:  g.state.Checksum(),
		Round:     g.state.Round(),
		Finished:  g.state.IsTerminal(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, rec); err != nil {
		m.logger.Error("failed to save game", zap.String("game_id", id), zap.Error(err))
	}
}

func (m *Manager) finish(id string, g *hostedGame) {
	m.logger.Info("game finished",
		zap.String("game_id", id),
		zap.Float64s("returns", g.state.Returns()),
	)
	if m.replayDir == "" {
		return
	}
	if err := g.replay.SaveToFile(m.replayDir); err != nil {
		m.logger.Warn("failed to save replay", zap.String("game_id", id), zap.Error(err))
		return
	}
	m.logger.Info("saved replay to disk",
		zap.String("game_id", id),
		zap.Int("entries", g.replay.Size()),
		zap.String("directory", m.replayDir),
	)
}
