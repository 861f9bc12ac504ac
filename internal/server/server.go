package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/config"
	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/faction"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// Spectator is the seat of a socket that watches without acting.
const Spectator = -1

// Server exposes hosted games over HTTP and websockets.
type Server struct {
	cfg      config.ServerConfig
	manager  *game.Manager
	defaults game.Options
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader

	// restoreMu serializes lazy restores so a game is hosted once.
	restoreMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server and starts its hub. defaults are the options for games
// created without overrides.
func New(cfg config.ServerConfig, manager *game.Manager, defaults game.Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		manager:  manager,
		defaults: defaults,
		hub:      NewHub(logger),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	if s.cfg.MaxMessageSize <= 0 {
		s.cfg.MaxMessageSize = 4096
	}

	manager.SetNotificationHandler(s.onNotification)
	go s.hub.Run(ctx)
	return s
}

// Close stops the hub and disconnects every socket.
func (s *Server) Close() {
	s.cancel()
}

// Run serves HTTP on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /games", s.handleList)
	mux.HandleFunc("POST /games", s.handleCreate)
	mux.HandleFunc("GET /games/{id}", s.handleView)
	mux.HandleFunc("GET /games/{id}/replay", s.handleReplay)
	mux.HandleFunc("POST /games/{id}/actions", s.handleAction)
	mux.HandleFunc("POST /games/{id}/end-round", s.handleEndRound)
	mux.HandleFunc("POST /games/{id}/keys", s.handleGiveKey)
	mux.HandleFunc("GET /games/{id}/ws", s.handleWebSocket)
	return mux
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// ensure makes sure id is hosted, restoring it from the store on first use.
func (s *Server) ensure(ctx context.Context, id string) error {
	if _, err := s.manager.View(id); !errors.Is(err, game.ErrGameNotFound) {
		return err
	}

	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()
	if _, err := s.manager.View(id); err == nil {
		return nil
	}
	return s.manager.Restore(ctx, id)
}

// options applies a create request on top of the configured defaults.
func (s *Server) options(req CreateRequest) (game.Options, error) {
	opts := s.defaults
	opts.Factions = append([]faction.ID(nil), s.defaults.Factions...)

	if len(req.Factions) > 0 {
		opts.Factions = opts.Factions[:0]
		for _, name := range req.Factions {
			id, err := faction.Parse(name)
			if err != nil {
				return opts, fmt.Errorf("%w: %v", game.ErrInvalidOptions, err)
			}
			opts.Factions = append(opts.Factions, id)
		}
	}
	if req.MaxRounds > 0 {
		opts.MaxRounds = req.MaxRounds
	}
	if req.SetupDwellings != nil {
		opts.SetupDwellings = *req.SetupDwellings
	}
	if req.Rotation != "" {
		r, err := rules.ParseRotationPolicy(req.Rotation)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", game.ErrInvalidOptions, err)
		}
		opts.Rotation = r
	}
	if len(req.Board) > 0 {
		opts.Board = board.File{Name: "custom", Rows: req.Board}
	}
	return opts, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"games":  len(s.manager.List()),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"games": s.manager.List()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, fmt.Errorf("%w: %v", game.ErrInvalidOptions, err))
		return
	}
	opts, err := s.options(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.manager.Create(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.manager.View(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{ID: id, View: view})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ensure(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.manager.View(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ensure(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	replay, err := s.manager.Replay(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := replay.MarshalBinary()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mutate(w, r, func(ctx context.Context, id string) (game.GameView, error) {
		return s.manager.Apply(ctx, id, req.Player, req.Action)
	})
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.manager.EndRound)
}

func (s *Server) handleGiveKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mutate(w, r, func(ctx context.Context, id string) (game.GameView, error) {
		return s.manager.GiveKey(ctx, id, req.Player, req.Cult)
	})
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (game.GameView, error)) {
	id := r.PathValue("id")
	if err := s.ensure(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := fn(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastView(id, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ensure(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.manager.View(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	player := Spectator
	if raw := r.URL.Query().Get("player"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 || p >= len(view.Players) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid player %q", raw)})
			return
		}
		player = p
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.String("game_id", id), zap.Error(err))
		return
	}

	c := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: id,
		player: player,
	}
	if !s.hub.Register(c) {
		conn.Close()
		return
	}
	s.sendView(c, view)
	go c.writePump()
	go c.readPump(s)
}

// handleMessage serves one websocket message from c.
func (s *Server) handleMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(c, fmt.Errorf("malformed message: %w", err))
		return
	}

	var (
		view game.GameView
		err  error
	)
	switch msg.Type {
	case TypeView:
		if view, err = s.manager.View(c.gameID); err != nil {
			s.sendError(c, err)
			return
		}
		s.sendView(c, view)
		return
	case TypeAction:
		if msg.Action == nil {
			s.sendError(c, errors.New("action message without action"))
			return
		}
		if c.player == Spectator {
			s.sendError(c, errors.New("spectators cannot act"))
			return
		}
		view, err = s.manager.Apply(s.ctx, c.gameID, c.player, *msg.Action)
	case TypeEndRound:
		view, err = s.manager.EndRound(s.ctx, c.gameID)
	case TypeGiveKey:
		if msg.Player == nil || msg.Cult == nil {
			s.sendError(c, errors.New("give_key needs player and cult"))
			return
		}
		view, err = s.manager.GiveKey(s.ctx, c.gameID, *msg.Player, *msg.Cult)
	default:
		s.sendError(c, fmt.Errorf("unknown message type %q", msg.Type))
		return
	}

	if err != nil {
		s.sendError(c, err)
		return
	}
	s.broadcastView(c.gameID, view)
}

func (s *Server) onNotification(n game.Notification) {
	payload, err := json.Marshal(Message{
		Type:   TypeEvent,
		GameID: n.GameID,
		Event:  eventPayload(n.Event),
	})
	if err != nil {
		s.logger.Error("failed to encode event", zap.String("game_id", n.GameID), zap.Error(err))
		return
	}
	s.hub.Broadcast(n.GameID, payload)
}

func (s *Server) broadcastView(id string, view game.GameView) {
	payload, err := json.Marshal(Message{Type: TypeView, GameID: id, View: &view})
	if err != nil {
		s.logger.Error("failed to encode view", zap.String("game_id", id), zap.Error(err))
		return
	}
	s.hub.Broadcast(id, payload)
}

func (s *Server) sendView(c *Client, view game.GameView) {
	payload, err := json.Marshal(Message{Type: TypeView, GameID: c.gameID, View: &view})
	if err != nil {
		s.logger.Error("failed to encode view", zap.String("game_id", c.gameID), zap.Error(err))
		return
	}
	s.hub.Send(c, payload)
}

func (s *Server) sendError(c *Client, err error) {
	s.logger.Debug("websocket request failed",
		zap.String("game_id", c.gameID),
		zap.Int("player", c.player),
		zap.Error(err),
	)
	payload, _ := json.Marshal(Message{Type: TypeError, GameID: c.gameID, Error: err.Error()})
	s.hub.Send(c, payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
