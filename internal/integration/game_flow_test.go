package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/terrabots/terra-server-go/internal/config"
	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/repository"
	"github.com/terrabots/terra-server-go/internal/server"
)

type serverEnv struct {
	store     *repository.SQLiteStore
	manager   *game.Manager
	server    *server.Server
	http      *httptest.Server
	replayDir string
	logger    *zap.Logger
	closeOnce sync.Once
}

func newServerEnv(t *testing.T, dbPath, replayDir string) *serverEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store, err := repository.OpenSQLite(dbPath, logger)
	require.NoError(t, err)
	manager := game.NewManager(logger, store, replayDir)
	srv := server.New(config.ServerConfig{MaxMessageSize: 4096}, manager, game.DefaultOptions(), logger)
	ts := httptest.NewServer(srv.Handler())

	env := &serverEnv{
		store:     store,
		manager:   manager,
		server:    srv,
		http:      ts,
		replayDir: replayDir,
		logger:    logger,
	}
	t.Cleanup(env.close)
	return env
}

func (e *serverEnv) close() {
	e.closeOnce.Do(func() {
		e.http.Close()
		e.server.Close()
		e.manager.Close()
		e.store.Close()
	})
}

func (e *serverEnv) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(e.http.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *serverEnv) view(t *testing.T, id string) game.GameView {
	t.Helper()
	resp, err := http.Get(e.http.URL + "/games/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v game.GameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// playToEnd drives a game over HTTP, always taking the first legal action and
// closing each round after movesPerRound action-phase moves.
func (e *serverEnv) playToEnd(t *testing.T, id string, movesPerRound int) game.GameView {
	t.Helper()
	v := e.view(t, id)
	moves := 0
	for step := 0; !v.Finished; step++ {
		require.Less(t, step, 2000, "game did not finish")

		// Views are decoded fresh; omitted fields must not carry over.
		var next game.GameView
		if v.Phase == "ACTIONS" && moves >= movesPerRound && v.Offer == nil && v.Spades.Count == 0 {
			require.Equal(t, http.StatusOK, e.post(t, "/games/"+id+"/end-round", nil, &next))
			v = next
			moves = 0
			continue
		}
		if v.Phase == "ACTIONS" {
			moves++
		}
		require.NotEmpty(t, v.Legal)
		req := server.ActionRequest{Player: v.CurrentPlayer, Action: v.Legal[0]}
		require.Equal(t, http.StatusOK, e.post(t, "/games/"+id+"/actions", req, &next))
		v = next
	}
	return v
}

func TestFullGameFlow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "terra.db")
	replayDir := filepath.Join(dir, "replays")

	env := newServerEnv(t, dbPath, replayDir)

	var created server.CreateResponse
	require.Equal(t, http.StatusCreated, env.post(t, "/games", server.CreateRequest{MaxRounds: 2}, &created))
	id := created.ID
	assert.Equal(t, "SETUP", created.View.Phase)

	// A spectator socket sees the round transitions.
	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/games/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	rounds := make(chan int, 8)
	go func() {
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				close(rounds)
				return
			}
			if msg.Type == server.TypeEvent && msg.Event != nil && msg.Event.Type == "ROUND_ENDED" {
				rounds <- msg.Event.Amount
			}
		}
	}()

	final := env.playToEnd(t, id, 6)
	assert.True(t, final.Finished)
	assert.Equal(t, "FINISHED", final.Phase)
	assert.Len(t, final.Returns, 2)

	seen := map[int]bool{}
	timeout := time.After(3 * time.Second)
	for len(seen) < 2 {
		select {
		case r, ok := <-rounds:
			require.True(t, ok, "socket closed early")
			seen[r] = true
		case <-timeout:
			t.Fatalf("round events not delivered, saw %v", seen)
		}
	}
	assert.True(t, seen[1] && seen[2])

	// The finished game was written to the replay directory and rebuilds to the
	// same state.
	replay, err := game.LoadReplayFromFile(replayDir, id)
	require.NoError(t, err)
	rebuilt, err := replay.Rebuild(nil)
	require.NoError(t, err)
	assert.Equal(t, final.Checksum, rebuilt.Checksum())

	// The store holds the final record.
	rec, err := env.store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, rec.Finished)
	assert.Equal(t, final.Checksum, rec.Checksum)
}

func TestRestartRestoresGames(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "terra.db")

	first := newServerEnv(t, dbPath, "")
	var created server.CreateResponse
	require.Equal(t, http.StatusCreated, first.post(t, "/games", server.CreateRequest{}, &created))
	id := created.ID

	v := created.View
	for i := 0; i < 8; i++ {
		var next game.GameView
		req := server.ActionRequest{Player: v.CurrentPlayer, Action: v.Legal[0]}
		require.Equal(t, http.StatusOK, first.post(t, "/games/"+id+"/actions", req, &next))
		v = next
	}
	first.close()

	second := newServerEnv(t, dbPath, "")
	assert.Empty(t, second.manager.List())
	restored := second.view(t, id)
	assert.Equal(t, v.Checksum, restored.Checksum)
	assert.Equal(t, v.Legal, restored.Legal)
	assert.Equal(t, []string{id}, second.manager.List())

	summaries, err := second.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
}
