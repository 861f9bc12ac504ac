package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/terrabots/terra-server-go/internal/config"
	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/repository"
)

type testServer struct {
	*Server
	http *httptest.Server
}

func newTestServer(t *testing.T, store game.Store) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := game.NewManager(logger, store, "")
	s := New(config.ServerConfig{MaxMessageSize: 4096}, manager, game.DefaultOptions(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
		manager.Close()
	})
	return &testServer{Server: s, http: ts}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.http.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// createSmallGame starts a game on a three-hex board with no setup phase.
func (ts *testServer) createSmallGame(t *testing.T) string {
	t.Helper()
	zero := 0
	resp := ts.do(t, http.MethodPost, "/games", CreateRequest{
		Board:          []string{"FFD"},
		SetupDwellings: &zero,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[CreateResponse](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "ACTIONS", created.View.Phase)
	return created.ID
}

func workerToCoin(player int) ActionRequest {
	return ActionRequest{Player: player, Action: game.Convert(game.ActionWorkerToCoin)}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndView(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)

	resp := ts.do(t, http.MethodGet, "/games/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[game.GameView](t, resp)
	assert.Equal(t, id, view.GameID)
	assert.Len(t, view.Hexes, 3)
	assert.Contains(t, view.Legal, game.EndTurn())

	resp = ts.do(t, http.MethodGet, "/games", nil)
	list := decode[map[string][]string](t, resp)
	assert.Equal(t, []string{id}, list["games"])
}

func TestCreateRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"unknown faction", CreateRequest{Factions: []string{"witches", "elves"}}},
		{"one player", CreateRequest{Factions: []string{"witches"}}},
		{"unknown rotation", CreateRequest{Rotation: "sometimes"}},
		{"bad board", CreateRequest{Board: []string{"FXQ"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/games", tt.req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestActions(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)

	resp := ts.do(t, http.MethodPost, "/games/"+id+"/actions", workerToCoin(1))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/games/"+id+"/actions", ActionRequest{Player: 0, Action: game.Build(2)})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/games/"+id+"/actions", workerToCoin(0))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[game.GameView](t, resp)
	assert.Equal(t, 1, view.CurrentPlayer)
	assert.Equal(t, 16, view.Players[0].Res.Coins)

	resp = ts.do(t, http.MethodPost, "/games/"+id+"/end-round", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[game.GameView](t, resp)
	assert.Equal(t, 2, view.Round)

	resp = ts.do(t, http.MethodPost, "/games/"+id+"/keys", KeyRequest{Player: 0, Cult: 0})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := http.Post(ts.http.URL+"/games/"+id+"/actions", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestUnknownGame(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/games/nope", "/games/nope/replay", "/games/nope/ws"} {
		resp := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp := ts.do(t, http.MethodPost, "/games/nope/actions", workerToCoin(0))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplayDownload(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)
	ts.do(t, http.MethodPost, "/games/"+id+"/actions", workerToCoin(0))

	resp := ts.do(t, http.MethodGet, "/games/"+id+"/replay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	replay, err := game.UnmarshalReplay(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, replay.Size())
}

func TestLazyRestoreFromStore(t *testing.T) {
	store, err := repository.OpenSQLite(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	first := newTestServer(t, store)
	id := first.createSmallGame(t)
	resp := first.do(t, http.MethodPost, "/games/"+id+"/actions", workerToCoin(0))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	want := decode[game.GameView](t, resp)

	// A fresh server sharing the store picks the game up on first request.
	second := newTestServer(t, store)
	resp = second.do(t, http.MethodGet, "/games/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[game.GameView](t, resp)
	assert.Equal(t, want.Checksum, got.Checksum)
}

func dial(t *testing.T, ts *testServer, id, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/games/" + id + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one matches or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func isType(typ string) func(Message) bool {
	return func(m Message) bool { return m.Type == typ }
}

func TestWebSocketActionsBroadcast(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)

	actor := dial(t, ts, id, "?player=0")
	watcher := dial(t, ts, id, "")

	first := readUntil(t, actor, isType(TypeView))
	require.NotNil(t, first.View)
	assert.Equal(t, 0, first.View.CurrentPlayer)
	readUntil(t, watcher, isType(TypeView))

	action := game.Convert(game.ActionWorkerToCoin)
	require.NoError(t, actor.WriteJSON(Message{Type: TypeAction, Action: &action}))

	moved := func(m Message) bool {
		return m.Type == TypeView && m.View != nil && m.View.CurrentPlayer == 1
	}
	readUntil(t, actor, moved)
	got := readUntil(t, watcher, moved)
	assert.Equal(t, 16, got.View.Players[0].Res.Coins)

	// Seat 0 is no longer to act.
	require.NoError(t, actor.WriteJSON(Message{Type: TypeAction, Action: &action}))
	errMsg := readUntil(t, actor, isType(TypeError))
	assert.Contains(t, errMsg.Error, game.ErrNotYourTurn.Error())

	// Spectators may not act at all.
	require.NoError(t, watcher.WriteJSON(Message{Type: TypeAction, Action: &action}))
	errMsg = readUntil(t, watcher, isType(TypeError))
	assert.Contains(t, errMsg.Error, "spectators")
}

func TestWebSocketEvents(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)
	conn := dial(t, ts, id, "?player=0")
	readUntil(t, conn, isType(TypeView))

	require.NoError(t, conn.WriteJSON(Message{Type: TypeEndRound}))
	evt := readUntil(t, conn, func(m Message) bool {
		return m.Type == TypeEvent && m.Event != nil && m.Event.Type == "ROUND_ENDED"
	})
	assert.Equal(t, 1, evt.Event.Amount)
}

func TestWebSocketRejectsBadSeat(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSmallGame(t)

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/games/" + id + "/ws?player=7"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunShutsDown(t *testing.T) {
	manager := game.NewManager(nil, nil, "")
	s := New(config.ServerConfig{
		Address:         "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, manager, game.DefaultOptions(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
