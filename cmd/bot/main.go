package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/selfplay"
	"github.com/terrabots/terra-server-go/internal/server"
)

// bot joins a hosted game for one seat and plays random legal actions until
// the game ends.
func main() {
	var (
		addr   = flag.String("addr", "localhost:8080", "server address")
		gameID = flag.String("game", "", "game id")
		seat   = flag.Int("seat", 0, "seat to play")
		seed   = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		delay  = flag.Duration("delay", 200*time.Millisecond, "pause before each move")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *gameID == "" {
		logger.Fatal("-game is required")
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/games/" + *gameID + "/ws",
		RawQuery: fmt.Sprintf("player=%d", *seat),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial failed", zap.String("url", u.String()), zap.Error(err))
	}
	defer conn.Close()
	logger.Info("connected", zap.String("game_id", *gameID), zap.Int("seat", *seat))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	policy := selfplay.Random(rand.New(rand.NewPCG(*seed, uint64(*seat))))
	acted := ""

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Info("connection closed", zap.Error(err))
			return
		}
		var msg server.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warn("malformed message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case server.TypeError:
			logger.Warn("server rejected move", zap.String("error", msg.Error))
			acted = ""
			if err := conn.WriteJSON(server.Message{Type: server.TypeView}); err != nil {
				logger.Error("send failed", zap.Error(err))
				return
			}
		case server.TypeEvent:
			if msg.Event == nil {
				continue
			}
			logger.Debug("event", zap.String("type", string(msg.Event.Type)), zap.Int("player", msg.Event.Player))
		case server.TypeView:
			view := msg.View
			if view == nil {
				continue
			}
			if view.Finished {
				logger.Info("game finished", zap.Float64s("returns", view.Returns))
				return
			}
			// Views are broadcast after every move; act once per state.
			if view.CurrentPlayer != *seat || len(view.Legal) == 0 || view.Checksum == acted {
				continue
			}
			acted = view.Checksum

			time.Sleep(*delay)
			action := policy(view.Legal)
			logger.Info("playing", zap.String("action", action.String()))
			if err := conn.WriteJSON(server.Message{Type: server.TypeAction, Action: &action}); err != nil {
				logger.Error("send failed", zap.Error(err))
				return
			}
		}
	}
}
