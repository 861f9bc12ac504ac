package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/config"
	"github.com/terrabots/terra-server-go/internal/selfplay"
)

// selfplay plays a batch of random games with the configured game options and
// prints per-faction standings.
func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to configuration file")
		games      = flag.Int("games", 100, "number of games")
		workers    = flag.Int("workers", 4, "concurrent games")
		seed       = flag.Uint64("seed", 1, "series seed")
		perRound   = flag.Int("actions-per-round", 0, "moves before a round is closed (0: 4 per player)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts, err := cfg.Game.Options()
	if err != nil {
		logger.Fatal("invalid game configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	series := selfplay.NewSeries(selfplay.Config{
		Games:           *games,
		Workers:         *workers,
		Seed:            *seed,
		ActionsPerRound: *perRound,
		Options:         opts,
	})
	if err := series.Run(ctx, logger); err != nil {
		logger.Warn("series interrupted", zap.Error(err))
	}

	fmt.Printf("%-18s %6s %6s %6s %8s\n", "FACTION", "GAMES", "WINS", "DRAWS", "AVG VP")
	for _, st := range series.Standings() {
		fmt.Printf("%-18s %6d %6d %6d %8.1f\n", st.Faction, st.Games, st.Wins, st.Draws, st.AverageVP())
	}
}
