package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/terrabots/terra-server-go/internal/config"
	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/repository"
	"github.com/terrabots/terra-server-go/internal/server"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting terra server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeStore()

	defaults, err := cfg.Game.Options()
	if err != nil {
		logger.Fatal("invalid game configuration", zap.Error(err))
	}

	if cfg.Storage.ReplayDir != "" {
		if err := os.MkdirAll(cfg.Storage.ReplayDir, 0o755); err != nil {
			logger.Fatal("failed to create replay directory", zap.Error(err))
		}
	}

	manager := game.NewManager(logger, store, cfg.Storage.ReplayDir)
	defer manager.Close()
	logger.Info("game manager initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("players", defaults.NumPlayers()),
		zap.String("board", defaults.Board.Name),
	)

	srv := server.New(cfg.Server, manager, defaults, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("terra server stopped", zap.Int("games", len(manager.List())))
}

// openStore connects the configured storage backend. The returned close
// function is always safe to call.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (game.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { store.Close() }, nil
	case config.DriverPostgres:
		store, err := repository.OpenPostgres(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { store.Close() }, nil
	default:
		logger.Warn("storage disabled; games live in memory only")
		return nil, func() {}, nil
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
