package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/terrabots/terra-server-go/internal/game"
	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/faction"
	"github.com/terrabots/terra-server-go/internal/game/rules"
)

// EnvPrefix prefixes environment overrides, e.g. TERRA_SERVER_ADDRESS.
const EnvPrefix = "TERRA"

// Storage drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig configures the HTTP and websocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds the defaults for newly created games.
type GameConfig struct {
	Factions       []string `mapstructure:"factions"`
	Workers        int      `mapstructure:"workers"`
	Coins          int      `mapstructure:"coins"`
	Priests        int      `mapstructure:"priests"`
	VictoryPoints  int      `mapstructure:"victory_points"`
	MaxRounds      int      `mapstructure:"max_rounds"`
	SetupDwellings int      `mapstructure:"setup_dwellings"`
	Rotation       string   `mapstructure:"rotation"`
	BoardFile      string   `mapstructure:"board_file"`
}

// StorageConfig selects where hosted games are persisted.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`
	ReplayDir   string `mapstructure:"replay_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_message_size", 4096)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	d := game.DefaultOptions()
	names := make([]string, len(d.Factions))
	for i, id := range d.Factions {
		names[i] = id.String()
	}
	v.SetDefault("game.factions", names)
	v.SetDefault("game.workers", d.Workers)
	v.SetDefault("game.coins", d.Coins)
	v.SetDefault("game.priests", d.Priests)
	v.SetDefault("game.victory_points", d.VictoryPoints)
	v.SetDefault("game.max_rounds", d.MaxRounds)
	v.SetDefault("game.setup_dwellings", d.SetupDwellings)
	v.SetDefault("game.rotation", d.Rotation.String())
	v.SetDefault("game.board_file", "")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "data/terra.db")
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.replay_dir", "data/replays")
}

// Load reads the YAML file at path, applies TERRA_* environment overrides and
// validates the result. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}

	switch c.Storage.Driver {
	case DriverNone:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}

	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if c.Server.MaxMessageSize <= 0 {
		return errors.New("server.max_message_size must be positive")
	}

	opts, err := c.Game.Options()
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return opts.Validate()
}

// Options converts the game section into engine options, loading the board file
// when one is set.
func (g GameConfig) Options() (game.Options, error) {
	opts := game.Options{
		Workers:        g.Workers,
		Coins:          g.Coins,
		Priests:        g.Priests,
		VictoryPoints:  g.VictoryPoints,
		MaxRounds:      g.MaxRounds,
		SetupDwellings: g.SetupDwellings,
		Board:          board.Default,
	}

	for _, name := range g.Factions {
		id, err := faction.Parse(name)
		if err != nil {
			return opts, err
		}
		opts.Factions = append(opts.Factions, id)
	}

	rotation, err := rules.ParseRotationPolicy(g.Rotation)
	if err != nil {
		return opts, err
	}
	opts.Rotation = rotation

	if g.BoardFile != "" {
		f, err := board.LoadFile(g.BoardFile)
		if err != nil {
			return opts, fmt.Errorf("board file: %w", err)
		}
		opts.Board = f
	}
	return opts, nil
}
