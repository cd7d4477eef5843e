// Package config assembles server settings from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/al007ex/moomoo-clone/internal/net/router"
	"github.com/al007ex/moomoo-clone/internal/net/ws"
	"github.com/al007ex/moomoo-clone/internal/observability"
	"github.com/al007ex/moomoo-clone/internal/persist"
	"github.com/al007ex/moomoo-clone/internal/sim"
	"github.com/al007ex/moomoo-clone/internal/systems"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/world"
	"github.com/al007ex/moomoo-clone/logging"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8080
	DefaultPingEndpoint  = "/ping"
	DefaultUpdateRate    = 9
	DefaultMinimapRateMS = 3000
	// hardCapHeadroom is added to the soft player cap to size the sid pool.
	hardCapHeadroom = 10
)

// DefaultEnvFiles are tried in order; missing files are skipped.
var DefaultEnvFiles = []string{".env", "../.env"}

type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	PingEndpoint    string `yaml:"pingEndpoint"`
	ConnectionLimit int    `yaml:"connectionLimit"`
}

type SimulationConfig struct {
	// UpdateRate is the number of ticks per second.
	UpdateRate         int `yaml:"updateRate"`
	MaxUpdatesPerFrame int `yaml:"maxUpdatesPerFrame"`
	LeaderboardSize    int `yaml:"leaderboardSize"`
	MinimapRateMS      int `yaml:"minimapRateMs"`
}

type ThrottleConfig struct {
	Capacity int     `yaml:"capacity"`
	Refill   float64 `yaml:"refill"`
}

type LoggingConfig struct {
	Sinks    []string `yaml:"sinks"`
	Level    string   `yaml:"level"`
	JSONPath string   `yaml:"jsonPath"`
	// Categories limits a sink, by name, to the listed event categories.
	Categories map[string][]string `yaml:"categories"`
}

type ArchiveConfig struct {
	// DSN selects the SQLite archive; empty keeps nothing.
	DSN           string `yaml:"dsn"`
	IntervalTicks int    `yaml:"intervalTicks"`
	Retain        int    `yaml:"retain"`
}

type Config struct {
	Server        ServerConfig         `yaml:"server"`
	Simulation    SimulationConfig     `yaml:"simulation"`
	World         world.Config         `yaml:"world"`
	LargeServer   bool                 `yaml:"largeServer"`
	Throttle      ThrottleConfig       `yaml:"throttle"`
	Logging       LoggingConfig        `yaml:"logging"`
	Archive       ArchiveConfig        `yaml:"archive"`
	Observability observability.Config `yaml:"observability"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			PingEndpoint:    DefaultPingEndpoint,
			ConnectionLimit: ws.DefaultConnectionLimit,
		},
		Simulation: SimulationConfig{
			UpdateRate:         DefaultUpdateRate,
			MaxUpdatesPerFrame: sim.DefaultMaxUpdatesPerFrame,
			LeaderboardSize:    systems.DefaultLeaderboardSize,
			MinimapRateMS:      DefaultMinimapRateMS,
		},
		World: world.DefaultConfig(),
		Throttle: ThrottleConfig{
			Capacity: router.DefaultThrottleCapacity,
			Refill:   router.DefaultThrottleRefill,
		},
		Logging: LoggingConfig{
			Sinks: []string{logging.SinkConsole},
			Level: logging.SeverityInfo.String(),
		},
		Archive: ArchiveConfig{
			IntervalTicks: persist.DefaultArchiveInterval,
			Retain:        persist.DefaultRetain,
		},
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Timestep is the duration of one tick.
func (c Config) Timestep() time.Duration {
	return time.Second / time.Duration(c.Simulation.UpdateRate)
}

func (c Config) MinimapInterval() time.Duration {
	return time.Duration(c.Simulation.MinimapRateMS) * time.Millisecond
}

// LoggingRouterConfig maps the logging section onto the router settings.
func (c Config) LoggingRouterConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if len(c.Logging.Sinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), c.Logging.Sinks...)
	}
	if severity, ok := logging.ParseSeverity(c.Logging.Level); ok {
		cfg.MinimumSeverity = severity
	}
	cfg.JSON.FilePath = c.Logging.JSONPath
	if len(c.Logging.Categories) > 0 {
		cfg.SinkCategories = make(map[string][]string, len(c.Logging.Categories))
		for name, categories := range c.Logging.Categories {
			cfg.SinkCategories[name] = append([]string(nil), categories...)
		}
	}
	return cfg
}

// Options controls where Load looks for settings.
type Options struct {
	EnvFiles []string
	Lookup   func(string) (string, bool)
}

// Load reads .env files, then CONFIG_FILE, then environment overrides.
func Load(logger telemetry.Logger) (Config, error) {
	return LoadWith(logger, Options{EnvFiles: DefaultEnvFiles, Lookup: os.LookupEnv})
}

func LoadWith(logger telemetry.Logger, opts Options) (Config, error) {
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	for _, path := range opts.EnvFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return Config{}, eris.Wrapf(err, "load env file %s", path)
		}
	}

	cfg := Default()
	if path, ok := opts.Lookup("CONFIG_FILE"); ok && path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	env := envReader{lookup: opts.Lookup, logger: logger}
	applyEnv(&cfg, env)
	return finalize(cfg), nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return eris.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config, env envReader) {
	env.setString(&cfg.Server.Host, "SERVER_HOST", "HOST")
	env.setInt(&cfg.Server.Port, "SERVER_PORT", "PORT")
	env.setInt(&cfg.Server.ConnectionLimit, "CONNECTION_LIMIT")
	env.setString(&cfg.Server.PingEndpoint, "PING_ENDPOINT")

	env.setInt(&cfg.Simulation.UpdateRate, "SERVER_UPDATE_RATE")
	env.setInt(&cfg.Simulation.MaxUpdatesPerFrame, "MAX_UPDATES_PER_FRAME")
	env.setInt(&cfg.Simulation.LeaderboardSize, "LEADERBOARD_SIZE")
	env.setInt(&cfg.Simulation.MinimapRateMS, "MINIMAP_RATE_MS")

	env.setBool(&cfg.LargeServer, "LARGE_SERVER")
	if cfg.LargeServer && cfg.World.MaxPlayers == world.DefaultMaxPlayers {
		cfg.World.MaxPlayers = world.DefaultLargeMaxPlayers
	}
	maxPlayers := cfg.World.MaxPlayers
	env.setInt(&cfg.World.MaxPlayers, "MAX_PLAYERS")
	if cfg.World.MaxPlayers != maxPlayers || cfg.World.MaxPlayersHard < cfg.World.MaxPlayers+hardCapHeadroom {
		cfg.World.MaxPlayersHard = cfg.World.MaxPlayers + hardCapHeadroom
	}
	env.setFloat(&cfg.World.MapScale, "MAP_SCALE")
	env.setFloat(&cfg.World.MapPingTimeMS, "MAP_PING_TIME_MS")

	env.setInt(&cfg.Throttle.Capacity, "THROTTLE_CAPACITY")
	env.setFloat(&cfg.Throttle.Refill, "THROTTLE_REFILL")

	env.setList(&cfg.Logging.Sinks, "LOG_SINKS")
	env.setString(&cfg.Logging.Level, "LOG_LEVEL")
	env.setString(&cfg.Logging.JSONPath, "LOG_JSON_PATH")

	env.setString(&cfg.Archive.DSN, "ARCHIVE_DSN")
	env.setInt(&cfg.Archive.IntervalTicks, "ARCHIVE_INTERVAL_TICKS")

	env.setBool(&cfg.Observability.EnablePprof, "ENABLE_PPROF")
}

// finalize replaces unusable values with defaults.
func finalize(cfg Config) Config {
	defaults := Default()
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = defaults.Server.Port
	}
	if !strings.HasPrefix(cfg.Server.PingEndpoint, "/") {
		cfg.Server.PingEndpoint = defaults.Server.PingEndpoint
	}
	if cfg.Simulation.UpdateRate <= 0 {
		cfg.Simulation.UpdateRate = defaults.Simulation.UpdateRate
	}
	if cfg.Simulation.MaxUpdatesPerFrame <= 0 {
		cfg.Simulation.MaxUpdatesPerFrame = defaults.Simulation.MaxUpdatesPerFrame
	}
	if cfg.Simulation.LeaderboardSize <= 0 {
		cfg.Simulation.LeaderboardSize = defaults.Simulation.LeaderboardSize
	}
	if cfg.Simulation.MinimapRateMS <= 0 {
		cfg.Simulation.MinimapRateMS = defaults.Simulation.MinimapRateMS
	}
	if cfg.Archive.IntervalTicks <= 0 {
		cfg.Archive.IntervalTicks = defaults.Archive.IntervalTicks
	}
	cfg.World = cfg.World.Normalized()
	return cfg
}
