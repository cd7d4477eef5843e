package logging

import (
	"maps"
	"slices"
	"time"
)

// Sink names understood by the application wiring.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
	SinkZap     = "zap"
	SinkMemory  = "memory"
)

// Config drives NewRouter and the sink wiring in the app.
type Config struct {
	EnabledSinks    []string
	BufferSize      int
	MinimumSeverity Severity
	// Fields are merged into every event's Extra unless the event sets them.
	Fields map[string]any
	// SinkCategories restricts a named sink to the listed event categories.
	SinkCategories   map[string][]string
	JSON             JSONConfig
	Console          ConsoleConfig
	Zap              ZapConfig
	DropWarnInterval time.Duration
}

type JSONConfig struct {
	// FilePath appends JSON lines to a file; empty writes to stdout.
	FilePath      string
	FlushInterval time.Duration
}

type ConsoleConfig struct {
	Prefix string
}

type ZapConfig struct {
	Development bool
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{SinkConsole},
		BufferSize:       defaultQueueSize,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: defaultDropWarning,
		JSON:             JSONConfig{FlushInterval: 2 * time.Second},
		Console:          ConsoleConfig{Prefix: "[arena] "},
	}
}

func (c Config) HasSink(name string) bool {
	return slices.Contains(c.EnabledSinks, name)
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	return maps.Clone(c.Fields)
}

// CategoriesFor returns the category filter for the named sink, nil when the
// sink receives everything.
func (c Config) CategoriesFor(name string) []string {
	return slices.Clone(c.SinkCategories[name])
}
