package observability

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	// EnablePprof mounts the runtime profiler under /debug.
	EnablePprof bool `yaml:"enablePprof"`
}

// ProfilerPrefix is where the profiler is mounted when enabled.
const ProfilerPrefix = "/debug"
