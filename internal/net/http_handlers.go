package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/al007ex/moomoo-clone/internal/observability"
	"github.com/al007ex/moomoo-clone/logging"
)

const DefaultPingEndpoint = "/ping"

type HTTPHandlerConfig struct {
	// Gateway serves the websocket upgrade on /ws.
	Gateway      nethttp.Handler
	PingEndpoint string
	Logger       *log.Logger

	AllowedOrigins []string
	// Profiling mounts the pprof handlers under /debug.
	Profiling bool

	Players          func() int
	Tick             func() uint64
	TickRate         int
	RouterStats      func() logging.RouterStats
	Metrics          *logging.Metrics
	LastArchivedTick func() (uint64, bool)
}

type diagnosticsPayload struct {
	Status           string               `json:"status"`
	ServerTime       int64                `json:"serverTime"`
	Players          int                  `json:"players"`
	Tick             uint64               `json:"tick"`
	TickRate         int                  `json:"tickRate"`
	Logging          *logging.RouterStats `json:"logging,omitempty"`
	Counters         map[string]uint64    `json:"counters"`
	LastArchivedTick *uint64              `json:"lastArchivedTick,omitempty"`
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	ping := cfg.PingEndpoint
	if ping == "" {
		ping = DefaultPingEndpoint
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get(ping, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	})

	r.Get("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := diagnosticsPayload{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Counters:   cfg.Metrics.Snapshot(),
		}
		if cfg.Players != nil {
			payload.Players = cfg.Players()
		}
		if cfg.Tick != nil {
			payload.Tick = cfg.Tick()
		}
		if cfg.RouterStats != nil {
			stats := cfg.RouterStats()
			payload.Logging = &stats
		}
		if cfg.LastArchivedTick != nil {
			if tick, ok := cfg.LastArchivedTick(); ok {
				payload.LastArchivedTick = &tick
			}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			logger.Printf("failed to encode diagnostics: %v", err)
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	if cfg.Gateway != nil {
		r.Handle("/ws", cfg.Gateway)
	}

	if cfg.Profiling {
		r.Mount(observability.ProfilerPrefix, middleware.Profiler())
	}

	return r
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
