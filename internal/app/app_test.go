package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/al007ex/moomoo-clone/internal/config"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/logging"
)

func testSettings() *config.Config {
	settings := config.Default()
	settings.World.AreaCount = 0
	settings.World.TotalRocks = 0
	settings.World.GoldOres = 0
	settings.World.Animals = false
	settings.Logging.Sinks = []string{logging.SinkMemory}
	return &settings
}

func TestRunServesAndShutsDownGracefully(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{
			Logger:   telemetry.LoggerFunc(func(string, ...any) {}),
			Settings: testSettings(),
			Listener: listener,
			Ready:    ready,
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("expected server to start, got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for server start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("failed to query health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", resp.StatusCode, body)
	}

	conn, wsResp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("failed to open websocket: %v", err)
	}
	if wsResp != nil {
		wsResp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read init frame: %v", err)
	}
	envelope, err := proto.Decode(data)
	if err != nil {
		t.Fatalf("failed to decode init frame: %v", err)
	}
	if envelope.Type != proto.ServerInit {
		t.Fatalf("expected %q, got %q", proto.ServerInit, envelope.Type)
	}

	cancel()

	code := 0
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				code = closeErr.Code
			}
			break
		}
	}
	if code != transport.CloseShutdown {
		t.Fatalf("expected shutdown close code %d, got %d", transport.CloseShutdown, code)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for shutdown")
	}
}

func TestBuildSinksRejectsUnknownSink(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"carrier-pigeon"}
	if _, err := buildSinks(cfg); err == nil {
		t.Fatalf("expected unknown sink to fail")
	}
}

func TestBuildSinksOpensJSONFile(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{logging.SinkJSON, logging.SinkMemory}
	cfg.JSON.FilePath = t.TempDir() + "/events.jsonl"
	sinks, err := buildSinks(cfg)
	if err != nil {
		t.Fatalf("expected sinks to build, got %v", err)
	}
	if len(sinks) != 2 || sinks[0].Name != logging.SinkJSON || sinks[1].Name != logging.SinkMemory {
		t.Fatalf("expected json and memory sinks, got %v", sinks)
	}
	for _, named := range sinks {
		if err := named.Sink.Close(context.Background()); err != nil {
			t.Fatalf("expected %s sink to close, got %v", named.Name, err)
		}
	}
}
