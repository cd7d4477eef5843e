package telemetry

import (
	"bytes"
	"log"
	"testing"

	"github.com/al007ex/moomoo-clone/logging"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
		provider, ok := logger.(interface{ StandardLogger() *log.Logger })
		if !ok || provider.StandardLogger() != base {
			t.Fatalf("expected wrapped logger to expose the standard logger")
		}
	})
}

func TestWrapMetrics(t *testing.T) {
	metrics := logging.Metrics{}
	adapter := WrapMetrics(&metrics)

	adapter.Add("test_counter", 2)
	adapter.Store("test_counter", 5)
	adapter.Add("test_counter", 3)
	Increment(adapter, "test_counter")

	snapshot := metrics.Snapshot()
	if got := snapshot["test_counter"]; got != 9 {
		t.Fatalf("unexpected metric value: %d", got)
	}

	// Ensure nil metrics do not panic.
	var nilAdapter Metrics = WrapMetrics(nil)
	nilAdapter.Add("ignored", 1)
	nilAdapter.Store("ignored", 1)
	Increment(nil, "ignored")
}

func TestKey(t *testing.T) {
	if got := Key("network", "router", "sp"); got != "network.router.sp" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("websocket", "", "messages"); got != "websocket.messages" {
		t.Fatalf("expected empty segments to be skipped, got %q", got)
	}
}
