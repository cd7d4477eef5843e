package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/al007ex/moomoo-clone/logging"
)

// ConsoleSink prints one human readable line per event:
//
//	warn network/network.throttled tick=0 session:abc payload={...} traceId=...
type ConsoleSink struct {
	logger *log.Logger
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{logger: log.New(w, cfg.Prefix, log.LstdFlags)}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(event.Severity.String())
	b.WriteByte(' ')
	if event.Category != "" {
		b.WriteString(event.Category)
		b.WriteByte('/')
	}
	b.WriteString(string(event.Type))
	fmt.Fprintf(&b, " tick=%d %s", event.Tick, entityLabel(event.Actor))
	if len(event.Targets) > 0 {
		labels := make([]string, len(event.Targets))
		for i, target := range event.Targets {
			labels[i] = entityLabel(target)
		}
		b.WriteString(" targets=")
		b.WriteString(strings.Join(labels, ","))
	}
	if event.Payload != nil {
		if data, err := json.Marshal(event.Payload); err == nil {
			fmt.Fprintf(&b, " payload=%s", data)
		} else {
			fmt.Fprintf(&b, " payload=%v", event.Payload)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(event.Extra)) {
		fmt.Fprintf(&b, " %s=%v", key, event.Extra[key])
	}
	s.logger.Print(b.String())
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func entityLabel(ref logging.EntityRef) string {
	switch {
	case ref.ID == "" && ref.Kind == "":
		return "-"
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	default:
		return string(ref.Kind) + ":" + ref.ID
	}
}
