package config

import (
	"strconv"
	"strings"

	"github.com/al007ex/moomoo-clone/internal/telemetry"
)

// envReader applies variables onto config fields. The first key that is set
// wins; values that fail to parse are logged and leave the field alone.
type envReader struct {
	lookup func(string) (string, bool)
	logger telemetry.Logger
}

func (e envReader) raw(keys ...string) (string, string, bool) {
	for _, key := range keys {
		if value, ok := e.lookup(key); ok && strings.TrimSpace(value) != "" {
			return key, strings.TrimSpace(value), true
		}
	}
	return "", "", false
}

func (e envReader) setString(dst *string, keys ...string) {
	if _, value, ok := e.raw(keys...); ok {
		*dst = value
	}
}

func (e envReader) setInt(dst *int, keys ...string) {
	key, raw, ok := e.raw(keys...)
	if !ok {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		e.logger.Printf("invalid %s=%q: %v", key, raw, err)
		return
	}
	*dst = value
}

func (e envReader) setFloat(dst *float64, keys ...string) {
	key, raw, ok := e.raw(keys...)
	if !ok {
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.logger.Printf("invalid %s=%q: %v", key, raw, err)
		return
	}
	*dst = value
}

func (e envReader) setBool(dst *bool, keys ...string) {
	key, raw, ok := e.raw(keys...)
	if !ok {
		return
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		e.logger.Printf("invalid %s=%q: %v", key, raw, err)
		return
	}
	*dst = value
}

func (e envReader) setList(dst *[]string, keys ...string) {
	_, raw, ok := e.raw(keys...)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
