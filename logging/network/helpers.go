package network

import (
	"context"

	"github.com/al007ex/moomoo-clone/logging"
)

const (
	// EventParseFailed is emitted when an inbound frame cannot be decoded.
	EventParseFailed logging.EventType = "network.parse_failed"
	// EventUnhandledType is emitted when no handler is registered for a message type.
	EventUnhandledType logging.EventType = "network.unhandled_type"
	// EventDispatchFailed is emitted when a handler or middleware fails.
	EventDispatchFailed logging.EventType = "network.dispatch_failed"
	// EventThrottled is emitted when a session exhausts its message budget.
	EventThrottled logging.EventType = "network.throttled"
	// EventUnauthorized is emitted when an unauthenticated session sends a gated message.
	EventUnauthorized logging.EventType = "network.unauthorized"
	// EventInactiveSession is emitted when a command targets a replaced or closed session.
	EventInactiveSession logging.EventType = "network.inactive_session"
	// EventConnectionRefused is emitted when a socket is turned away at handshake.
	EventConnectionRefused logging.EventType = "network.connection_refused"
	// EventMessageTrace brackets message handling at debug level.
	EventMessageTrace logging.EventType = "network.message_trace"
)

// MessagePayload identifies the message a network event is about.
type MessagePayload struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error,omitempty"`
}

// RefusalPayload explains a refused connection.
type RefusalPayload struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
	Code    int    `json:"code"`
}

// TracePayload marks entry into or exit from the middleware chain.
type TracePayload struct {
	Type     string `json:"type"`
	Phase    string `json:"phase"`
	Duration int64  `json:"durationMicros,omitempty"`
}

// ParseFailed publishes a warning for an undecodable frame.
func ParseFailed(ctx context.Context, pub logging.Publisher, session string, err error) {
	publish(ctx, pub, EventParseFailed, logging.SeverityWarn, logging.SessionRef(session), MessagePayload{Error: errorText(err)})
}

// UnhandledType publishes a warning for a message type without a handler.
func UnhandledType(ctx context.Context, pub logging.Publisher, session, msgType string) {
	publish(ctx, pub, EventUnhandledType, logging.SeverityWarn, logging.SessionRef(session), MessagePayload{Type: msgType})
}

// DispatchFailed publishes an error raised while handling a message.
func DispatchFailed(ctx context.Context, pub logging.Publisher, session, msgType string, err error) {
	publish(ctx, pub, EventDispatchFailed, logging.SeverityError, logging.SessionRef(session), MessagePayload{Type: msgType, Error: errorText(err)})
}

// Throttled publishes a warning for a dropped message.
func Throttled(ctx context.Context, pub logging.Publisher, session, msgType string) {
	publish(ctx, pub, EventThrottled, logging.SeverityWarn, logging.SessionRef(session), MessagePayload{Type: msgType})
}

// Unauthorized publishes a warning for a gated message from an unauthenticated session.
func Unauthorized(ctx context.Context, pub logging.Publisher, session, msgType string) {
	publish(ctx, pub, EventUnauthorized, logging.SeverityWarn, logging.SessionRef(session), MessagePayload{Type: msgType})
}

// InactiveSession publishes a warning for a command whose session is gone.
func InactiveSession(ctx context.Context, pub logging.Publisher, session, command string) {
	publish(ctx, pub, EventInactiveSession, logging.SeverityWarn, logging.SessionRef(session), MessagePayload{Type: command})
}

// ConnectionRefused publishes a warning for a refused handshake.
func ConnectionRefused(ctx context.Context, pub logging.Publisher, payload RefusalPayload) {
	publish(ctx, pub, EventConnectionRefused, logging.SeverityWarn, logging.EntityRef{Kind: logging.EntityKindSession}, payload)
}

// MessageTrace publishes a debug trace for message handling.
func MessageTrace(ctx context.Context, pub logging.Publisher, session string, payload TracePayload) {
	publish(ctx, pub, EventMessageTrace, logging.SeverityDebug, logging.SessionRef(session), payload)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
