package proto

import (
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformedEnvelope reports a frame that is not a [type, payload] array.
	ErrMalformedEnvelope = eris.New("malformed envelope")
	// ErrUnknownType reports an envelope whose type token is not in the client vocabulary.
	ErrUnknownType = eris.New("unknown message type")
	// ErrSchema reports a payload that does not match its type's schema.
	ErrSchema = eris.New("payload does not match schema")
)

// Envelope is the wire unit exchanged in both directions.
type Envelope struct {
	Type    string
	Payload []any
}

// Encode renders [msgType, payload] as msgpack. A nil payload is sent as an
// empty array so clients can always index into it.
func Encode(msgType string, payload ...any) ([]byte, error) {
	if payload == nil {
		payload = []any{}
	}
	data, err := msgpack.Marshal([]any{msgType, payload})
	if err != nil {
		return nil, eris.Wrapf(err, "encode %q envelope", msgType)
	}
	return data, nil
}

// Decode parses a msgpack frame into an Envelope. Non-array payloads decode
// as empty.
func Decode(data []byte) (Envelope, error) {
	var raw any
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return Envelope{}, eris.Wrap(ErrMalformedEnvelope, err.Error())
	}
	items, ok := raw.([]any)
	if !ok || len(items) < 1 {
		return Envelope{}, ErrMalformedEnvelope
	}
	env := Envelope{Type: typeToken(items[0])}
	if len(items) > 1 {
		if payload, ok := items[1].([]any); ok {
			env.Payload = payload
		}
	}
	if env.Payload == nil {
		env.Payload = []any{}
	}
	return env, nil
}

func typeToken(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		if n, ok := toFloat(v); ok {
			return formatNumber(n)
		}
		return ""
	}
}

// Number reads payload entry i as a float64.
func (e Envelope) Number(i int) (float64, bool) {
	return toFloat(arg(e.Payload, i))
}

// Text reads payload entry i as a string.
func (e Envelope) Text(i int) (string, bool) {
	s, ok := arg(e.Payload, i).(string)
	return s, ok
}
