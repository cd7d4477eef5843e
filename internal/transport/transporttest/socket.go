// Package transporttest provides an in-memory socket for tests.
package transporttest

import (
	"sync"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
)

// Socket records every frame written to it. The zero value is open.
type Socket struct {
	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	code    int
	reason  string
	sendErr error
}

func NewSocket() *Socket {
	return &Socket{}
}

func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.frames = append(s.frames, append([]byte(nil), data...))
	return nil
}

func (s *Socket) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Socket) Close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.code = code
		s.reason = reason
	}
	return nil
}

// FailSends makes every later Send return err.
func (s *Socket) FailSends(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

// CloseCode reports the code passed to the first Close call.
func (s *Socket) CloseCode() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, s.reason
}

// Frames decodes every recorded frame. Frames that fail to decode are skipped.
func (s *Socket) Frames() []proto.Envelope {
	s.mu.Lock()
	raw := append([][]byte(nil), s.frames...)
	s.mu.Unlock()
	envelopes := make([]proto.Envelope, 0, len(raw))
	for _, frame := range raw {
		envelope, err := proto.Decode(frame)
		if err != nil {
			continue
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes
}

// Types lists the message type of every recorded frame in order.
func (s *Socket) Types() []string {
	frames := s.Frames()
	types := make([]string, len(frames))
	for i, frame := range frames {
		types[i] = frame.Type
	}
	return types
}

// Find returns the first frame of msgType.
func (s *Socket) Find(msgType string) (proto.Envelope, bool) {
	for _, frame := range s.Frames() {
		if frame.Type == msgType {
			return frame, true
		}
	}
	return proto.Envelope{}, false
}

// Count reports how many frames of msgType were recorded.
func (s *Socket) Count(msgType string) int {
	n := 0
	for _, frame := range s.Frames() {
		if frame.Type == msgType {
			n++
		}
	}
	return n
}

// Reset discards recorded frames.
func (s *Socket) Reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}
