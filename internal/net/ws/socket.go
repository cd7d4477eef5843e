package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/transport"
)

var (
	ErrSocketClosed = eris.New("socket closed")
	ErrSendBacklog  = eris.New("socket send backlog full")
)

const (
	defaultSendBuffer   = 256
	defaultPingInterval = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	writeWait           = 10 * time.Second
)

// socket adapts a gorilla connection to transport.Socket. Frames are queued
// on a buffered channel and written by a single pump goroutine, so Send never
// blocks the simulation.
type socket struct {
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	pingInterval time.Duration

	closeOnce   sync.Once
	closed      atomic.Bool
	closeCode   int
	closeReason string
}

func newSocket(conn *websocket.Conn, buffer int, pingInterval time.Duration) *socket {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &socket{
		conn:         conn,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
	}
}

func (s *socket) Send(data []byte) error {
	if s.closed.Load() {
		return ErrSocketClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return ErrSendBacklog
	}
}

func (s *socket) Open() bool {
	return !s.closed.Load()
}

// Close asks the pump to flush queued frames and finish with a close frame
// carrying code. Only the first call takes effect.
func (s *socket) Close(code int, reason string) error {
	s.closeOnce.Do(func() {
		s.closeCode = code
		s.closeReason = reason
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}

// code is the close code chosen by the server, or zero.
func (s *socket) code() int {
	if !s.closed.Load() {
		return 0
	}
	return s.closeCode
}

func (s *socket) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data := <-s.send:
			if err := s.write(data); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		case <-s.done:
			s.drain()
			code := s.closeCode
			if code == 0 || code == websocket.CloseAbnormalClosure {
				code = transport.CloseNormal
			}
			message := websocket.FormatCloseMessage(code, s.closeReason)
			s.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
			return
		}
	}
}

func (s *socket) drain() {
	for {
		select {
		case data := <-s.send:
			if err := s.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *socket) write(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

var _ transport.Socket = (*socket)(nil)
