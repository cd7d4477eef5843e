// Package outbound batches the replies produced while handling one inbound
// message.
package outbound

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/transport"
)

type entry struct {
	msgType string
	payload []any
}

// Queue collapses duplicate envelopes. An envelope whose type and payload
// match an earlier one keeps the earlier position and takes the later value.
type Queue struct {
	socket transport.Socket
	order  []string
	items  map[string]entry
}

func NewQueue(socket transport.Socket) *Queue {
	return &Queue{socket: socket, items: make(map[string]entry)}
}

func (q *Queue) Enqueue(msgType string, payload ...any) {
	key := dedupeKey(msgType, payload)
	if _, exists := q.items[key]; !exists {
		q.order = append(q.order, key)
	}
	q.items[key] = entry{msgType: msgType, payload: payload}
}

// Len reports pending envelopes.
func (q *Queue) Len() int { return len(q.order) }

// Flush sends pending envelopes in order while the socket stays open and
// reports how many were written. The queue is empty afterwards.
func (q *Queue) Flush() int {
	defer q.reset()
	if q.socket == nil {
		return 0
	}
	sent := 0
	for _, key := range q.order {
		if !q.socket.Open() {
			break
		}
		item := q.items[key]
		data, err := proto.Encode(item.msgType, item.payload...)
		if err != nil {
			continue
		}
		if err := q.socket.Send(data); err != nil {
			break
		}
		sent++
	}
	return sent
}

func (q *Queue) reset() {
	q.order = q.order[:0]
	clear(q.items)
}

// dedupeKey sorts map keys so equal map payloads share a key.
func dedupeKey(msgType string, payload []any) string {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(payload); err != nil {
		return msgType + ":" + fmt.Sprint(payload...)
	}
	return msgType + ":" + buf.String()
}
