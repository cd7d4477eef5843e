package ws

import "github.com/sasha-s/go-deadlock"

// DefaultConnectionLimit is the number of simultaneous sockets one address
// may hold.
const DefaultConnectionLimit = 4

// ConnectionLimit counts open sockets per address.
type ConnectionLimit struct {
	mu     deadlock.Mutex
	max    int
	counts map[string]int
}

// NewConnectionLimit caps each address at max sockets. A non-positive max
// disables the cap.
func NewConnectionLimit(max int) *ConnectionLimit {
	return &ConnectionLimit{max: max, counts: make(map[string]int)}
}

// TryUp reserves a socket for address and reports whether it was under the
// cap. Rejected attempts leave the count unchanged.
func (l *ConnectionLimit) TryUp(address string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.max > 0 && l.counts[address] >= l.max {
		return false
	}
	l.counts[address]++
	return true
}

func (l *ConnectionLimit) Down(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[address] <= 1 {
		delete(l.counts, address)
		return
	}
	l.counts[address]--
}

func (l *ConnectionLimit) Count(address string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[address]
}
