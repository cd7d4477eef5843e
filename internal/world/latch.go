package world

// Latch records which observers already received a subject's full state.
// It is cleared when the subject despawns.
type Latch struct {
	observers map[string]struct{}
}

// Mark sets the latch for observerID and reports whether it was previously unset.
func (l *Latch) Mark(observerID string) bool {
	if l.observers == nil {
		l.observers = make(map[string]struct{})
	}
	if _, ok := l.observers[observerID]; ok {
		return false
	}
	l.observers[observerID] = struct{}{}
	return true
}

func (l *Latch) Has(observerID string) bool {
	_, ok := l.observers[observerID]
	return ok
}

// Forget drops a single observer so it receives the full state again.
func (l *Latch) Forget(observerID string) {
	delete(l.observers, observerID)
}

func (l *Latch) Clear() {
	l.observers = nil
}

func (l *Latch) Len() int {
	return len(l.observers)
}
