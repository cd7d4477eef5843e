package world

// SlotPool hands out dense integer ids, lowest free first. A capacity of zero
// means the pool grows on demand.
type SlotPool struct {
	free     []bool
	capacity int
}

func NewSlotPool(capacity int) *SlotPool {
	pool := &SlotPool{capacity: capacity}
	if capacity > 0 {
		pool.free = make([]bool, capacity)
		for i := range pool.free {
			pool.free[i] = true
		}
	}
	return pool
}

// Acquire reserves the lowest free slot. It reports false when a bounded pool is exhausted.
func (p *SlotPool) Acquire() (int, bool) {
	for i, free := range p.free {
		if free {
			p.free[i] = false
			return i, true
		}
	}
	if p.capacity > 0 {
		return -1, false
	}
	p.free = append(p.free, false)
	return len(p.free) - 1, true
}

// Release returns a slot to the pool. Unknown slots are ignored.
func (p *SlotPool) Release(slot int) {
	if slot < 0 || slot >= len(p.free) {
		return
	}
	p.free[slot] = true
}

func (p *SlotPool) InUse() int {
	used := 0
	for _, free := range p.free {
		if !free {
			used++
		}
	}
	return used
}
