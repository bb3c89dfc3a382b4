package oplog

import "sync"

// DefaultRingSize is the number of records a Ring keeps by default.
const DefaultRingSize = 100

// Ring keeps the most recent records for live display.
type Ring struct {
	mu      sync.RWMutex
	records []Record
	start   int // index of the oldest record
	count   int
}

// NewRing creates a ring holding up to size records.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{records: make([]Record, size)}
}

// LogOperation adds r, overwriting the oldest record when full.
func (b *Ring) LogOperation(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[(b.start+b.count)%len(b.records)] = r
	if b.count < len(b.records) {
		b.count++
	} else {
		b.start = (b.start + 1) % len(b.records)
	}
}

// Last returns up to n of the most recent records, newest last.
func (b *Ring) Last(n int) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = max(0, min(n, b.count))
	out := make([]Record, n)
	offset := b.count - n
	for i := range n {
		out[i] = b.records[(b.start+offset+i)%len(b.records)]
	}
	return out
}

// Len returns the number of records held.
func (b *Ring) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
