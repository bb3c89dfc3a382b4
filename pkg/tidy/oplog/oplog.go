// Package oplog defines the operation records emitted by the tidy engine
// and the Logger interface that receives them. Journals, run history and
// the application log all consume the same stream.
package oplog

import "sync"

// Kind tags an operation record.
type Kind string

// Operation kinds emitted by the engine.
const (
	KindScan      Kind = "SCAN"
	KindMove      Kind = "MOVE"
	KindDelete    Kind = "DELETE"
	KindRename    Kind = "RENAME"
	KindDuplicate Kind = "DUPLICATE"
	KindVersion   Kind = "VERSION"
	KindError     Kind = "ERROR"
)

// Record is a single structured operation record.
type Record struct {
	Kind    Kind   `json:"kind"`
	Source  string `json:"source,omitempty"`
	Dest    string `json:"dest,omitempty"`
	Message string `json:"message"`
}

// Logger receives operation records. Implementations must be safe for
// concurrent use.
type Logger interface {
	LogOperation(Record)
}

// Func adapts a function to the Logger interface.
type Func func(Record)

// LogOperation calls f(r).
func (f Func) LogOperation(r Record) {
	f(r)
}

// Nop discards every record.
var Nop Logger = Func(func(Record) {})

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}

type multi []Logger

func (m multi) LogOperation(r Record) {
	for _, l := range m {
		l.LogOperation(r)
	}
}

// Multi fans records out to every non-nil logger.
func Multi(loggers ...Logger) Logger {
	var out multi
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	switch len(out) {
	case 0:
		return Nop
	case 1:
		return out[0]
	}
	return out
}

// Collector keeps every record in memory.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// LogOperation appends r.
func (c *Collector) LogOperation(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Count returns the number of records of the given kind.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Kind == kind {
			n++
		}
	}
	return n
}
