// Package metrics collects operational metrics about searches and commits.
//
// Components record measurements on a Sink. The default Sink is a no-op value,
// constructed where it is needed: components never share a global collector
// unless one is explicitly bound.
package metrics

import (
	"time"
)

// Well-known metric names
const (
	SearchCount   = "search_count"
	SearchLatency = "search_latency_ms"
	CommitCount   = "commit_count"
	CommitLatency = "commit_latency_ms"
	StagedObjects = "staged_objects"
)

// Sink receives measurements.
//
// Tags qualify a measurement. A given metric name should always be recorded with the same set of tag keys.
type Sink interface {
	// Inc increments a counter
	Inc(name string, tags map[string]string)

	// Add adds some value to a counter
	Add(name string, value int64, tags map[string]string)

	// Since feeds a millisecs timing measurement from some start time
	Since(name string, start time.Time, tags map[string]string)
}

var _ Sink = Nop{}

// Nop is a Sink which discards all measurements
type Nop struct{}

// NewNop builds a no-op Sink
func NewNop() Sink { return Nop{} }

// Inc does nothing
func (Nop) Inc(string, map[string]string) {}

// Add does nothing
func (Nop) Add(string, int64, map[string]string) {}

// Since does nothing
func (Nop) Since(string, time.Time, map[string]string) {}

// OrNop yields the sink, or a no-op sink when nil
func OrNop(s Sink) Sink {
	if s == nil {
		return NewNop()
	}
	return s
}

func millis(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
