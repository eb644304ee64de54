package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

var _ Sink = &Memory{}

// Memory is a Sink which retains counters and timings in memory.
//
// Measurements are keyed by name and tags, e.g. "search_count{branch=MAIN}".
type Memory struct {
	mx       sync.Mutex
	counters map[string]int64
	timings  map[string][]float64
}

// NewMemory builds an in-memory Sink
func NewMemory() *Memory {
	return &Memory{
		counters: make(map[string]int64),
		timings:  make(map[string][]float64),
	}
}

// Inc increments a counter
func (m *Memory) Inc(name string, tags map[string]string) {
	m.Add(name, 1, tags)
}

// Add adds some value to a counter
func (m *Memory) Add(name string, value int64, tags map[string]string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.counters[Key(name, tags)] += value
}

// Since records a timing since start
func (m *Memory) Since(name string, start time.Time, tags map[string]string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	k := Key(name, tags)
	m.timings[k] = append(m.timings[k], millis(start))
}

// Counter value for a name and tags
func (m *Memory) Counter(name string, tags map[string]string) int64 {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.counters[Key(name, tags)]
}

// Timings recorded for a name and tags
func (m *Memory) Timings(name string, tags map[string]string) int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return len(m.timings[Key(name, tags)])
}

// Key builds a canonical key for a metric name and its tags
func Key(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := sortedKeys(tags)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	b.WriteByte('}')
	return b.String()
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
