package revision

import (
	"time"

	"go.uber.org/zap"
)

// Option for the in-memory index
type Option func(*MemoryIndex)

// WithLogger sets a logger for the index
func WithLogger(l *zap.Logger) Option {
	return func(m *MemoryIndex) {
		if l != nil {
			m.l = l
		}
	}
}

// WithPersister makes the index durable
func WithPersister(p Persister) Option {
	return func(m *MemoryIndex) {
		m.persister = p
	}
}

// WithTimeSource sets the time source used to stamp branches and commits
func WithTimeSource(now func() time.Time) Option {
	return func(m *MemoryIndex) {
		m.clock = NewClock(now)
	}
}
