package bdgr

import "go.uber.org/zap"

// Option for the badger persister
type Option func(*Persister)

// WithInMemory keeps the database in memory only
func WithInMemory(enabled bool) Option {
	return func(p *Persister) {
		p.inMemory = enabled
	}
}

// WithLogger sets a logger for the persister and the underlying database
func WithLogger(l *zap.Logger) Option {
	return func(p *Persister) {
		if l != nil {
			p.l = l
		}
	}
}
