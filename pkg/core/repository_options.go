package core

import (
	"github.com/oneconcern/termstore/pkg/metrics"
	"go.uber.org/zap"
)

// RepositoryOption is a functor to build a repository context with some options
type RepositoryOption func(*RepositoryContext)

// RepositoryLogger injects a logging facility into the repository and all contexts opened from it
func RepositoryLogger(l *zap.Logger) RepositoryOption {
	return func(r *RepositoryContext) {
		if l != nil {
			r.l = l
		}
	}
}

// RepositoryMetrics binds a metrics sink for all branch contexts opened from the repository
func RepositoryMetrics(sink metrics.Sink) RepositoryOption {
	return func(r *RepositoryContext) {
		r.sink = sink
	}
}

// RepositoryConfigurer registers a configurer, applied to every new branch context
func RepositoryConfigurer(c ContextConfigurer) RepositoryOption {
	return func(r *RepositoryContext) {
		if c != nil {
			r.configurers = append(r.configurers, c)
		}
	}
}

// RepositoryInfoProvider overrides the default repository description
func RepositoryInfoProvider(p InfoProvider) RepositoryOption {
	return func(r *RepositoryContext) {
		r.info = p
	}
}

// RepositoryHealthChecker overrides the default health check
func RepositoryHealthChecker(h HealthChecker) RepositoryOption {
	return func(r *RepositoryContext) {
		r.health = h
	}
}

// RepositoryNotifier publishes commit notifications
func RepositoryNotifier(n Notifier) RepositoryOption {
	return func(r *RepositoryContext) {
		r.notifier = n
	}
}

// RepositoryPreCommitHook registers a hook run before every commit
func RepositoryPreCommitHook(h PreCommitHook) RepositoryOption {
	return func(r *RepositoryContext) {
		if h != nil {
			r.hooks = append(r.hooks, h)
		}
	}
}

// RepositoryGuards sets the domain guards evaluated on non-forced deletes.
//
// The default is DefaultGuards(). A nil value disables guards.
func RepositoryGuards(g *Guards) RepositoryOption {
	return func(r *RepositoryContext) {
		r.guards = g
	}
}

// RepositoryIDGenerator sets the generator of identifiers for new components
func RepositoryIDGenerator(g IDGenerator) RepositoryOption {
	return func(r *RepositoryContext) {
		r.ids = g
	}
}

// RepositoryCacheSize sets the size of the point-read cache of branch contexts. Zero disables the cache.
func RepositoryCacheSize(size int) RepositoryOption {
	return func(r *RepositoryContext) {
		r.cacheSize = size
	}
}

// RepositoryTransactionDefaults sets options applied to every transaction before its own options
func RepositoryTransactionDefaults(opts ...TransactionOption) RepositoryOption {
	return func(r *RepositoryContext) {
		r.txDefaults = append(r.txDefaults, opts...)
	}
}
