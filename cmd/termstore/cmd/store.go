package cmd

import (
	"context"

	"github.com/oneconcern/termstore/pkg/core"
	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/registry"
	"github.com/oneconcern/termstore/pkg/revision"
	"github.com/oneconcern/termstore/pkg/revision/bdgr"
	"github.com/oneconcern/termstore/pkg/revision/instrumented"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// store holds the live objects of a repository, for the duration of a command
type store struct {
	persister *bdgr.Persister
	index     *revision.MemoryIndex
	repo      *core.RepositoryContext
	sink      *metrics.Prometheus
}

// openStore loads the repository history from the persistent store, then builds a repository context over it
func openStore(ctx context.Context) (*store, error) {
	persister, err := bdgr.New(settings.StoreDir,
		bdgr.WithInMemory(settings.InMemory()),
		bdgr.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	index := revision.NewMemoryIndex(
		revision.WithLogger(logger),
		revision.WithPersister(persister),
	)
	if err = index.Load(ctx); err != nil {
		return nil, multierr.Append(err, index.Close())
	}

	s := &store{persister: persister, index: index}
	opts := []core.RepositoryOption{
		core.RepositoryLogger(logger),
		core.RepositoryCacheSize(settings.CacheSize),
		core.RepositoryTransactionDefaults(core.WithCommitOnClose(settings.CommitOnClose)),
	}
	if settings.Metrics.Enabled {
		s.sink = metrics.NewPrometheus(
			metrics.WithNamespace(settings.Metrics.Namespace),
			metrics.WithLogger(logger),
		)
		opts = append(opts, core.RepositoryMetrics(s.sink))
	}

	traced := instrumented.NewIndex(opentracing.GlobalTracer(), logger, index)
	s.repo = core.NewRepository(settings.Repository, traced, opts...)
	return s, nil
}

// Close the repository context, then the persistent store
func (s *store) Close() error {
	s.report()
	return multierr.Append(s.repo.Close(), s.index.Close())
}

func (s *store) report() {
	if s.sink == nil {
		return
	}
	families, err := s.sink.Gatherer().Gather()
	if err != nil {
		logger.Warn("gathering metrics", zap.Error(err))
		return
	}
	for _, family := range families {
		var total float64
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		logger.Info("metric", zap.String("name", family.GetName()), zap.Float64("total", total))
	}
}

// branches yields the branch manager bound to the repository
func (s *store) branches() revision.BranchManager {
	return registry.MustService[revision.BranchManager](s.repo)
}

func withStore(ctx context.Context, fn func(*store) error) (err error) {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	return fn(s)
}
