package core

import (
	"context"

	"github.com/oneconcern/termstore/pkg/branchpath"
	"github.com/oneconcern/termstore/pkg/dlogger"
	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/registry"
	"github.com/oneconcern/termstore/pkg/revision"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultCacheSize = 1024

var _ registry.Source = &RepositoryContext{}

// RepositoryContext is the top-level context bound to one repository.
//
// Its binding layer is the root of the chain: it is shared by all the branch
// contexts opened from it.
type RepositoryContext struct {
	id  string
	reg *registry.Registry
	l   *zap.Logger

	sink        metrics.Sink
	configurers []ContextConfigurer
	info        InfoProvider
	health      HealthChecker
	notifier    Notifier
	hooks       PreCommitHooks
	guards      *Guards
	ids         IDGenerator
	cacheSize   int
	txDefaults  []TransactionOption
	_           struct{}
}

// NewRepository builds a repository context over a revision index
func NewRepository(id string, index revision.Index, opts ...RepositoryOption) *RepositoryContext {
	r := &RepositoryContext{
		id:        id,
		reg:       registry.New(nil),
		l:         dlogger.OrNop(nil),
		guards:    DefaultGuards(),
		cacheSize: defaultCacheSize,
	}
	for _, apply := range opts {
		apply(r)
	}
	r.l = r.l.With(zap.String("repository", id))

	registry.Bind[*RepositoryContext](r, r)
	registry.Bind[*zap.Logger](r, r.l)
	registry.Bind[revision.Index](r, index)
	registry.Bind[revision.BranchDirectory](r, index)
	registry.Bind[revision.SearcherFactory](r, index)
	registry.Bind[revision.Committer](r, index)
	if manager, ok := index.(revision.BranchManager); ok {
		registry.Bind[revision.BranchManager](r, manager)
	}
	registry.Bind[metrics.Sink](r, r.sink)
	registry.Bind[InfoProvider](r, r.info)
	registry.Bind[HealthChecker](r, r.health)
	registry.Bind[Notifier](r, r.notifier)
	registry.Bind[*Guards](r, r.guards)
	registry.Bind[IDGenerator](r, r.ids)
	if len(r.hooks) > 0 {
		registry.Bind[PreCommitHooks](r, r.hooks)
	}
	return r
}

// ID of the repository
func (r *RepositoryContext) ID() string { return r.id }

// Registry yields the binding layer of this context
func (r *RepositoryContext) Registry() *registry.Registry { return r.reg }

// Logger for this context
func (r *RepositoryContext) Logger() *zap.Logger { return r.l }

// Index the repository runs against
func (r *RepositoryContext) Index() revision.Index {
	return registry.MustService[revision.Index](r)
}

// Info describes the repository. Unless an InfoProvider is bound, it is derived from the index.
func (r *RepositoryContext) Info(ctx context.Context) (model.RepositoryInfo, error) {
	if p, ok := registry.OptionalService[InfoProvider](r); ok {
		return p.Info(ctx, r.id)
	}

	info := model.RepositoryInfo{ID: r.id}
	info.Health, info.Diagnosis = r.checker().Health(ctx)

	main, err := registry.MustService[revision.BranchDirectory](r).Branch(ctx, model.MainPath)
	if err != nil {
		return info, err
	}
	info.Head = main.HeadTimestamp
	info.Branches = 1

	if manager, ok := registry.OptionalService[revision.BranchManager](r); ok {
		branches, err := manager.Branches(ctx)
		if err != nil {
			return info, err
		}
		info.Branches = 0
		for _, b := range branches {
			if !b.Deleted {
				info.Branches++
			}
		}
	}
	return info, nil
}

// Health of the repository
func (r *RepositoryContext) Health(ctx context.Context) model.Health {
	h, _ := r.checker().Health(ctx)
	return h
}

// Diagnosis explains the health of the repository
func (r *RepositoryContext) Diagnosis(ctx context.Context) string {
	_, d := r.checker().Health(ctx)
	return d
}

func (r *RepositoryContext) checker() HealthChecker {
	if h, ok := registry.OptionalService[HealthChecker](r); ok {
		return h
	}
	return indexHealth{dir: registry.MustService[revision.BranchDirectory](r)}
}

// indexHealth is GREEN as long as the index knows about MAIN
type indexHealth struct {
	dir revision.BranchDirectory
}

func (h indexHealth) Health(ctx context.Context) (model.Health, string) {
	main, err := h.dir.Branch(ctx, model.MainPath)
	if err != nil {
		return model.HealthRed, err.Error()
	}
	if main.Deleted {
		return model.HealthRed, "main branch is unavailable"
	}
	return model.HealthGreen, ""
}

// OpenBranch opens a branch context over the snapshot addressed by a path expression.
//
// All branches addressed by the path must exist and not be deleted. The returned context
// reports the requested path verbatim.
func (r *RepositoryContext) OpenBranch(ctx context.Context, pth string) (*BranchContext, error) {
	endpoints, err := branchpath.CheckAll(ctx, registry.MustService[revision.BranchDirectory](r), pth)
	if err != nil {
		return nil, err
	}

	searcher, err := registry.MustService[revision.SearcherFactory](r).Searcher(ctx, pth)
	if err != nil {
		return nil, err
	}

	bc, err := NewBranchContext(r, pth, searcher, endpoints...)
	if err != nil {
		return nil, err
	}

	for _, configurer := range r.configurers {
		if err := configurer.Configure(ctx, bc); err != nil {
			return nil, multierr.Append(err, bc.Close())
		}
	}
	bc.l.Debug("branch context opened")
	return bc, nil
}

// WithBranchContext runs a function against a branch context, which is closed afterwards
func (r *RepositoryContext) WithBranchContext(ctx context.Context, pth string, fn func(*BranchContext) error) (err error) {
	bc, err := r.OpenBranch(ctx, pth)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, bc.Close())
	}()
	return fn(bc)
}

// Close the repository context, disposing its bindings. Close may be called several times.
func (r *RepositoryContext) Close() error {
	return r.reg.Dispose()
}
