package core

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/registry"
	"github.com/oneconcern/termstore/pkg/revision"
	"go.uber.org/zap"
)

var (
	_ registry.Source     = &BranchContext{}
	_ registry.Disposable = &BranchContext{}
)

// BranchContext is a read-scoped context bound to one snapshot of a branch.
//
// The snapshot never changes for the lifetime of the context: a new context must be opened to observe newer commits.
type BranchContext struct {
	repo      *RepositoryContext
	reg       *registry.Registry
	l         *zap.Logger
	path      string
	ref       revision.Ref
	endpoints []model.Branch
	searcher  revision.Searcher
	cache     *lru.Cache[revision.Key, model.Document]
	_         struct{}
}

// NewBranchContext builds a branch context over a searcher.
//
// It fails with status.ErrBranchDeleted if the searcher reads from a deleted branch: in that case,
// nothing is bound and no metrics sink is attached to the searcher.
//
// The path is the path expression requested by the caller. Endpoints are the branches resolved from that path.
func NewBranchContext(repo *RepositoryContext, pth string, searcher revision.Searcher, endpoints ...model.Branch) (*BranchContext, error) {
	ref := searcher.Ref()
	if ref.IsDeletedBranch() {
		return nil, status.ErrBranchDeleted.WrapMessage("branch %q", ref.Path())
	}

	bc := &BranchContext{
		repo:      repo,
		reg:       repo.Registry().Inject(),
		l:         repo.Logger().With(zap.String("branch", pth)),
		path:      pth,
		ref:       ref,
		endpoints: endpoints,
		searcher:  searcher,
	}

	sink, ok := registry.OptionalService[metrics.Sink](repo)
	if !ok {
		sink = metrics.NewNop()
	}
	searcher.AttachMetrics(sink)

	if repo.cacheSize > 0 {
		cache, err := lru.New[revision.Key, model.Document](repo.cacheSize)
		if err != nil {
			return nil, err
		}
		bc.cache = cache
	}

	registry.Bind[metrics.Sink](bc, sink)
	registry.Bind[revision.Searcher](bc, searcher)
	registry.Bind[*zap.Logger](bc, bc.l)
	registry.Bind[*BranchContext](bc, bc)
	return bc, nil
}

// Registry yields the binding layer of this context
func (b *BranchContext) Registry() *registry.Registry { return b.reg }

// Logger for this context
func (b *BranchContext) Logger() *zap.Logger { return b.l }

// Repository this context was opened from
func (b *BranchContext) Repository() *RepositoryContext { return b.repo }

// Path as requested when opening this context
func (b *BranchContext) Path() string { return b.path }

// Ref of the snapshot this context reads from
func (b *BranchContext) Ref() revision.Ref { return b.ref }

// Branch resolved from the path: the last endpoint of a range
func (b *BranchContext) Branch() model.Branch {
	if len(b.endpoints) == 0 {
		return model.Branch{Path: b.ref.Path(), HeadTimestamp: b.ref.Head()}
	}
	return b.endpoints[len(b.endpoints)-1]
}

// RangeEndpoints are all branches resolved from the path, in order: two for a range, one otherwise
func (b *BranchContext) RangeEndpoints() []model.Branch {
	endpoints := make([]model.Branch, len(b.endpoints))
	copy(endpoints, b.endpoints)
	return endpoints
}

// Searcher reading from the snapshot of this context
func (b *BranchContext) Searcher() revision.Searcher { return b.searcher }

// Get a document by type and id
func (b *BranchContext) Get(ctx context.Context, typ, id string) (model.Document, error) {
	k := revision.Key{Type: typ, ID: id}
	if b.cache != nil {
		if doc, ok := b.cache.Get(k); ok {
			return model.CloneDocument(doc), nil
		}
	}
	doc, err := b.searcher.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Add(k, model.CloneDocument(doc))
	}
	return doc, nil
}

// GetAll documents of a type. Missing documents are omitted.
func (b *BranchContext) GetAll(ctx context.Context, typ string, ids []string) ([]model.Document, error) {
	return b.searcher.GetAll(ctx, typ, ids)
}

// Search documents in the snapshot
func (b *BranchContext) Search(ctx context.Context, q revision.Query) ([]model.Document, error) {
	return b.searcher.Search(ctx, q)
}

// OpenTransaction opens a transaction writing to the branch of this context
func (b *BranchContext) OpenTransaction(ctx context.Context, opts ...TransactionOption) (*TransactionContext, error) {
	if b.ref.IsDeletedBranch() {
		return nil, status.ErrBranchDeleted.WrapMessage("branch %q", b.ref.Path())
	}
	if b.ref.IsBase() {
		return nil, status.ErrUnsupportedOperation.WrapMessage("cannot write to the base of branch %q", b.ref.Path())
	}
	if b.reg.IsDisposed() {
		return nil, status.ErrClosed.WrapMessage("branch context %q", b.path)
	}
	return newTransaction(ctx, b, append(b.repo.txDefaults[:len(b.repo.txDefaults):len(b.repo.txDefaults)], opts...)...), nil
}

// Dispose the bindings of this context. The repository context is never disposed.
func (b *BranchContext) Dispose() error {
	return b.reg.Dispose()
}

// Close the context
func (b *BranchContext) Close() error {
	if b.cache != nil {
		b.cache.Purge()
	}
	return b.Dispose()
}
