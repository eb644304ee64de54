package core

import (
	"context"
	"time"

	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/registry"
	"github.com/oneconcern/termstore/pkg/revision"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Transaction is the contract of write-scoped contexts
type Transaction interface {
	registry.Source

	Branch() *BranchContext

	Add(ctx context.Context, doc model.Document) (string, error)
	Update(ctx context.Context, old, doc model.Revision) error
	Replace(ctx context.Context, doc model.Document) error
	Delete(ctx context.Context, doc model.Document, force bool) error

	Lookup(ctx context.Context, id, typ string) (model.Revision, error)
	LookupAll(ctx context.Context, ids []string, typ string) (map[string]model.Revision, error)
	LookupIfExists(ctx context.Context, id, typ string) (model.Revision, bool, error)

	Commit(ctx context.Context, opts ...CommitOption) (*model.Commit, error)
	Rollback()
	IsDirty() bool
	StagedCount() int
	ClearContents(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Transaction         = &TransactionContext{}
	_ registry.Disposable = &TransactionContext{}
)

// TransactionContext is a write-scoped context: it stages mutations on a branch, then commits them.
//
// Staging never performs any write: mutations are sent to the committer on Commit only.
// Reads start from the snapshot of the branch context. After each successful commit,
// they move to the new head of the branch, while the branch context keeps its own snapshot.
// A TransactionContext is used by a single caller at a time.
type TransactionContext struct {
	branch   *BranchContext
	reg      *registry.Registry
	l        *zap.Logger
	searcher revision.Searcher

	author        string
	comment       string
	parentLock    string
	groupID       string
	notify        bool
	commitOnClose bool

	staging *StagingArea
	closed  bool
	_       struct{}
}

func newTransaction(_ context.Context, branch *BranchContext, opts ...TransactionOption) *TransactionContext {
	tx := &TransactionContext{
		branch:   branch,
		reg:      branch.Registry().Inject(),
		searcher: branch.Searcher(),
		author:   DefaultAuthor,
		notify:   true,
		staging:  NewStagingArea(),
	}
	for _, apply := range opts {
		apply(tx)
	}
	tx.l = branch.Logger().With(zap.String("author", tx.author))

	registry.Bind[*TransactionContext](tx, tx)
	registry.Bind[Transaction](tx, tx)
	registry.Bind[*StagingArea](tx, tx.staging)
	registry.Bind[*zap.Logger](tx, tx.l)
	return tx
}

// Registry yields the binding layer of this context
func (t *TransactionContext) Registry() *registry.Registry { return t.reg }

// Logger for this context
func (t *TransactionContext) Logger() *zap.Logger { return t.l }

// Branch context this transaction was opened from
func (t *TransactionContext) Branch() *BranchContext { return t.branch }

// Searcher the transaction reads from: the snapshot of the branch context until the first commit,
// then the head of the branch as of the last commit
func (t *TransactionContext) Searcher() revision.Searcher { return t.searcher }

// Author of commits, unless overridden by a commit option
func (t *TransactionContext) Author() string { return t.author }

// ParentLock is the description of the lock held by the caller, if any
func (t *TransactionContext) ParentLock() string { return t.parentLock }

// IsNotificationEnabled tells if commits are notified
func (t *TransactionContext) IsNotificationEnabled() bool { return t.notify }

// SetNotificationEnabled toggles commit notifications
func (t *TransactionContext) SetNotificationEnabled(enabled bool) { t.notify = enabled }

// StagedCount is the number of pending mutations
func (t *TransactionContext) StagedCount() int { return t.staging.Count() }

// IsDirty tells if there is at least one pending mutation
func (t *TransactionContext) IsDirty() bool { return !t.staging.IsEmpty() }

// IsClosed tells if the transaction has been closed
func (t *TransactionContext) IsClosed() bool { return t.closed }

func (t *TransactionContext) checkOpen() error {
	if t.closed {
		return status.ErrClosed.WrapMessage("transaction on %q", t.branch.Path())
	}
	return nil
}

// Add stages a new object.
//
// Revision-tracked objects without an identifier get one derived, when they support it.
// The identifier of revision-tracked objects is returned. It is empty for other documents.
func (t *TransactionContext) Add(_ context.Context, doc model.Document) (string, error) {
	if err := t.checkOpen(); err != nil {
		return "", err
	}
	if doc == nil {
		return "", status.ErrInvalidArgument.WrapMessage("nil document")
	}
	if doc.DocumentType() == "" {
		return "", status.ErrInvalidArgument.WrapMessage("document %q has no type", doc.DocumentID())
	}

	if !model.IsRevision(doc) {
		if doc.DocumentID() == "" {
			return "", status.ErrInvalidArgument.WrapMessage("%s document has no key", doc.DocumentType())
		}
		t.staging.StageNew(doc)
		return "", nil
	}

	if doc.DocumentID() == "" {
		assigner, ok := doc.(model.IDAssigner)
		if !ok {
			return "", status.ErrInvalidArgument.WrapMessage("%s has no identifier", doc.DocumentType())
		}
		doc = assigner.WithID(t.ids().NewID(doc.DocumentType()))
	}
	t.staging.StageNew(doc)
	return doc.DocumentID(), nil
}

func (t *TransactionContext) ids() IDGenerator {
	if g, ok := registry.OptionalService[IDGenerator](t); ok {
		return g
	}
	return NewKSUIDGenerator()
}

// Update stages a change between two revisions of the same object
func (t *TransactionContext) Update(_ context.Context, old, doc model.Revision) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if old == nil || doc == nil {
		return status.ErrInvalidArgument.WrapMessage("nil revision")
	}
	if revision.KeyOf(old) != revision.KeyOf(doc) {
		return status.ErrInvalidArgument.WrapMessage("cannot update %v into %v", revision.KeyOf(old), revision.KeyOf(doc))
	}
	t.staging.StageChange(old, doc)
	return nil
}

// Replace stages a new version of a plain, non revision-tracked document
func (t *TransactionContext) Replace(_ context.Context, doc model.Document) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if doc == nil || doc.DocumentID() == "" {
		return status.ErrInvalidArgument.WrapMessage("document has no key")
	}
	if model.IsRevision(doc) {
		return status.ErrInvalidArgument.WrapMessage("%v is revision-tracked: use Update", revision.KeyOf(doc))
	}
	t.staging.StageChange(doc, doc)
	return nil
}

// Delete stages the removal of an object.
//
// Unless forced, the removal is first evaluated by the domain guards bound to the context.
// It fails with status.ErrDomainGuard when a guard blocks the removal.
func (t *TransactionContext) Delete(ctx context.Context, doc model.Document, force bool) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if doc == nil {
		return status.ErrInvalidArgument.WrapMessage("nil document")
	}

	if !force {
		if guards, ok := registry.OptionalService[*Guards](t); ok {
			res, err := guards.Evaluate(ctx, t, doc)
			if err != nil {
				return err
			}
			if res.HasBlocking() {
				return status.ErrDomainGuard.Wrap(&GuardViolationError{Result: res})
			}
			for _, v := range res.Violations {
				t.l.Warn("guard warning", zap.String("guard", v.Guard), zap.String("violation", v.Message))
			}
		}
	}
	t.staging.StageRemove(doc)
	return nil
}

// Lookup a revision: staged new objects first, then the snapshot of the branch
func (t *TransactionContext) Lookup(ctx context.Context, id, typ string) (model.Revision, error) {
	rev, ok, err := t.LookupIfExists(ctx, id, typ)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrNotFound.WrapMessage("%s %q on %q", typ, id, t.branch.Path())
	}
	return rev, nil
}

// LookupIfExists looks up a revision, and tells if it was found
func (t *TransactionContext) LookupIfExists(ctx context.Context, id, typ string) (model.Revision, bool, error) {
	if doc, ok := t.staging.NewObject(typ, id); ok {
		rev, isRev := doc.(model.Revision)
		return rev, isRev, nil
	}
	doc, err := t.searcher.Get(ctx, typ, id)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	rev, isRev := doc.(model.Revision)
	return rev, isRev, nil
}

// LookupAll revisions of a type. Missing ids are omitted from the result.
func (t *TransactionContext) LookupAll(ctx context.Context, ids []string, typ string) (map[string]model.Revision, error) {
	result := make(map[string]model.Revision, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if doc, ok := t.staging.NewObject(typ, id); ok {
			if rev, isRev := doc.(model.Revision); isRev {
				result[id] = rev
			}
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	docs, err := t.searcher.GetAll(ctx, typ, missing)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if rev, isRev := doc.(model.Revision); isRev {
			result[rev.DocumentID()] = rev
		}
	}
	return result, nil
}

// ClearContents stages the removal of every revision-tracked object of the branch.
//
// Plain documents are not affected. Staged new revisions are discarded as well.
func (t *TransactionContext) ClearContents(ctx context.Context) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	docs, err := t.searcher.Search(ctx, revision.MatchAll())
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if model.IsRevision(doc) {
			t.staging.StageRemove(doc)
		}
	}
	for _, doc := range t.staging.NewObjects() {
		if model.IsRevision(doc) {
			t.staging.StageRemove(doc)
		}
	}
	return nil
}

// Rollback discards all pending mutations. The transaction remains open.
func (t *TransactionContext) Rollback() {
	t.staging.Reset()
}

// Commit pending mutations to the branch.
//
// Commit returns a nil commit, without reaching the committer, when there is no pending mutation.
// When the commit fails, pending mutations are kept: the caller may retry or roll back.
// When the commit succeeds but the new head cannot be read, the commit is returned together with the error.
func (t *TransactionContext) Commit(ctx context.Context, opts ...CommitOption) (*model.Commit, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if t.staging.IsEmpty() {
		return nil, nil
	}

	settings := commitSettings{comment: t.comment, author: t.author, parentLock: t.parentLock}
	for _, apply := range opts {
		apply(&settings)
	}

	req := t.staging.Request()
	req.Branch = t.branch.Ref().Path()
	req.Author = settings.author
	req.Comment = settings.comment
	req.ParentLock = settings.parentLock
	req.GroupID = t.groupID

	if hooks, ok := registry.OptionalService[PreCommitHooks](t); ok {
		for _, hook := range hooks {
			if err := hook.PreCommit(ctx, t, &req); err != nil {
				return nil, err
			}
		}
	}

	sink := registry.ProviderOf[metrics.Sink](t)
	tags := map[string]string{"branch": req.Branch}
	start := time.Now()

	commit, err := registry.MustService[revision.Committer](t).Commit(ctx, req)
	if err != nil {
		return nil, status.ErrCommitFailed.WrapWithLog(t.l, err, zap.Int("objects", req.Size()))
	}
	t.staging.Reset()
	refreshErr := t.refresh(ctx)

	if s, err := sink.Get(); err == nil {
		s.Inc(metrics.CommitCount, tags)
		s.Add(metrics.StagedObjects, int64(req.Size()), tags)
		s.Since(metrics.CommitLatency, start, tags)
	}
	t.l.Info("committed",
		zap.String("commit", commit.ID),
		zap.Int64("timestamp", commit.Timestamp),
		zap.Int("objects", req.Size()),
	)

	if t.notify {
		t.publish(ctx, commit)
	}
	if refreshErr != nil {
		return &commit, refreshErr
	}
	return &commit, nil
}

// refresh moves reads to the current head of the branch
func (t *TransactionContext) refresh(ctx context.Context) error {
	pth := t.branch.Ref().Path()
	searcher, err := registry.MustService[revision.SearcherFactory](t).Searcher(ctx, pth)
	if err != nil {
		return status.ErrStaleSnapshot.WrapWithLog(t.l, err, zap.String("branch", pth))
	}
	sink, _ := registry.OptionalService[metrics.Sink](t)
	searcher.AttachMetrics(metrics.OrNop(sink))
	t.searcher = searcher
	registry.Bind[revision.Searcher](t, searcher)
	return nil
}

func (t *TransactionContext) publish(ctx context.Context, commit model.Commit) {
	notifier, ok := registry.OptionalService[Notifier](t)
	if !ok {
		return
	}
	n := model.CommitNotification{Repository: t.branch.Repository().ID(), Commit: commit}
	if err := notifier.Notify(ctx, n); err != nil {
		t.l.Warn("commit notification failed", zap.String("commit", commit.ID), zap.Error(err))
	}
}

// Dispose the bindings of this transaction
func (t *TransactionContext) Dispose() error {
	return t.reg.Dispose()
}

// Close the transaction.
//
// Pending mutations are committed when the transaction was opened WithCommitOnClose(true),
// and discarded otherwise. Close may be called several times.
func (t *TransactionContext) Close(ctx context.Context) error {
	if t.closed {
		return nil
	}

	var err error
	if t.IsDirty() {
		if t.commitOnClose {
			_, err = t.Commit(ctx)
		} else {
			t.l.Warn("discarding pending changes on close", zap.Int("objects", t.staging.Count()))
			t.staging.Reset()
		}
	}
	t.closed = true
	return multierr.Append(err, t.Dispose())
}
