package core

import (
	"context"

	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/registry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	_ Transaction         = &CappedTransaction{}
	_ registry.Disposable = &CappedTransaction{}
)

// CappedTransaction decorates a transaction to commit as soon as the number of staged objects
// reaches some threshold. One logical bulk operation may thus yield several physical commits.
//
// A threshold lower than or equal to 0 disables capping: the decorator then merely forwards calls.
// ClearContents is refused whatever the threshold.
//
// The decorator adds its own binding layer on top of the decorated transaction: the Transaction
// resolved from this layer is the decorator.
type CappedTransaction struct {
	Transaction

	reg       *registry.Registry
	threshold int
	commits   int
	l         *zap.Logger
}

// NewCappedTransaction wraps a transaction with a commit threshold
func NewCappedTransaction(tx Transaction, threshold int) *CappedTransaction {
	l := zap.NewNop()
	if lg, ok := tx.(interface{ Logger() *zap.Logger }); ok {
		l = lg.Logger()
	}
	c := &CappedTransaction{
		Transaction: tx,
		reg:         tx.Registry().Inject(),
		threshold:   threshold,
		l:           l.With(zap.Int("threshold", threshold)),
	}
	registry.Bind[*CappedTransaction](c, c)
	registry.Bind[Transaction](c, c)
	registry.Bind[*zap.Logger](c, c.l)
	return c
}

// Registry yields the binding layer of the decorator
func (c *CappedTransaction) Registry() *registry.Registry { return c.reg }

// Logger for the decorator
func (c *CappedTransaction) Logger() *zap.Logger { return c.l }

// Threshold of staged objects triggering a commit
func (c *CappedTransaction) Threshold() int { return c.threshold }

// Commits is the number of commits performed through this decorator
func (c *CappedTransaction) Commits() int { return c.commits }

func (c *CappedTransaction) capped() bool { return c.threshold > 0 }

func (c *CappedTransaction) flushIfNeeded(ctx context.Context) error {
	if !c.capped() || c.Transaction.StagedCount() < c.threshold {
		return nil
	}
	c.l.Debug("threshold reached", zap.Int("staged", c.Transaction.StagedCount()))
	_, err := c.Commit(ctx)
	return err
}

// Add stages a new object, then commits if the threshold is reached
func (c *CappedTransaction) Add(ctx context.Context, doc model.Document) (string, error) {
	id, err := c.Transaction.Add(ctx, doc)
	if err != nil {
		return "", err
	}
	return id, c.flushIfNeeded(ctx)
}

// Update stages a change, then commits if the threshold is reached
func (c *CappedTransaction) Update(ctx context.Context, old, doc model.Revision) error {
	if err := c.Transaction.Update(ctx, old, doc); err != nil {
		return err
	}
	return c.flushIfNeeded(ctx)
}

// Replace stages a new version of a plain document, then commits if the threshold is reached
func (c *CappedTransaction) Replace(ctx context.Context, doc model.Document) error {
	if err := c.Transaction.Replace(ctx, doc); err != nil {
		return err
	}
	return c.flushIfNeeded(ctx)
}

// Delete stages a removal, then commits if the threshold is reached
func (c *CappedTransaction) Delete(ctx context.Context, doc model.Document, force bool) error {
	if err := c.Transaction.Delete(ctx, doc, force); err != nil {
		return err
	}
	return c.flushIfNeeded(ctx)
}

// Commit pending mutations, counting physical commits
func (c *CappedTransaction) Commit(ctx context.Context, opts ...CommitOption) (*model.Commit, error) {
	commit, err := c.Transaction.Commit(ctx, opts...)
	if commit != nil {
		c.commits++
	}
	return commit, err
}

// ClearContents is not supported on a capped transaction
func (c *CappedTransaction) ClearContents(context.Context) error {
	return status.ErrUnsupportedOperation.WrapMessage("clearing contents of a capped transaction")
}

// Close commits pending mutations one last time, then closes the decorated transaction.
//
// Errors from both the final commit and the close are reported.
func (c *CappedTransaction) Close(ctx context.Context) error {
	if !c.capped() {
		return multierr.Append(c.Transaction.Close(ctx), c.Dispose())
	}

	var err error
	if c.Transaction.IsDirty() {
		_, err = c.Commit(ctx)
	}
	return multierr.Combine(err, c.Transaction.Close(ctx), c.Dispose())
}

// Dispose the bindings of the decorator. The decorated transaction is not disposed.
func (c *CappedTransaction) Dispose() error {
	return c.reg.Dispose()
}
