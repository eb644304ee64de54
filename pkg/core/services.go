package core

import (
	"context"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	"github.com/segmentio/ksuid"
)

// InfoProvider describes a repository
type InfoProvider interface {
	Info(ctx context.Context, repositoryID string) (model.RepositoryInfo, error)
}

// HealthChecker assesses the health of a repository, with some human-readable diagnosis
type HealthChecker interface {
	Health(context.Context) (model.Health, string)
}

// ContextConfigurer is applied once to every new branch context, after all its internal bindings exist
type ContextConfigurer interface {
	Configure(context.Context, *BranchContext) error
}

// ConfigurerFunc adapts a function as a ContextConfigurer
type ConfigurerFunc func(context.Context, *BranchContext) error

// Configure the branch context
func (f ConfigurerFunc) Configure(ctx context.Context, bc *BranchContext) error {
	return f(ctx, bc)
}

// Notifier publishes commit notifications
type Notifier interface {
	Notify(context.Context, model.CommitNotification) error
}

// NotifierFunc adapts a function as a Notifier
type NotifierFunc func(context.Context, model.CommitNotification) error

// Notify about a commit
func (f NotifierFunc) Notify(ctx context.Context, n model.CommitNotification) error {
	return f(ctx, n)
}

// PreCommitHook inspects a commit request before it is sent to the committer.
//
// A hook returning an error aborts the commit. Staged changes are kept.
type PreCommitHook interface {
	PreCommit(context.Context, *TransactionContext, *revision.CommitRequest) error
}

// PreCommitHookFunc adapts a function as a PreCommitHook
type PreCommitHookFunc func(context.Context, *TransactionContext, *revision.CommitRequest) error

// PreCommit runs the hook
func (f PreCommitHookFunc) PreCommit(ctx context.Context, tx *TransactionContext, req *revision.CommitRequest) error {
	return f(ctx, tx, req)
}

// PreCommitHooks is the ordered list of hooks bound to a repository
type PreCommitHooks []PreCommitHook

// IDGenerator derives identifiers for new revision-tracked objects
type IDGenerator interface {
	NewID(objectType string) string
}

type ksuidGenerator struct{}

func (ksuidGenerator) NewID(string) string {
	return ksuid.New().String()
}

// NewKSUIDGenerator yields an IDGenerator producing random, time-ordered KSUIDs
func NewKSUIDGenerator() IDGenerator {
	return ksuidGenerator{}
}
