// Package revision defines the collaborators a repository runs against:
// a directory of branches, searchers over branch snapshots and a committer
// writing staged changes.
//
// The package also provides a reference in-memory Index, suitable for tests and
// small deployments, with optional persistence (see package bdgr).
package revision

import (
	"context"

	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
)

// BranchDirectory knows about branches
type BranchDirectory interface {
	// Branch fetches a branch by path, or fails with status.ErrNotFound
	Branch(context.Context, string) (model.Branch, error)
}

// SearcherFactory builds searchers over the snapshot addressed by a path expression
type SearcherFactory interface {
	Searcher(context.Context, string) (Searcher, error)
}

// Searcher reads documents from an immutable snapshot of a branch
type Searcher interface {
	Ref() Ref
	AttachMetrics(metrics.Sink)

	// Get a document by type and id, or fail with status.ErrNotFound
	Get(ctx context.Context, typ, id string) (model.Document, error)

	// GetAll documents of a type with the given ids. Missing documents are omitted.
	GetAll(ctx context.Context, typ string, ids []string) ([]model.Document, error)

	// Search documents matching a query, ordered by type then id
	Search(context.Context, Query) ([]model.Document, error)
}

// Committer writes staged changes to a branch
type Committer interface {
	// Commit fails with status.ErrStorageConflict when the request cannot be applied to the branch head
	Commit(context.Context, CommitRequest) (model.Commit, error)
}

// Index is the full set of collaborators needed by a repository
type Index interface {
	BranchDirectory
	SearcherFactory
	Committer
}

// BranchManager creates and deletes branches
type BranchManager interface {
	CreateBranch(ctx context.Context, parent, name string) (model.Branch, error)
	DeleteBranch(ctx context.Context, pth string) error
	Branches(context.Context) (model.Branches, error)
}

// Ref describes the snapshot a Searcher reads from
type Ref struct {
	path      string
	deleted   bool
	timestamp int64
	base      bool
}

// NewHeadRef builds a ref to the head of a branch
func NewHeadRef(b model.Branch) Ref {
	return Ref{path: b.Path, deleted: b.Deleted, timestamp: b.HeadTimestamp}
}

// NewBaseRef builds a ref to the fork point of a branch
func NewBaseRef(b model.Branch) Ref {
	return Ref{path: b.Path, deleted: b.Deleted, timestamp: b.BaseTimestamp, base: true}
}

// Path of the branch
func (r Ref) Path() string { return r.path }

// IsDeletedBranch tells if the branch was deleted when the ref was taken
func (r Ref) IsDeletedBranch() bool { return r.deleted }

// Head timestamp of the snapshot
func (r Ref) Head() int64 { return r.timestamp }

// IsBase tells if this ref points to the fork point of the branch
func (r Ref) IsBase() bool { return r.base }

// Key identifies a document on a branch
type Key struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// KeyOf a document
func KeyOf(doc model.Document) Key {
	return Key{Type: doc.DocumentType(), ID: doc.DocumentID()}
}

func (k Key) String() string {
	return k.Type + "/" + k.ID
}

// CommitRequest carries staged changes to a branch
type CommitRequest struct {
	Branch     string
	Author     string
	Comment    string
	ParentLock string
	GroupID    string

	// Adds must not exist on the branch; Changes and Removals must exist.
	Adds     []model.Document
	Changes  []model.Document
	Removals []Key

	Details []model.CommitDetail
}

// IsEmpty tells if the request carries no change at all
func (r CommitRequest) IsEmpty() bool {
	return len(r.Adds) == 0 && len(r.Changes) == 0 && len(r.Removals) == 0
}

// Size is the number of documents affected by the request
func (r CommitRequest) Size() int {
	return len(r.Adds) + len(r.Changes) + len(r.Removals)
}
