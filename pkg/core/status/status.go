// Package status exports errors produced by the core package.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/core, pkg/revision
// and the implementations of the revision index.
package status

import (
	"github.com/oneconcern/termstore/pkg/errors"
)

var (
	// ErrNotFound indicates a branch or a component was not found
	ErrNotFound = errors.New("not found")

	// ErrBranchDeleted indicates that a branch exists but is marked deleted, hence unavailable
	ErrBranchDeleted = errors.New("branch unavailable: deleted")

	// ErrDomainGuard indicates that a non-forced delete has been rejected by some referential rule
	ErrDomainGuard = errors.New("rejected by domain guard")

	// ErrStorageConflict indicates that a commit has been rejected by the backing store
	ErrStorageConflict = errors.New("storage conflict")

	// ErrUnsupportedOperation indicates a deliberately unimplemented combination
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidArgument indicates that some input is invalid
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed indicates an operation attempted on a closed context
	ErrClosed = errors.New("context is closed")

	// ErrAlreadyExists indicates that a branch or a document already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrCommitFailed wraps any error returned by the committer
	ErrCommitFailed = errors.New("commit failed")

	// ErrStaleSnapshot indicates that a transaction could not move its reads to the head of its branch after a commit
	ErrStaleSnapshot = errors.New("cannot read branch head after commit")
)
