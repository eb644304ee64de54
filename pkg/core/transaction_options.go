package core

// DefaultAuthor is the author of commits when none is specified
const DefaultAuthor = "system"

// TransactionOption is a functor to open a transaction with some options
type TransactionOption func(*TransactionContext)

// WithAuthor sets the default author of commits
func WithAuthor(author string) TransactionOption {
	return func(tx *TransactionContext) {
		if author != "" {
			tx.author = author
		}
	}
}

// WithComment sets the default comment of commits
func WithComment(comment string) TransactionOption {
	return func(tx *TransactionContext) {
		tx.comment = comment
	}
}

// WithParentLock sets the description of a lock already held by the caller.
//
// The description is passed through to the committer verbatim.
func WithParentLock(description string) TransactionOption {
	return func(tx *TransactionContext) {
		tx.parentLock = description
	}
}

// WithCommitOnClose commits pending changes on Close.
//
// The default is to discard pending changes on Close.
func WithCommitOnClose(enabled bool) TransactionOption {
	return func(tx *TransactionContext) {
		tx.commitOnClose = enabled
	}
}

// WithNotification toggles commit notifications. The default is enabled.
func WithNotification(enabled bool) TransactionOption {
	return func(tx *TransactionContext) {
		tx.notify = enabled
	}
}

// WithGroupID ties all commits of the transaction to one logical operation
func WithGroupID(id string) TransactionOption {
	return func(tx *TransactionContext) {
		tx.groupID = id
	}
}

// CommitOption overrides the defaults of a transaction for one commit
type CommitOption func(*commitSettings)

type commitSettings struct {
	comment    string
	author     string
	parentLock string
}

// CommitComment sets the comment of a commit
func CommitComment(comment string) CommitOption {
	return func(s *commitSettings) {
		s.comment = comment
	}
}

// CommitAuthor sets the author of a commit
func CommitAuthor(author string) CommitOption {
	return func(s *commitSettings) {
		if author != "" {
			s.author = author
		}
	}
}

// CommitParentLock sets the description of a lock already held for a commit
func CommitParentLock(description string) CommitOption {
	return func(s *commitSettings) {
		s.parentLock = description
	}
}
