package revision

import (
	"context"

	"github.com/oneconcern/termstore/pkg/model"
)

// Persister records the history of an index durably.
//
// The state of an index is rebuilt by replaying branch creations and commits in timestamp order.
type Persister interface {
	SaveBranch(context.Context, model.Branch) error
	SaveChangeSet(context.Context, ChangeSet) error

	// Replay all recorded events, in timestamp order
	Replay(context.Context, func(Event) error) error

	Close() error
}

// ChangeSet is a commit, together with the changes it applied
type ChangeSet struct {
	Commit   model.Commit
	Adds     []model.Document
	Changes  []model.Document
	Removals []Key
}

// Event is either a branch creation or a change set
type Event struct {
	Branch    *model.Branch
	ChangeSet *ChangeSet
}

// Timestamp of the event
func (e Event) Timestamp() int64 {
	if e.Branch != nil {
		return e.Branch.BaseTimestamp
	}
	if e.ChangeSet != nil {
		return e.ChangeSet.Commit.Timestamp
	}
	return 0
}
