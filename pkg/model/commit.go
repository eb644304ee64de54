package model

import (
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// ChangeKind qualifies a change reported in a commit detail
type ChangeKind string

const (
	// Added reports new objects
	Added ChangeKind = "added"

	// Changed reports updated objects
	Changed ChangeKind = "changed"

	// Removed reports deleted objects
	Removed ChangeKind = "removed"

	// PropertyChanged reports a property value change on updated revisions
	PropertyChanged ChangeKind = "property"
)

// Commit is the immutable result of a successful flush of staged changes
type Commit struct {
	ID        string         `json:"id" yaml:"id"`
	GroupID   string         `json:"groupId,omitempty" yaml:"groupId,omitempty"` // connects several physical commits of one logical operation
	Branch    string         `json:"branch" yaml:"branch"`
	Author    string         `json:"author" yaml:"author"`
	Comment   string         `json:"comment,omitempty" yaml:"comment,omitempty"`
	Timestamp int64          `json:"timestamp" yaml:"timestamp"`
	Details   []CommitDetail `json:"details,omitempty" yaml:"details,omitempty"`
	_         struct{}
}

// Time of the commit
func (c Commit) Time() time.Time {
	return TimestampToTime(c.Timestamp)
}

func (c Commit) String() string {
	return fmt.Sprintf("%s@%d (%s)", c.Branch, c.Timestamp, c.ID)
}

// CommitDetail summarizes one kind of change for one object type in a commit
type CommitDetail struct {
	Kind       ChangeKind `json:"kind" yaml:"kind"`
	ObjectType string     `json:"objectType" yaml:"objectType"`
	ObjectIDs  []string   `json:"objectIds" yaml:"objectIds"`
	Property   string     `json:"property,omitempty" yaml:"property,omitempty"`
	From       string     `json:"from,omitempty" yaml:"from,omitempty"`
	To         string     `json:"to,omitempty" yaml:"to,omitempty"`
}

// CommitNotification is published after a commit, when notifications are enabled on the transaction
type CommitNotification struct {
	Repository string `json:"repository" yaml:"repository"`
	Commit     Commit `json:"commit" yaml:"commit"`
}

// NewCommitID generates a new unique, time-ordered commit id
func NewCommitID() string {
	id, err := ksuid.NewRandom()
	if err != nil {
		panic(fmt.Sprintf("cannot generate random ksuid: %v", err))
	}
	return id.String()
}

// TimestampToTime converts a store timestamp (ms since epoch) to a time
func TimestampToTime(ts int64) time.Time {
	return time.Unix(0, ts*int64(time.Millisecond)).UTC()
}

// TimeToTimestamp converts a time to a store timestamp (ms since epoch)
func TimeToTimestamp(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
