package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
)

// Severity of a guard violation
type Severity string

const (
	// SeverityWarn violations are logged, and do not prevent a delete
	SeverityWarn Severity = "warn"

	// SeverityBlock violations reject a delete
	SeverityBlock Severity = "block"
)

// Violation reported by a guard
type Violation struct {
	Guard    string
	Severity Severity
	Message  string
}

// GuardResult gathers the violations reported by guards
type GuardResult struct {
	Violations []Violation
}

// Merge appends violations from another result
func (r *GuardResult) Merge(other GuardResult) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations
func (r GuardResult) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// GuardViolationError is returned when blocking violations are present
type GuardViolationError struct {
	Result GuardResult
}

func (e *GuardViolationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, fmt.Sprintf("%s: %s", v.Guard, v.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

// Guard evaluates a referential rule before an object is removed
type Guard interface {
	Name() string
	Evaluate(ctx context.Context, tx *TransactionContext, doc model.Document) (GuardResult, error)
}

// Guards evaluate registered guards in order
type Guards struct {
	guards []Guard
}

// NewGuards builds an empty set of guards
func NewGuards(guards ...Guard) *Guards {
	return &Guards{guards: guards}
}

// DefaultGuards protect components referenced by active relationships and members
func DefaultGuards() *Guards {
	return NewGuards(NewReferenceGuard(DefaultReferenceProperties...))
}

// Register appends a guard
func (g *Guards) Register(guard Guard) {
	g.guards = append(g.guards, guard)
}

// Len is the number of registered guards
func (g *Guards) Len() int {
	return len(g.guards)
}

// Evaluate executes all registered guards and aggregates their results
func (g *Guards) Evaluate(ctx context.Context, tx *TransactionContext, doc model.Document) (GuardResult, error) {
	var combined GuardResult
	for _, guard := range g.guards {
		res, err := guard.Evaluate(ctx, tx, doc)
		if err != nil {
			return GuardResult{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// DefaultReferenceProperties are the properties through which components refer to one another
var DefaultReferenceProperties = []string{"source", "destination", "referencedComponent"}

// ReferenceGuard blocks the removal of components still referenced by an active revision, through some properties
type ReferenceGuard struct {
	props []string
}

// NewReferenceGuard builds a guard checking references through properties
func NewReferenceGuard(props ...string) *ReferenceGuard {
	return &ReferenceGuard{props: props}
}

// Name of the guard
func (g *ReferenceGuard) Name() string { return "references" }

// Evaluate whether doc is referenced by some active revision, staged changes taken into account
func (g *ReferenceGuard) Evaluate(ctx context.Context, tx *TransactionContext, doc model.Document) (GuardResult, error) {
	if !model.IsRevision(doc) {
		return GuardResult{}, nil
	}
	id := doc.DocumentID()

	var res GuardResult
	seen := make(map[revision.Key]bool)
	report := func(referrer model.Document, prop string) {
		k := revision.KeyOf(referrer)
		if seen[k] || k == revision.KeyOf(doc) {
			return
		}
		seen[k] = true
		res.Violations = append(res.Violations, Violation{
			Guard:    g.Name(),
			Severity: SeverityBlock,
			Message:  fmt.Sprintf("%v is referenced by %v through %q", revision.KeyOf(doc), k, prop),
		})
	}

	for _, prop := range g.props {
		q := revision.Query{Props: map[string]string{prop: id, "active": "true"}}

		persisted, err := tx.Searcher().Search(ctx, q)
		if err != nil {
			return GuardResult{}, err
		}
		for _, referrer := range persisted {
			effective, removed := tx.staging.Effective(referrer)
			if !removed && q.Matches(effective) {
				report(effective, prop)
			}
		}

		for _, referrer := range tx.staging.Staged() {
			if q.Matches(referrer) {
				report(referrer, prop)
			}
		}
	}
	return res, nil
}
