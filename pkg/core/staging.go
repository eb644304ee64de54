package core

import (
	"sort"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
)

type stagedState uint8

const (
	stagedNew stagedState = iota + 1
	stagedChanged
	stagedRevisionChanged
	stagedRemoved
)

type stagedEntry struct {
	seq   int
	state stagedState
	old   model.Document // the persisted version, for changes and removals
	doc   model.Document
}

// StagingArea holds the pending mutations of a transaction, in staging order.
//
// A StagingArea is owned by a single transaction and is not safe for concurrent use.
type StagingArea struct {
	entries map[revision.Key]*stagedEntry
	seq     int
}

// NewStagingArea builds an empty staging area
func NewStagingArea() *StagingArea {
	return &StagingArea{entries: make(map[revision.Key]*stagedEntry)}
}

// Count of pending mutations
func (s *StagingArea) Count() int {
	return len(s.entries)
}

// IsEmpty tells if there is no pending mutation
func (s *StagingArea) IsEmpty() bool {
	return len(s.entries) == 0
}

// Reset discards all pending mutations
func (s *StagingArea) Reset() {
	s.entries = make(map[revision.Key]*stagedEntry)
	s.seq = 0
}

func (s *StagingArea) put(k revision.Key, e *stagedEntry) {
	if existing, ok := s.entries[k]; ok {
		e.seq = existing.seq
	} else {
		s.seq++
		e.seq = s.seq
	}
	s.entries[k] = e
}

// StageNew stages a new object.
//
// Staging a new object over a staged removal of the same object stages a change instead.
func (s *StagingArea) StageNew(doc model.Document) {
	k := revision.KeyOf(doc)
	if existing, ok := s.entries[k]; ok && existing.state == stagedRemoved {
		s.stageChange(k, existing.old, doc)
		return
	}
	s.put(k, &stagedEntry{state: stagedNew, doc: doc})
}

// StageChange stages a modification of a persisted object, from its old to its new version.
//
// Changing a staged new object just replaces it. A revision changed back to its persisted
// properties is no longer a pending mutation.
func (s *StagingArea) StageChange(old, doc model.Document) {
	k := revision.KeyOf(doc)
	if existing, ok := s.entries[k]; ok {
		switch existing.state {
		case stagedNew:
			s.put(k, &stagedEntry{state: stagedNew, doc: doc})
			return
		case stagedChanged, stagedRevisionChanged, stagedRemoved:
			old = existing.old
		}
	}
	s.stageChange(k, old, doc)
}

func (s *StagingArea) stageChange(k revision.Key, old, doc model.Document) {
	oldRev, isOldRev := old.(model.Revision)
	rev, isRev := doc.(model.Revision)
	if !isOldRev || !isRev {
		s.put(k, &stagedEntry{state: stagedChanged, old: old, doc: doc})
		return
	}
	if oldRev.Container() == rev.Container() && len(model.DiffProps(oldRev, rev)) == 0 {
		delete(s.entries, k)
		return
	}
	s.put(k, &stagedEntry{state: stagedRevisionChanged, old: old, doc: doc})
}

// StageRemove stages the removal of an object.
//
// Removing a staged new object cancels it: no mutation is left pending for this object.
func (s *StagingArea) StageRemove(doc model.Document) {
	k := revision.KeyOf(doc)
	old := doc
	if existing, ok := s.entries[k]; ok {
		switch existing.state {
		case stagedNew:
			delete(s.entries, k)
			return
		case stagedRemoved:
			return
		default:
			old = existing.old
		}
	}
	s.put(k, &stagedEntry{state: stagedRemoved, old: old, doc: old})
}

// NewObject yields a staged new object, if any
func (s *StagingArea) NewObject(typ, id string) (model.Document, bool) {
	e, ok := s.entries[revision.Key{Type: typ, ID: id}]
	if !ok || e.state != stagedNew {
		return nil, false
	}
	return e.doc, true
}

// NewObjects yields all staged new objects, in staging order
func (s *StagingArea) NewObjects() []model.Document {
	entries := s.ordered()
	docs := make([]model.Document, 0, len(entries))
	for _, e := range entries {
		if e.state == stagedNew {
			docs = append(docs, e.doc)
		}
	}
	return docs
}

// Staged yields all staged new or changed objects, in staging order
func (s *StagingArea) Staged() []model.Document {
	entries := s.ordered()
	docs := make([]model.Document, 0, len(entries))
	for _, e := range entries {
		if e.state != stagedRemoved {
			docs = append(docs, e.doc)
		}
	}
	return docs
}

// Effective yields the staged version of an object, if any, and tells if it is staged for removal
func (s *StagingArea) Effective(doc model.Document) (model.Document, bool) {
	e, ok := s.entries[revision.KeyOf(doc)]
	if !ok {
		return doc, false
	}
	if e.state == stagedRemoved {
		return e.old, true
	}
	return e.doc, false
}

func (s *StagingArea) ordered() []*stagedEntry {
	entries := make([]*stagedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries
}

// Request builds a commit request with all pending mutations, together with the details of the changes
func (s *StagingArea) Request() revision.CommitRequest {
	var (
		req     revision.CommitRequest
		details = newDetailsBuilder()
	)

	for _, e := range s.ordered() {
		switch e.state {
		case stagedNew:
			req.Adds = append(req.Adds, e.doc)
			details.add(model.Added, e.doc)
		case stagedChanged:
			req.Changes = append(req.Changes, e.doc)
			details.add(model.Changed, e.doc)
		case stagedRevisionChanged:
			req.Changes = append(req.Changes, e.doc)
			details.add(model.Changed, e.doc)
			details.props(e.old.(model.Revision), e.doc.(model.Revision))
		case stagedRemoved:
			k := revision.KeyOf(e.old)
			req.Removals = append(req.Removals, k)
			details.add(model.Removed, e.old)
		}
	}
	req.Details = details.build()
	return req
}

type detailsBuilder struct {
	order       []string
	groups      map[string]*model.CommitDetail
	propChanges []model.CommitDetail
}

func newDetailsBuilder() *detailsBuilder {
	return &detailsBuilder{groups: make(map[string]*model.CommitDetail)}
}

func (d *detailsBuilder) add(kind model.ChangeKind, doc model.Document) {
	group := string(kind) + "\x00" + doc.DocumentType()
	detail, ok := d.groups[group]
	if !ok {
		detail = &model.CommitDetail{Kind: kind, ObjectType: doc.DocumentType()}
		d.groups[group] = detail
		d.order = append(d.order, group)
	}
	detail.ObjectIDs = append(detail.ObjectIDs, doc.DocumentID())
}

func (d *detailsBuilder) props(old, rev model.Revision) {
	for _, diff := range model.DiffProps(old, rev) {
		d.propChanges = append(d.propChanges, model.CommitDetail{
			Kind:       model.PropertyChanged,
			ObjectType: rev.DocumentType(),
			ObjectIDs:  []string{rev.DocumentID()},
			Property:   diff.Property,
			From:       diff.From,
			To:         diff.To,
		})
	}
}

func (d *detailsBuilder) build() []model.CommitDetail {
	details := make([]model.CommitDetail, 0, len(d.order)+len(d.propChanges))
	for _, group := range d.order {
		detail := *d.groups[group]
		sort.Strings(detail.ObjectIDs)
		details = append(details, detail)
	}
	return append(details, d.propChanges...)
}
