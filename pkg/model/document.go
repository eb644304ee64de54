package model

import "sort"

// Well-known component types
const (
	TypeConcept      = "concept"
	TypeDescription  = "description"
	TypeRelationship = "relationship"
	TypeMember       = "member"
	TypeCodeSystem   = "codesystem"
)

// Document is any object which can be staged and persisted to a branch
type Document interface {
	DocumentID() string
	DocumentType() string
}

// Revision is a revision-tracked document.
//
// Revisions are versioned along the branch history: updating a revision keeps track of changed properties.
type Revision interface {
	Document

	// Container is the id of the document which owns this revision (itself for top-level components)
	Container() string

	// Props exposes the properties tracked for change detection
	Props() map[string]string
}

// Component is the revision-tracked unit of terminology content (concept, description, relationship, member...)
type Component struct {
	ID          string            `json:"id" yaml:"id"`
	Type        string            `json:"type" yaml:"type"`
	ContainerID string            `json:"container,omitempty" yaml:"container,omitempty"`
	Active      bool              `json:"active" yaml:"active"`
	Properties  map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	_           struct{}
}

var _ Revision = Component{}

// DocumentID of the component
func (c Component) DocumentID() string { return c.ID }

// DocumentType of the component
func (c Component) DocumentType() string { return c.Type }

// Container of the component: defaults to the component itself
func (c Component) Container() string {
	if c.ContainerID == "" {
		return c.ID
	}
	return c.ContainerID
}

// Props yields all change-tracked properties, including the status flag
func (c Component) Props() map[string]string {
	props := make(map[string]string, len(c.Properties)+1)
	for k, v := range c.Properties {
		props[k] = v
	}
	if c.Active {
		props["active"] = "true"
	} else {
		props["active"] = "false"
	}
	return props
}

// Clone makes a deep copy of the component
func (c Component) Clone() Component {
	cp := c
	if c.Properties != nil {
		cp.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			cp.Properties[k] = v
		}
	}
	return cp
}

// Record is a plain, non revision-tracked document (e.g. a code system descriptor or some job state)
type Record struct {
	Key  string            `json:"key" yaml:"key"`
	Type string            `json:"type" yaml:"type"`
	Body map[string]string `json:"body,omitempty" yaml:"body,omitempty"`
	_    struct{}
}

var _ Document = Record{}

// DocumentID of the record
func (r Record) DocumentID() string { return r.Key }

// DocumentType of the record
func (r Record) DocumentType() string { return r.Type }

// IsRevision tells if a document is revision-tracked
func IsRevision(doc Document) bool {
	_, ok := doc.(Revision)
	return ok
}

// PropertyDiff reports a changed property between two revisions
type PropertyDiff struct {
	Property string
	From     string
	To       string
}

// DiffProps compares the tracked properties of two revisions, sorted by property name
func DiffProps(from, to Revision) []PropertyDiff {
	before, after := from.Props(), to.Props()
	diffs := make([]PropertyDiff, 0, len(after))
	for k, v := range after {
		if old, ok := before[k]; !ok || old != v {
			diffs = append(diffs, PropertyDiff{Property: k, From: before[k], To: v})
		}
	}
	for k, v := range before {
		if _, ok := after[k]; !ok {
			diffs = append(diffs, PropertyDiff{Property: k, From: v})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Property < diffs[j].Property })
	return diffs
}

// Clone the record, with its own copy of the body
func (r Record) Clone() Record {
	cp := r
	if r.Body != nil {
		cp.Body = make(map[string]string, len(r.Body))
		for k, v := range r.Body {
			cp.Body[k] = v
		}
	}
	return cp
}

// IDAssigner is implemented by documents which may be given a new identifier
type IDAssigner interface {
	WithID(string) Document
}

var _ IDAssigner = Component{}

// WithID yields a copy of the component with a new identifier
func (c Component) WithID(id string) Document {
	cp := c.Clone()
	cp.ID = id
	return cp
}

// CloneDocument makes a deep copy of the known document types. Other documents are returned as is.
func CloneDocument(doc Document) Document {
	switch d := doc.(type) {
	case Component:
		return d.Clone()
	case *Component:
		cp := d.Clone()
		return &cp
	case Record:
		return d.Clone()
	case *Record:
		cp := d.Clone()
		return &cp
	default:
		return doc
	}
}
