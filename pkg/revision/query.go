package revision

import (
	"github.com/oneconcern/termstore/pkg/model"
)

// Query selects documents in a snapshot. Zero-valued criteria match anything.
type Query struct {
	Type      string
	IDs       []string
	Container string
	Props     map[string]string

	// Limit the number of results, when positive
	Limit int
}

// MatchAll selects all documents
func MatchAll() Query {
	return Query{}
}

// Matches tells if a document satisfies the query.
//
// Container and property criteria never match plain, non-revision documents.
func (q Query) Matches(doc model.Document) bool {
	if q.Type != "" && doc.DocumentType() != q.Type {
		return false
	}
	if len(q.IDs) > 0 && !contains(q.IDs, doc.DocumentID()) {
		return false
	}
	if q.Container == "" && len(q.Props) == 0 {
		return true
	}
	rev, ok := doc.(model.Revision)
	if !ok {
		return false
	}
	if q.Container != "" && rev.Container() != q.Container {
		return false
	}
	if len(q.Props) > 0 {
		props := rev.Props()
		for k, v := range q.Props {
			if props[k] != v {
				return false
			}
		}
	}
	return true
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
