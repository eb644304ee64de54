package core

import (
	"testing"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingTransitions(t *testing.T) {
	t.Run("new then removed", func(t *testing.T) {
		s := NewStagingArea()
		s.StageNew(concept("1"))
		s.StageRemove(concept("1"))
		assert.True(t, s.IsEmpty())
	})

	t.Run("removed then new", func(t *testing.T) {
		s := NewStagingArea()
		s.StageRemove(concept("1"))
		readded := concept("1")
		readded.Active = false
		s.StageNew(readded)

		req := s.Request()
		assert.Empty(t, req.Adds)
		assert.Empty(t, req.Removals)
		require.Len(t, req.Changes, 1)
		assert.False(t, req.Changes[0].(model.Component).Active)
	})

	t.Run("new then changed", func(t *testing.T) {
		s := NewStagingArea()
		s.StageNew(concept("1"))
		changed := concept("1")
		changed.Properties = map[string]string{"module": "core"}
		s.StageChange(concept("1"), changed)

		req := s.Request()
		require.Len(t, req.Adds, 1)
		assert.Equal(t, "core", req.Adds[0].(model.Component).Properties["module"])
		assert.Empty(t, req.Changes)
	})

	t.Run("changed then removed", func(t *testing.T) {
		s := NewStagingArea()
		changed := concept("1")
		changed.Active = false
		s.StageChange(concept("1"), changed)
		s.StageRemove(changed)
		s.StageRemove(changed)

		req := s.Request()
		assert.Equal(t, []revision.Key{{Type: model.TypeConcept, ID: "1"}}, req.Removals)
		assert.Empty(t, req.Changes)

		doc, removed := s.Effective(concept("1"))
		assert.True(t, removed)
		assert.True(t, doc.(model.Component).Active, "the persisted version is reported")
	})

	t.Run("plain documents", func(t *testing.T) {
		s := NewStagingArea()
		rec := model.Record{Key: "k", Type: "record"}
		s.StageChange(rec, rec)
		assert.Equal(t, 1, s.Count(), "plain documents are always rewritten")

		req := s.Request()
		assert.Equal(t, []model.CommitDetail{
			{Kind: model.Changed, ObjectType: "record", ObjectIDs: []string{"k"}},
		}, req.Details)
	})
}

func TestStagingOrder(t *testing.T) {
	s := NewStagingArea()
	s.StageNew(concept("b"))
	s.StageNew(relationship("r9", "b", "a", true))
	s.StageNew(concept("a"))
	s.StageRemove(concept("z"))
	s.StageNew(concept("b"))

	ids := make([]string, 0, 3)
	for _, doc := range s.NewObjects() {
		ids = append(ids, doc.DocumentID())
	}
	assert.Equal(t, []string{"b", "r9", "a"}, ids, "restaging keeps the original position")
	assert.Len(t, s.Staged(), 3)

	req := s.Request()
	assert.Equal(t, 4, req.Size())
	assert.Equal(t, []model.CommitDetail{
		{Kind: model.Added, ObjectType: model.TypeConcept, ObjectIDs: []string{"a", "b"}},
		{Kind: model.Added, ObjectType: model.TypeRelationship, ObjectIDs: []string{"r9"}},
		{Kind: model.Removed, ObjectType: model.TypeConcept, ObjectIDs: []string{"z"}},
	}, req.Details)

	_, ok := s.NewObject(model.TypeConcept, "z")
	assert.False(t, ok)
	doc, ok := s.NewObject(model.TypeConcept, "a")
	require.True(t, ok)
	assert.Equal(t, "a", doc.DocumentID())

	s.Reset()
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Request().IsEmpty())
}
