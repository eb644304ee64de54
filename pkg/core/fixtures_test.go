package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	"github.com/stretchr/testify/require"
)

type countingIndex struct {
	*revision.MemoryIndex

	commits      int
	searchers    int
	failCommit   error
	failSearcher error
}

func (c *countingIndex) Commit(ctx context.Context, req revision.CommitRequest) (model.Commit, error) {
	c.commits++
	if c.failCommit != nil {
		return model.Commit{}, c.failCommit
	}
	return c.MemoryIndex.Commit(ctx, req)
}

func (c *countingIndex) Searcher(ctx context.Context, pth string) (revision.Searcher, error) {
	c.searchers++
	if c.failSearcher != nil {
		return nil, c.failSearcher
	}
	return c.MemoryIndex.Searcher(ctx, pth)
}

type sequentialIDs struct {
	n int
}

func (s *sequentialIDs) NewID(typ string) string {
	s.n++
	return fmt.Sprintf("%s-%d", typ, s.n)
}

type fakeSearcher struct {
	revision.Searcher

	ref      revision.Ref
	attached metrics.Sink
}

func (f *fakeSearcher) Ref() revision.Ref { return f.ref }

func (f *fakeSearcher) AttachMetrics(sink metrics.Sink) { f.attached = sink }

func concept(id string) model.Component {
	return model.Component{ID: id, Type: model.TypeConcept, Active: true}
}

func relationship(id, source, destination string, active bool) model.Component {
	return model.Component{
		ID:     id,
		Type:   model.TypeRelationship,
		Active: active,
		Properties: map[string]string{
			"source":      source,
			"destination": destination,
		},
	}
}

// newFixture builds a repository over an index holding concepts 1 to 3, a relationship 1 -> 2,
// a plain record and a branch MAIN/a
func newFixture(t testing.TB, opts ...RepositoryOption) (*RepositoryContext, *countingIndex) {
	ctx := context.Background()
	idx := &countingIndex{MemoryIndex: revision.NewMemoryIndex()}

	_, err := idx.MemoryIndex.Commit(ctx, revision.CommitRequest{
		Branch: model.MainPath,
		Author: "fixture",
		Adds: []model.Document{
			concept("1"),
			concept("2"),
			concept("3"),
			relationship("r1", "1", "2", true),
			model.Record{Key: "settings", Type: "record", Body: map[string]string{"k": "v"}},
		},
	})
	require.NoError(t, err)

	_, err = idx.CreateBranch(ctx, model.MainPath, "a")
	require.NoError(t, err)

	repo := NewRepository("snomedct", idx, opts...)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, idx
}

func openTx(t testing.TB, repo *RepositoryContext, pth string, opts ...TransactionOption) *TransactionContext {
	ctx := context.Background()
	bc, err := repo.OpenBranch(ctx, pth)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	tx, err := bc.OpenTransaction(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Close(ctx) })
	return tx
}
