package core

import (
	"context"
	stderr "errors"
	"fmt"
	"testing"

	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/registry"
	"github.com/oneconcern/termstore/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCappedCommits(t *testing.T) {
	ctx := context.Background()
	repo, idx := newFixture(t)
	capped := NewCappedTransaction(openTx(t, repo, model.MainPath), 3)
	require.Equal(t, 3, capped.Threshold())

	for i := 0; i < 10; i++ {
		_, err := capped.Add(ctx, concept(fmt.Sprintf("c%d", i)))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, capped.Commits())
	assert.Equal(t, 1, capped.StagedCount())

	require.NoError(t, capped.Close(ctx))
	assert.Equal(t, 4, capped.Commits())
	assert.Equal(t, 4, idx.commits)

	err := repo.WithBranchContext(ctx, model.MainPath, func(bc *BranchContext) error {
		docs, err := bc.Search(ctx, revision.Query{Type: model.TypeConcept})
		if err != nil {
			return err
		}
		assert.Len(t, docs, 13)
		return nil
	})
	require.NoError(t, err)
}

func TestCappedMixedMutations(t *testing.T) {
	ctx := context.Background()
	repo, idx := newFixture(t)
	capped := NewCappedTransaction(openTx(t, repo, model.MainPath), 2)

	_, err := capped.Add(ctx, concept("10"))
	require.NoError(t, err)
	require.NoError(t, capped.Delete(ctx, concept("3"), false))
	assert.Equal(t, 1, capped.Commits())

	old := concept("1")
	changed := old.Clone()
	changed.Properties = map[string]string{"module": "core"}
	require.NoError(t, capped.Update(ctx, old, changed))
	require.NoError(t, capped.Replace(ctx, model.Record{Key: "settings", Type: "record"}))
	assert.Equal(t, 2, capped.Commits())
	assert.False(t, capped.IsDirty())

	require.NoError(t, capped.Close(ctx))
	assert.Equal(t, 2, idx.commits, "nothing left to commit on close")

	t.Run("failed mutations do not flush", func(t *testing.T) {
		capped := NewCappedTransaction(openTx(t, repo, model.MainPath), 1)
		err := capped.Delete(ctx, concept("2"), false)
		assert.True(t, errors.Is(err, status.ErrDomainGuard))
		assert.Zero(t, capped.Commits())
	})
}

func TestCappedClearContents(t *testing.T) {
	ctx := context.Background()
	for _, threshold := range []int{-1, 0, 1, 3} {
		threshold := threshold
		t.Run(fmt.Sprintf("threshold %d", threshold), func(t *testing.T) {
			repo, _ := newFixture(t)
			tx := openTx(t, repo, model.MainPath)
			capped := NewCappedTransaction(tx, threshold)

			err := capped.ClearContents(ctx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrUnsupportedOperation))
			assert.False(t, tx.IsDirty(), "nothing staged")
		})
	}
}

func TestCappedPassThrough(t *testing.T) {
	ctx := context.Background()
	repo, idx := newFixture(t)
	tx := openTx(t, repo, model.MainPath)
	capped := NewCappedTransaction(tx, 0)

	for i := 0; i < 5; i++ {
		_, err := capped.Add(ctx, concept(fmt.Sprintf("c%d", i)))
		require.NoError(t, err)
	}
	assert.Zero(t, capped.Commits())
	assert.Equal(t, 5, capped.StagedCount())

	commit, err := capped.Commit(ctx)
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.Equal(t, 1, capped.Commits())

	_, err = capped.Add(ctx, concept("c5"))
	require.NoError(t, err)
	require.NoError(t, capped.Close(ctx))
	assert.Equal(t, 1, idx.commits, "the decorated transaction discards changes on close")
	assert.True(t, tx.IsClosed())
}

func TestCappedCloseErrors(t *testing.T) {
	ctx := context.Background()
	repo, idx := newFixture(t)
	tx := openTx(t, repo, model.MainPath)
	capped := NewCappedTransaction(tx, 5)

	_, err := capped.Add(ctx, concept("10"))
	require.NoError(t, err)

	idx.failCommit = stderr.New("disk full")
	err = capped.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, tx.IsClosed(), "the decorated transaction is closed anyway")
	assert.Zero(t, capped.Commits())
}

func TestCappedReadsAfterFlush(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFixture(t)
	capped := NewCappedTransaction(openTx(t, repo, model.MainPath), 1)

	_, err := capped.Add(ctx, relationship("r2", "3", "1", true))
	require.NoError(t, err)
	require.Equal(t, 1, capped.Commits())
	require.False(t, capped.IsDirty())

	err = capped.Delete(ctx, concept("3"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDomainGuard), "guards see flushed referrers")
	assert.Equal(t, 1, capped.Commits())

	r2, ok, err := capped.LookupIfExists(ctx, "r2", model.TypeRelationship)
	require.NoError(t, err)
	require.True(t, ok)

	inactive := r2.(model.Component).Clone()
	inactive.Active = false
	require.NoError(t, capped.Update(ctx, r2, inactive))
	assert.Equal(t, 2, capped.Commits())

	require.NoError(t, capped.Delete(ctx, concept("3"), false))
	assert.Equal(t, 3, capped.Commits())

	_, err = capped.Lookup(ctx, "3", model.TypeConcept)
	assert.True(t, errors.Is(err, status.ErrNotFound))
	rev, err := capped.Lookup(ctx, "r2", model.TypeRelationship)
	require.NoError(t, err)
	assert.Equal(t, "false", rev.Props()["active"])

	require.NoError(t, capped.Close(ctx))
	err = repo.WithBranchContext(ctx, model.MainPath, func(bc *BranchContext) error {
		_, err := bc.Get(ctx, model.TypeConcept, "3")
		assert.True(t, errors.Is(err, status.ErrNotFound))
		return nil
	})
	require.NoError(t, err)
}

func TestCappedRegistry(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFixture(t)
	tx := openTx(t, repo, model.MainPath)
	capped := NewCappedTransaction(tx, 2)

	assert.NotSame(t, tx.Registry(), capped.Registry())
	assert.Same(t, tx.Registry(), capped.Registry().Parent())
	assert.Equal(t, tx.Registry().Depth()+1, capped.Registry().Depth())

	assert.Same(t, capped, registry.MustService[*CappedTransaction](capped))
	assert.Equal(t, Transaction(capped), registry.MustService[Transaction](capped))
	assert.Equal(t, Transaction(tx), registry.MustService[Transaction](tx))
	assert.Same(t, tx, registry.MustService[*TransactionContext](capped))
	_, ok := registry.OptionalService[*CappedTransaction](tx)
	assert.False(t, ok)

	require.NoError(t, capped.Close(ctx))
	assert.True(t, capped.Registry().IsDisposed())
	assert.True(t, tx.IsClosed())

	t.Run("pass-through decorators are disposed too", func(t *testing.T) {
		tx := openTx(t, repo, model.MainPath)
		capped := NewCappedTransaction(tx, 0)
		require.NoError(t, capped.Close(ctx))
		assert.True(t, capped.Registry().IsDisposed())
		assert.True(t, tx.Registry().IsDisposed())
	})
}

func TestCappedCountsCommitWithStaleReads(t *testing.T) {
	ctx := context.Background()
	repo, idx := newFixture(t)
	capped := NewCappedTransaction(openTx(t, repo, model.MainPath), 1)

	idx.failSearcher = stderr.New("index unavailable")
	_, err := capped.Add(ctx, concept("10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrStaleSnapshot))
	assert.Equal(t, 1, capped.Commits(), "the commit went through")
	assert.False(t, capped.IsDirty())
}
