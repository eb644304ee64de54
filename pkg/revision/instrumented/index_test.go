package instrumented

import (
	"context"
	"testing"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInstrumentedIndex(t *testing.T) {
	ctx := context.Background()
	tracer := mocktracer.New()
	core, logs := observer.New(zap.DebugLevel)

	idx := NewIndex(tracer, zap.New(core), revision.NewMemoryIndex())

	_, err := idx.Branch(ctx, model.MainPath)
	require.NoError(t, err)

	_, err = idx.Commit(ctx, revision.CommitRequest{
		Branch: model.MainPath,
		Adds:   []model.Document{model.Component{ID: "1", Type: model.TypeConcept}},
	})
	require.NoError(t, err)

	s, err := idx.Searcher(ctx, model.MainPath)
	require.NoError(t, err)
	assert.Equal(t, model.MainPath, s.Ref().Path())

	_, err = s.Get(ctx, model.TypeConcept, "1")
	require.NoError(t, err)
	docs, err := s.GetAll(ctx, model.TypeConcept, []string{"1"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	docs, err = s.Search(ctx, revision.MatchAll())
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	spans := tracer.FinishedSpans()
	names := make([]string, 0, len(spans))
	for _, span := range spans {
		names = append(names, span.OperationName)
		assert.Equal(t, model.MainPath, span.Tag("branch"))
	}
	assert.Equal(t, []string{
		"get branch", "commit", "open searcher",
		"get concept 1", "get all concept", "search",
	}, names)
	assert.Equal(t, 6, logs.Len())

	t.Run("child spans", func(t *testing.T) {
		tracer.Reset()
		parent := tracer.StartSpan("request")
		_, err := idx.Branch(opentracing.ContextWithSpan(ctx, parent), model.MainPath)
		require.NoError(t, err)
		parent.Finish()

		spans := tracer.FinishedSpans()
		require.Len(t, spans, 2)
		assert.Equal(t, spans[1].SpanContext.SpanID, spans[0].ParentID)
	})
}

func TestInstrumentedBranchManager(t *testing.T) {
	ctx := context.Background()
	tracer := mocktracer.New()

	idx := NewIndex(tracer, nil, revision.NewMemoryIndex())
	manager, ok := idx.(revision.BranchManager)
	require.True(t, ok)

	b, err := manager.CreateBranch(ctx, model.MainPath, "a")
	require.NoError(t, err)
	assert.Equal(t, "MAIN/a", b.Path)
	require.NoError(t, manager.DeleteBranch(ctx, "MAIN/a"))
	branches, err := manager.Branches(ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 2)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "create branch", spans[0].OperationName)
	assert.Equal(t, "MAIN/a", spans[0].Tag("branch"))
	assert.Equal(t, "delete branch", spans[1].OperationName)
	assert.Equal(t, "list branches", spans[2].OperationName)

	t.Run("plain index", func(t *testing.T) {
		plain := NewIndex(tracer, nil, struct{ revision.Index }{revision.NewMemoryIndex()})
		_, ok := plain.(revision.BranchManager)
		assert.False(t, ok)
	})
}
