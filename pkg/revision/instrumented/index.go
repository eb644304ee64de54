// Package instrumented decorates a revision index with tracing spans and logs.
package instrumented

import (
	"context"
	"time"

	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

var (
	_ revision.Index         = &instrumentedIndex{}
	_ revision.Searcher      = &instrumentedSearcher{}
	_ revision.BranchManager = &instrumentedManager{}
)

// NewIndex wraps an index so that every call is traced and logged at debug level.
//
// A nil tracer falls back to the global tracer, which is a no-op unless registered.
// When the wrapped index manages branches, so does the returned index.
func NewIndex(tr opentracing.Tracer, l *zap.Logger, w revision.Index) revision.Index {
	if tr == nil {
		tr = opentracing.GlobalTracer()
	}
	if l == nil {
		l = zap.NewNop()
	}
	idx := &instrumentedIndex{tr: tr, l: l, w: w}
	if m, ok := w.(revision.BranchManager); ok {
		return &instrumentedManager{instrumentedIndex: idx, m: m}
	}
	return idx
}

type instrumentedIndex struct {
	tr opentracing.Tracer
	l  *zap.Logger
	w  revision.Index
}

func (i *instrumentedIndex) Branch(ctx context.Context, pth string) (b model.Branch, err error) {
	i.traced(ctx, "get branch", pth, func(ctx context.Context) { b, err = i.w.Branch(ctx, pth) })
	return
}

func (i *instrumentedIndex) Searcher(ctx context.Context, pth string) (s revision.Searcher, err error) {
	i.traced(ctx, "open searcher", pth, func(ctx context.Context) { s, err = i.w.Searcher(ctx, pth) })
	if err != nil {
		return nil, err
	}
	return &instrumentedSearcher{index: i, w: s}, nil
}

func (i *instrumentedIndex) Commit(ctx context.Context, req revision.CommitRequest) (c model.Commit, err error) {
	i.traced(ctx, "commit", req.Branch, func(ctx context.Context) { c, err = i.w.Commit(ctx, req) })
	return
}

// Unwrap yields the decorated index
func (i *instrumentedIndex) Unwrap() revision.Index {
	return i.w
}

type instrumentedManager struct {
	*instrumentedIndex

	m revision.BranchManager
}

func (i *instrumentedManager) CreateBranch(ctx context.Context, parent, name string) (b model.Branch, err error) {
	i.traced(ctx, "create branch", model.ChildPath(parent, name), func(ctx context.Context) { b, err = i.m.CreateBranch(ctx, parent, name) })
	return
}

func (i *instrumentedManager) DeleteBranch(ctx context.Context, pth string) (err error) {
	i.traced(ctx, "delete branch", pth, func(ctx context.Context) { err = i.m.DeleteBranch(ctx, pth) })
	return
}

func (i *instrumentedManager) Branches(ctx context.Context) (b model.Branches, err error) {
	i.traced(ctx, "list branches", "", func(ctx context.Context) { b, err = i.m.Branches(ctx) })
	return
}

type instrumentedSearcher struct {
	index *instrumentedIndex
	w     revision.Searcher
}

func (s *instrumentedSearcher) Ref() revision.Ref { return s.w.Ref() }

func (s *instrumentedSearcher) AttachMetrics(sink metrics.Sink) { s.w.AttachMetrics(sink) }

func (s *instrumentedSearcher) Get(ctx context.Context, typ, id string) (doc model.Document, err error) {
	s.index.traced(ctx, "get "+typ+" "+id, s.w.Ref().Path(), func(ctx context.Context) { doc, err = s.w.Get(ctx, typ, id) })
	return
}

func (s *instrumentedSearcher) GetAll(ctx context.Context, typ string, ids []string) (docs []model.Document, err error) {
	s.index.traced(ctx, "get all "+typ, s.w.Ref().Path(), func(ctx context.Context) { docs, err = s.w.GetAll(ctx, typ, ids) })
	return
}

func (s *instrumentedSearcher) Search(ctx context.Context, q revision.Query) (docs []model.Document, err error) {
	s.index.traced(ctx, "search", s.w.Ref().Path(), func(ctx context.Context) { docs, err = s.w.Search(ctx, q) })
	return
}

func (i *instrumentedIndex) traced(ctx context.Context, name, branch string, action func(context.Context)) {
	parent := opentracing.SpanFromContext(ctx)
	var opts []opentracing.StartSpanOption
	if parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := i.tr.StartSpan(name, opts...)
	span.SetTag("branch", branch)
	defer span.Finish()

	start := time.Now()
	action(opentracing.ContextWithSpan(ctx, span))
	i.l.Debug(name, zap.String("branch", branch), zap.Duration("elapsed", time.Since(start)))
}
