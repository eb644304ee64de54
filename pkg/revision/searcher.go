package revision

import (
	"context"
	"sync"
	"time"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/metrics"
	"github.com/oneconcern/termstore/pkg/model"
	"go.uber.org/zap"
)

var _ Searcher = &memSearcher{}

type memSearcher struct {
	ref  Ref
	tree *iradix.Tree
	l    *zap.Logger

	mx   sync.RWMutex
	sink metrics.Sink
}

func newSearcher(ref Ref, tree *iradix.Tree, l *zap.Logger) *memSearcher {
	return &memSearcher{
		ref:  ref,
		tree: tree,
		l:    l.With(zap.String("branch", ref.Path())),
		sink: metrics.NewNop(),
	}
}

func (s *memSearcher) Ref() Ref { return s.ref }

func (s *memSearcher) AttachMetrics(sink metrics.Sink) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.sink = metrics.OrNop(sink)
}

func (s *memSearcher) measure(op string) func() {
	s.mx.RLock()
	sink := s.sink
	s.mx.RUnlock()

	tags := map[string]string{"branch": s.ref.Path(), "op": op}
	start := time.Now()
	sink.Inc(metrics.SearchCount, tags)
	return func() { sink.Since(metrics.SearchLatency, start, tags) }
}

func (s *memSearcher) Get(ctx context.Context, typ, id string) (model.Document, error) {
	defer s.measure("get")()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.tree.Get(docKey(Key{Type: typ, ID: id}))
	if !ok {
		return nil, status.ErrNotFound.WrapMessage("%s %q on %q", typ, id, s.ref.Path())
	}
	return model.CloneDocument(v.(model.Document)), nil
}

func (s *memSearcher) GetAll(ctx context.Context, typ string, ids []string) ([]model.Document, error) {
	defer s.measure("getAll")()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.tree.Get(docKey(Key{Type: typ, ID: id})); ok {
			docs = append(docs, model.CloneDocument(v.(model.Document)))
		}
	}
	return docs, nil
}

func (s *memSearcher) Search(ctx context.Context, q Query) ([]model.Document, error) {
	defer s.measure("search")()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []model.Document
	walker := func(_ []byte, v interface{}) bool {
		doc := v.(model.Document)
		if q.Matches(doc) {
			docs = append(docs, model.CloneDocument(doc))
		}
		return q.Limit > 0 && len(docs) >= q.Limit
	}
	if q.Type != "" {
		s.tree.Root().WalkPrefix(typePrefix(q.Type), walker)
	} else {
		s.tree.Root().Walk(walker)
	}
	s.l.Debug("search", zap.Int("results", len(docs)))
	return docs, nil
}
