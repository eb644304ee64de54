// Package bdgr persists the history of a revision index in a badger database.
package bdgr

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/oneconcern/termstore/pkg/revision"
	"go.uber.org/zap"
)

const (
	kindComponent = "component"
	kindRecord    = "record"
)

var (
	branchPref = [7]byte{'b', 'r', 'a', 'n', 'c', 'h', ':'}
	commitPref = [7]byte{'c', 'o', 'm', 'm', 'i', 't', ':'}

	json = jsoniter.ConfigCompatibleWithStandardLibrary

	_ revision.Persister = &Persister{}
)

type docEnvelope struct {
	Kind      string           `json:"kind"`
	Component *model.Component `json:"component,omitempty"`
	Record    *model.Record    `json:"record,omitempty"`
}

type changeSetEnvelope struct {
	Commit   model.Commit   `json:"commit"`
	Adds     []docEnvelope  `json:"adds,omitempty"`
	Changes  []docEnvelope  `json:"changes,omitempty"`
	Removals []revision.Key `json:"removals,omitempty"`
}

// Persister records branches and change sets in badger
type Persister struct {
	dir      string
	inMemory bool
	l        *zap.Logger

	db    *badger.DB
	close sync.Once
}

// New opens a badger-backed persister in a directory
func New(dir string, opts ...Option) (*Persister, error) {
	p := &Persister{
		dir: dir,
		l:   zap.NewNop(),
	}
	for _, apply := range opts {
		apply(p)
	}

	var bopts badger.Options
	if p.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if p.dir == "" {
			return nil, status.ErrInvalidArgument.WrapMessage("a directory is required for a persistent store")
		}
		if err := os.MkdirAll(p.dir, 0o750); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(p.dir)
	}
	bopts = bopts.WithLogger(&badgerLogger{s: p.l.Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	p.db = db
	return p, nil
}

// Close the database. Close may be called several times.
func (p *Persister) Close() error {
	var err error
	p.close.Do(func() {
		err = p.db.Close()
	})
	return err
}

// Size of the database on disk, in bytes
func (p *Persister) Size() int64 {
	lsm, vlog := p.db.Size()
	return lsm + vlog
}

// Dir where the database is located. It is empty for in-memory databases.
func (p *Persister) Dir() string {
	if p.inMemory {
		return ""
	}
	return p.dir
}

func branchKey(pth string) []byte {
	return append(branchPref[:], pth...)
}

func commitKey(ts int64) []byte {
	return append(commitPref[:], fmt.Sprintf("%020d", ts)...)
}

// SaveBranch records the latest state of a branch
func (p *Persister) SaveBranch(_ context.Context, b model.Branch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(branchKey(b.Path), data)
	})
}

// SaveChangeSet records a commit and its changes
func (p *Persister) SaveChangeSet(_ context.Context, cs revision.ChangeSet) error {
	env := changeSetEnvelope{
		Commit:   cs.Commit,
		Removals: cs.Removals,
	}
	var err error
	if env.Adds, err = encodeDocs(cs.Adds); err != nil {
		return err
	}
	if env.Changes, err = encodeDocs(cs.Changes); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commitKey(cs.Commit.Timestamp), data)
	})
}

// Replay branch creations and change sets in timestamp order
func (p *Persister) Replay(ctx context.Context, fn func(revision.Event) error) error {
	var (
		branches model.Branches
		sets     []revision.ChangeSet
	)
	err := p.db.View(func(txn *badger.Txn) error {
		if err := scan(txn, branchPref[:], func(val []byte) error {
			var b model.Branch
			if err := json.Unmarshal(val, &b); err != nil {
				return err
			}
			branches = append(branches, b)
			return nil
		}); err != nil {
			return err
		}

		return scan(txn, commitPref[:], func(val []byte) error {
			var env changeSetEnvelope
			if err := json.Unmarshal(val, &env); err != nil {
				return err
			}
			cs, err := env.decode()
			if err != nil {
				return err
			}
			sets = append(sets, cs)
			return nil
		})
	})
	if err != nil {
		return err
	}

	sort.SliceStable(branches, func(i, j int) bool { return branches[i].BaseTimestamp < branches[j].BaseTimestamp })
	p.l.Debug("replaying index", zap.Int("branches", len(branches)), zap.Int("commits", len(sets)))

	// commit keys are ordered by timestamp: merge both ordered sequences
	i, j := 0, 0
	for i < len(branches) || j < len(sets) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var e revision.Event
		if j >= len(sets) || (i < len(branches) && branches[i].BaseTimestamp < sets[j].Commit.Timestamp) {
			b := branches[i]
			e.Branch = &b
			i++
		} else {
			cs := sets[j]
			e.ChangeSet = &cs
			j++
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func scan(txn *badger.Txn, prefix []byte, fn func([]byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func encodeDocs(docs []model.Document) ([]docEnvelope, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	envs := make([]docEnvelope, 0, len(docs))
	for _, doc := range docs {
		switch d := doc.(type) {
		case model.Component:
			c := d
			envs = append(envs, docEnvelope{Kind: kindComponent, Component: &c})
		case *model.Component:
			envs = append(envs, docEnvelope{Kind: kindComponent, Component: d})
		case model.Record:
			r := d
			envs = append(envs, docEnvelope{Kind: kindRecord, Record: &r})
		case *model.Record:
			envs = append(envs, docEnvelope{Kind: kindRecord, Record: d})
		default:
			return nil, status.ErrInvalidArgument.WrapMessage("cannot persist document of type %T", doc)
		}
	}
	return envs, nil
}

func (e docEnvelope) decode() (model.Document, error) {
	switch {
	case e.Kind == kindComponent && e.Component != nil:
		return *e.Component, nil
	case e.Kind == kindRecord && e.Record != nil:
		return *e.Record, nil
	default:
		return nil, status.ErrInvalidArgument.WrapMessage("invalid stored document kind %q", e.Kind)
	}
}

func (e changeSetEnvelope) decode() (revision.ChangeSet, error) {
	cs := revision.ChangeSet{Commit: e.Commit, Removals: e.Removals}
	for _, env := range e.Adds {
		doc, err := env.decode()
		if err != nil {
			return cs, err
		}
		cs.Adds = append(cs.Adds, doc)
	}
	for _, env := range e.Changes {
		doc, err := env.decode()
		if err != nil {
			return cs, err
		}
		cs.Changes = append(cs.Changes, doc)
	}
	return cs, nil
}

// badgerLogger routes badger logs to zap. Badger info messages are demoted to debug.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.s.Errorf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.s.Warnf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.s.Debugf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.s.Debugf(strings.TrimSpace(format), args...)
}
