package revision

import (
	"context"
	"sort"
	"strings"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/termstore/pkg/branchpath"
	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/model"
	"go.uber.org/zap"
)

var (
	_ Index         = &MemoryIndex{}
	_ BranchManager = &MemoryIndex{}
)

type branchState struct {
	branch model.Branch
	head   *iradix.Tree
	base   *iradix.Tree
}

// MemoryIndex is an index holding one immutable radix tree per branch snapshot.
//
// Committing to a branch builds a new head tree: searchers opened before the commit keep reading their own snapshot.
type MemoryIndex struct {
	mx       sync.RWMutex
	branches map[string]*branchState
	history  map[string][]model.Commit

	clock     *Clock
	persister Persister
	l         *zap.Logger
}

// NewMemoryIndex builds an in-memory index, with a single MAIN branch
func NewMemoryIndex(opts ...Option) *MemoryIndex {
	m := &MemoryIndex{
		branches: make(map[string]*branchState),
		history:  make(map[string][]model.Commit),
		clock:    NewClock(nil),
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(m)
	}
	empty := iradix.New()
	m.branches[model.MainPath] = &branchState{
		branch: model.Branch{Path: model.MainPath},
		head:   empty,
		base:   empty,
	}
	return m
}

// Load the state of the index from its persister, if any.
//
// Load is intended to be called once, right after the index is built.
func (m *MemoryIndex) Load(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	m.mx.Lock()
	defer m.mx.Unlock()

	var deleted []string
	err := m.persister.Replay(ctx, func(e Event) error {
		m.clock.Observe(e.Timestamp())
		switch {
		case e.Branch != nil:
			b := *e.Branch
			if b.Deleted {
				deleted = append(deleted, b.Path)
				b.Deleted = false
			}
			return m.replayBranch(b)
		case e.ChangeSet != nil:
			return m.replayChangeSet(*e.ChangeSet)
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}
	for _, pth := range deleted {
		if state, ok := m.branches[pth]; ok {
			state.branch.Deleted = true
		}
	}
	m.l.Info("index loaded", zap.Int("branches", len(m.branches)))
	return nil
}

func (m *MemoryIndex) replayBranch(b model.Branch) error {
	if b.IsMain() {
		return nil
	}
	parent, ok := m.branches[b.Parent]
	if !ok {
		return status.ErrNotFound.WrapMessage("cannot replay branch %q: parent %q", b.Path, b.Parent)
	}
	m.branches[b.Path] = &branchState{branch: b, head: parent.head, base: parent.head}
	return nil
}

func (m *MemoryIndex) replayChangeSet(cs ChangeSet) error {
	state, ok := m.branches[cs.Commit.Branch]
	if !ok {
		return status.ErrNotFound.WrapMessage("cannot replay commit %s: branch %q", cs.Commit.ID, cs.Commit.Branch)
	}
	txn := state.head.Txn()
	for _, doc := range cs.Adds {
		txn.Insert(docKey(KeyOf(doc)), model.CloneDocument(doc))
	}
	for _, doc := range cs.Changes {
		txn.Insert(docKey(KeyOf(doc)), model.CloneDocument(doc))
	}
	for _, k := range cs.Removals {
		txn.Delete(docKey(k))
	}
	state.head = txn.Commit()
	state.branch.HeadTimestamp = cs.Commit.Timestamp
	m.history[cs.Commit.Branch] = append(m.history[cs.Commit.Branch], cs.Commit)
	return nil
}

// Close the persister, if any
func (m *MemoryIndex) Close() error {
	if m.persister == nil {
		return nil
	}
	return m.persister.Close()
}

// Branch by path
func (m *MemoryIndex) Branch(_ context.Context, pth string) (model.Branch, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	state, ok := m.branches[pth]
	if !ok {
		return model.Branch{}, status.ErrNotFound.WrapMessage("branch %q", pth)
	}
	return state.branch, nil
}

// Branches known to the index, including deleted ones
func (m *MemoryIndex) Branches(_ context.Context) (model.Branches, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	branches := make(model.Branches, 0, len(m.branches))
	for _, state := range m.branches {
		branches = append(branches, state.branch)
	}
	sort.Sort(branches)
	return branches, nil
}

// Commits recorded on a branch, oldest first
func (m *MemoryIndex) Commits(_ context.Context, pth string) ([]model.Commit, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	if _, ok := m.branches[pth]; !ok {
		return nil, status.ErrNotFound.WrapMessage("branch %q", pth)
	}
	commits := make([]model.Commit, len(m.history[pth]))
	copy(commits, m.history[pth])
	return commits, nil
}

// CreateBranch forks a new branch from the head of its parent
func (m *MemoryIndex) CreateBranch(ctx context.Context, parent, name string) (model.Branch, error) {
	if err := branchpath.Validate(name); err != nil || strings.Contains(name, model.BranchSeparator) {
		return model.Branch{}, status.ErrInvalidArgument.WrapMessage("invalid branch name %q", name)
	}
	pth := model.ChildPath(parent, name)

	m.mx.Lock()
	defer m.mx.Unlock()

	parentState, ok := m.branches[parent]
	if !ok {
		return model.Branch{}, status.ErrNotFound.WrapMessage("parent branch %q", parent)
	}
	if parentState.branch.Deleted {
		return model.Branch{}, status.ErrBranchDeleted.WrapMessage("parent branch %q", parent)
	}
	if _, exists := m.branches[pth]; exists {
		return model.Branch{}, status.ErrAlreadyExists.WrapMessage("branch %q", pth)
	}

	ts := m.clock.Next()
	b := model.Branch{
		Path:          pth,
		Parent:        parent,
		BaseTimestamp: ts,
		HeadTimestamp: ts,
	}
	if m.persister != nil {
		if err := m.persister.SaveBranch(ctx, b); err != nil {
			return model.Branch{}, err
		}
	}
	m.branches[pth] = &branchState{branch: b, head: parentState.head, base: parentState.head}
	m.l.Debug("branch created", zap.String("branch", pth))
	return b, nil
}

// DeleteBranch marks a branch and all its descendants as deleted.
//
// Deleting an already deleted branch has no effect. MAIN cannot be deleted.
func (m *MemoryIndex) DeleteBranch(ctx context.Context, pth string) error {
	if pth == model.MainPath {
		return status.ErrInvalidArgument.WrapMessage("cannot delete %s", model.MainPath)
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	if _, ok := m.branches[pth]; !ok {
		return status.ErrNotFound.WrapMessage("branch %q", pth)
	}
	prefix := pth + model.BranchSeparator
	for p, state := range m.branches {
		if p != pth && !strings.HasPrefix(p, prefix) || state.branch.Deleted {
			continue
		}
		b := state.branch
		b.Deleted = true
		if m.persister != nil {
			if err := m.persister.SaveBranch(ctx, b); err != nil {
				return err
			}
		}
		state.branch = b
		m.l.Debug("branch deleted", zap.String("branch", p))
	}
	return nil
}

// Searcher over the snapshot addressed by a path expression.
//
// The searcher over a deleted branch is returned: its ref reports the deletion.
func (m *MemoryIndex) Searcher(_ context.Context, pth string) (Searcher, error) {
	expr, err := branchpath.Parse(pth)
	if err != nil {
		return nil, err
	}
	target := expr.Target()

	m.mx.RLock()
	defer m.mx.RUnlock()

	state, ok := m.branches[target.Branch]
	if !ok {
		return nil, status.ErrNotFound.WrapMessage("branch %q", target.Branch)
	}
	if target.Kind == branchpath.BaseRef {
		return newSearcher(NewBaseRef(state.branch), state.base, m.l), nil
	}
	return newSearcher(NewHeadRef(state.branch), state.head, m.l), nil
}

// Commit staged changes to the head of a branch
func (m *MemoryIndex) Commit(ctx context.Context, req CommitRequest) (model.Commit, error) {
	if req.IsEmpty() {
		return model.Commit{}, status.ErrInvalidArgument.WrapMessage("empty commit on %q", req.Branch)
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	state, ok := m.branches[req.Branch]
	if !ok {
		return model.Commit{}, status.ErrNotFound.WrapMessage("branch %q", req.Branch)
	}
	if state.branch.Deleted {
		return model.Commit{}, status.ErrStorageConflict.WrapMessage("branch %q was deleted", req.Branch)
	}

	txn := state.head.Txn()
	for _, doc := range req.Adds {
		k := docKey(KeyOf(doc))
		if _, exists := txn.Get(k); exists {
			return model.Commit{}, status.ErrStorageConflict.WrapMessage("%v already exists on %q", KeyOf(doc), req.Branch)
		}
		txn.Insert(k, model.CloneDocument(doc))
	}
	for _, doc := range req.Changes {
		k := docKey(KeyOf(doc))
		if _, exists := txn.Get(k); !exists {
			return model.Commit{}, status.ErrStorageConflict.WrapMessage("%v no longer exists on %q", KeyOf(doc), req.Branch)
		}
		txn.Insert(k, model.CloneDocument(doc))
	}
	for _, key := range req.Removals {
		if _, deleted := txn.Delete(docKey(key)); !deleted {
			return model.Commit{}, status.ErrStorageConflict.WrapMessage("%v no longer exists on %q", key, req.Branch)
		}
	}

	commit := model.Commit{
		ID:        model.NewCommitID(),
		GroupID:   req.GroupID,
		Branch:    req.Branch,
		Author:    req.Author,
		Comment:   req.Comment,
		Timestamp: m.clock.Next(),
		Details:   req.Details,
	}

	if m.persister != nil {
		cs := ChangeSet{Commit: commit, Adds: req.Adds, Changes: req.Changes, Removals: req.Removals}
		if err := m.persister.SaveChangeSet(ctx, cs); err != nil {
			return model.Commit{}, err
		}
	}

	state.head = txn.Commit()
	state.branch.HeadTimestamp = commit.Timestamp
	m.history[req.Branch] = append(m.history[req.Branch], commit)

	m.l.Debug("commit applied",
		zap.String("branch", req.Branch),
		zap.String("commit", commit.ID),
		zap.Int("objects", req.Size()),
		zap.String("parentLock", req.ParentLock),
	)
	return commit, nil
}

func docKey(k Key) []byte {
	return []byte(k.Type + "\x00" + k.ID)
}

func typePrefix(typ string) []byte {
	return []byte(typ + "\x00")
}
