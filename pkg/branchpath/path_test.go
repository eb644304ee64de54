package branchpath

import (
	"context"
	"testing"

	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, toPin := range []struct {
		Path       string
		Kind       Kind
		Candidates []string
	}{
		{Path: "MAIN", Kind: Plain, Candidates: []string{"MAIN"}},
		{Path: "MAIN/a/b-1_x.y", Kind: Plain, Candidates: []string{"MAIN/a/b-1_x.y"}},
		{Path: "MAIN/a@", Kind: AtRef, Candidates: []string{"MAIN/a"}},
		{Path: "MAIN/a^", Kind: BaseRef, Candidates: []string{"MAIN/a"}},
		{Path: "MAIN/a..MAIN/b", Kind: Range, Candidates: []string{"MAIN/a", "MAIN/b"}},
		{Path: "MAIN/a^..MAIN/a", Kind: Range, Candidates: []string{"MAIN/a", "MAIN/a"}},
		{Path: "MAIN..MAIN/b@", Kind: Range, Candidates: []string{"MAIN", "MAIN/b"}},
	} {
		fixture := toPin
		t.Run(fixture.Path, func(t *testing.T) {
			e, err := Parse(fixture.Path)
			require.NoError(t, err)
			assert.Equal(t, fixture.Kind, e.Kind)
			assert.Equal(t, fixture.Candidates, e.Candidates())
			assert.Equal(t, fixture.Path, e.String(), "the requested path is preserved")
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, pth := range []string{
		"",
		"..MAIN",
		"MAIN..",
		"..",
		"MAIN//a",
		"/MAIN",
		"MAIN/a b",
		"@",
		"MAIN/a@@",
		"MAIN/a^@",
	} {
		_, err := Parse(pth)
		require.Errorf(t, err, "expected %q to be invalid", pth)
		assert.True(t, errors.Is(err, ErrInvalidPath))
	}
}

func mustParse(t testing.TB, pth string) Expression {
	e, err := Parse(pth)
	require.NoError(t, err)
	return e
}

func TestRangeTarget(t *testing.T) {
	e := mustParse(t, "MAIN/a^..MAIN/b@")
	target := e.Target()
	assert.Equal(t, AtRef, target.Kind)
	assert.Equal(t, "MAIN/b", target.Branch)

	plain := mustParse(t, "MAIN")
	assert.Equal(t, plain, plain.Target())
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Branch(ctx context.Context, pth string) (model.Branch, error) {
	args := m.Called(ctx, pth)
	return args.Get(0).(model.Branch), args.Error(1)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("plain path resolves", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("Branch", ctx, "MAIN/a").Return(model.Branch{Path: "MAIN/a", HeadTimestamp: 10}, nil).Once()

		b, err := Check(ctx, dir, "MAIN/a@")
		require.NoError(t, err)
		assert.Equal(t, "MAIN/a", b.Path)
		dir.AssertExpectations(t)
	})

	t.Run("missing branch", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("Branch", ctx, "MAIN/x").Return(model.Branch{}, status.ErrNotFound).Once()

		_, err := Check(ctx, dir, "MAIN/x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrNotFound))
		assert.Contains(t, err.Error(), "MAIN/x")
	})

	t.Run("range returns the second endpoint", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("Branch", ctx, "MAIN/a").Return(model.Branch{Path: "MAIN/a"}, nil).Twice()
		dir.On("Branch", ctx, "MAIN/b").Return(model.Branch{Path: "MAIN/b"}, nil).Twice()

		b, err := Check(ctx, dir, "MAIN/a..MAIN/b")
		require.NoError(t, err)
		assert.Equal(t, "MAIN/b", b.Path)

		all, err := CheckAll(ctx, dir, "MAIN/a..MAIN/b")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "MAIN/a", all[0].Path)
		assert.Equal(t, "MAIN/b", all[1].Path)
		dir.AssertExpectations(t)
	})

	t.Run("deleted first endpoint stops the check", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("Branch", ctx, "MAIN/a").Return(model.Branch{Path: "MAIN/a", Deleted: true}, nil).Once()

		_, err := Check(ctx, dir, "MAIN/a..MAIN/b")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrBranchDeleted))
		assert.False(t, errors.Is(err, status.ErrNotFound))
		assert.Contains(t, err.Error(), `"MAIN/a"`)

		dir.AssertExpectations(t)
		dir.AssertNotCalled(t, "Branch", ctx, "MAIN/b")
	})

	t.Run("deleted second endpoint", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("Branch", ctx, "MAIN/a").Return(model.Branch{Path: "MAIN/a"}, nil)
		dir.On("Branch", ctx, "MAIN/b").Return(model.Branch{Path: "MAIN/b", Deleted: true}, nil)

		_, err := CheckAll(ctx, dir, "MAIN/a..MAIN/b")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrBranchDeleted))
		assert.Contains(t, err.Error(), `"MAIN/b"`)
	})

	t.Run("invalid path never reaches the directory", func(t *testing.T) {
		dir := new(mockDirectory)
		_, err := Check(ctx, dir, "MAIN..")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPath))
		dir.AssertNotCalled(t, "Branch", mock.Anything, mock.Anything)
	})
}
