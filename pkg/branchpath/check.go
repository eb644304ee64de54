package branchpath

import (
	"context"

	"github.com/oneconcern/termstore/pkg/core/status"
	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/oneconcern/termstore/pkg/model"
)

// Directory knows about branches
type Directory interface {
	// Branch fetches a branch by path, or fails with status.ErrNotFound
	Branch(context.Context, string) (model.Branch, error)
}

// Check that all branches addressed by a path expression exist and are not deleted.
//
// The last resolved branch is returned.
func Check(ctx context.Context, dir Directory, pth string) (model.Branch, error) {
	branches, err := CheckAll(ctx, dir, pth)
	if err != nil {
		return model.Branch{}, err
	}
	return branches[len(branches)-1], nil
}

// CheckAll checks all branches addressed by a path expression and returns them all, in order.
//
// It stops at the first missing or deleted branch.
func CheckAll(ctx context.Context, dir Directory, pth string) ([]model.Branch, error) {
	expr, err := Parse(pth)
	if err != nil {
		return nil, err
	}
	candidates := expr.Candidates()
	branches := make([]model.Branch, 0, len(candidates))
	for _, candidate := range candidates {
		branch, err := dir.Branch(ctx, candidate)
		if err != nil {
			if errors.Is(err, status.ErrNotFound) {
				return nil, status.ErrNotFound.WrapMessage("branch %q", candidate)
			}
			return nil, err
		}
		if branch.Deleted {
			return nil, status.ErrBranchDeleted.WrapMessage("branch %q", candidate)
		}
		branches = append(branches, branch)
	}
	return branches, nil
}
