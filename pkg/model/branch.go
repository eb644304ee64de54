package model

import (
	"strings"
	"time"
)

const (
	// MainPath is the path of the root branch of every repository
	MainPath = "MAIN"

	// BranchSeparator separates segments in a branch path
	BranchSeparator = "/"
)

// Branch models a node in the revision tree
type Branch struct {
	Path          string `json:"path" yaml:"path"`
	Parent        string `json:"parent,omitempty" yaml:"parent,omitempty"`
	BaseTimestamp int64  `json:"baseTimestamp" yaml:"baseTimestamp"` // fork point on the parent branch
	HeadTimestamp int64  `json:"headTimestamp" yaml:"headTimestamp"` // timestamp of the last commit on this branch
	Deleted       bool   `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	_             struct{}
}

// Name of the branch, i.e. the last segment of its path
func (b Branch) Name() string {
	if idx := strings.LastIndex(b.Path, BranchSeparator); idx >= 0 {
		return b.Path[idx+1:]
	}
	return b.Path
}

// IsMain tells if this is the root branch
func (b Branch) IsMain() bool {
	return b.Path == MainPath
}

// Head yields the time of the last commit
func (b Branch) Head() time.Time {
	return TimestampToTime(b.HeadTimestamp)
}

// ChildPath builds the path of a child branch
func ChildPath(parent, name string) string {
	return parent + BranchSeparator + name
}

// ParentPath yields the path of the parent of some branch path, or the empty string for MAIN
func ParentPath(pth string) string {
	if idx := strings.LastIndex(pth, BranchSeparator); idx >= 0 {
		return pth[:idx]
	}
	return ""
}

// Branches is a sortable slice of Branch
type Branches []Branch

func (b Branches) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}
func (b Branches) Len() int {
	return len(b)
}
func (b Branches) Less(i, j int) bool {
	return b[i].Path < b[j].Path
}
