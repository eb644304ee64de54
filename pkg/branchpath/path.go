// Package branchpath classifies branch path expressions and checks the
// availability of the branches they address.
//
// A path expression is a branch path such as "MAIN/project/task", optionally
// suffixed with an at-ref marker ("MAIN/a@", the current head) or a base-ref
// marker ("MAIN/a^", the fork point), or two such expressions joined by a
// range separator ("MAIN/a^..MAIN/a").
package branchpath

import (
	"regexp"
	"strings"

	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/oneconcern/termstore/pkg/model"
)

const (
	// RangeSeparator joins the two endpoints of a range expression
	RangeSeparator = ".."

	// AtRefMarker addresses the current head of a branch
	AtRefMarker = "@"

	// BaseRefMarker addresses the fork point of a branch
	BaseRefMarker = "^"
)

// ErrInvalidPath indicates a malformed branch path expression
var ErrInvalidPath = errors.New("invalid branch path")

var segmentRex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Kind of branch path expression
type Kind uint8

// Kinds of path expressions, in classification priority order
const (
	Range Kind = iota + 1
	AtRef
	BaseRef
	Plain
)

func (k Kind) String() string {
	switch k {
	case Range:
		return "range"
	case AtRef:
		return "at-ref"
	case BaseRef:
		return "base-ref"
	case Plain:
		return "plain"
	default:
		return "unknown"
	}
}

// Expression is a classified branch path expression
type Expression struct {
	Raw  string
	Kind Kind

	// From and To are the endpoints of a range expression
	From *Expression
	To   *Expression

	// Branch is the branch identity addressed by a non-range expression
	Branch string
}

// Parse classifies a path expression.
//
// Classification is total: a path which is not a range, nor suffixed by a ref
// marker, is a plain path.
func Parse(pth string) (Expression, error) {
	if idx := strings.Index(pth, RangeSeparator); idx >= 0 {
		left, right := pth[:idx], pth[idx+len(RangeSeparator):]
		if left == "" || right == "" {
			return Expression{}, ErrInvalidPath.WrapMessage("range %q must join two non-empty paths", pth)
		}
		from, err := parseRef(left)
		if err != nil {
			return Expression{}, err
		}
		to, err := parseRef(right)
		if err != nil {
			return Expression{}, err
		}
		return Expression{Raw: pth, Kind: Range, From: &from, To: &to}, nil
	}
	return parseRef(pth)
}

func parseRef(pth string) (Expression, error) {
	e := Expression{Raw: pth, Kind: Plain, Branch: pth}
	switch {
	case strings.HasSuffix(pth, AtRefMarker):
		e.Kind = AtRef
		e.Branch = strings.TrimSuffix(pth, AtRefMarker)
	case strings.HasSuffix(pth, BaseRefMarker):
		e.Kind = BaseRef
		e.Branch = strings.TrimSuffix(pth, BaseRefMarker)
	}
	if err := Validate(e.Branch); err != nil {
		return Expression{}, ErrInvalidPath.WrapMessage("%q", pth)
	}
	return e, nil
}

// Validate that a branch identity is made of valid segments
func Validate(branch string) error {
	if branch == "" {
		return ErrInvalidPath.WrapMessage("empty path")
	}
	for _, segment := range strings.Split(branch, model.BranchSeparator) {
		if !segmentRex.MatchString(segment) || strings.Contains(segment, RangeSeparator) {
			return ErrInvalidPath.WrapMessage("invalid segment %q in %q", segment, branch)
		}
	}
	return nil
}

// Candidates yields the branch identities to check, in order
func (e Expression) Candidates() []string {
	if e.Kind == Range {
		return []string{e.From.Branch, e.To.Branch}
	}
	return []string{e.Branch}
}

// Target is the expression which addresses the resolved ref: the second endpoint of a range, or the expression itself
func (e Expression) Target() Expression {
	if e.Kind == Range {
		return *e.To
	}
	return e
}

func (e Expression) String() string {
	return e.Raw
}
