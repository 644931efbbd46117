// Package resolve turns the parent references claimed by artifacts into graph
// edges, collecting every reference that cannot be honoured as a problem.
package resolve

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/graph"
)

// ChainStart decides whether a link may skip chain levels.
type ChainStart string

// Chain-start policies.
const (
	// ChainStartAny lets a chain start at any level: a design validation
	// may link straight to a user need.
	ChainStartAny ChainStart = "any"

	// ChainStartStrict only allows skipping levels that no artifact in the
	// repository occupies.
	ChainStartStrict ChainStart = "strict"
)

// ParseChainStart validates a policy name. The empty string means ChainStartAny.
func ParseChainStart(s string) (ChainStart, error) {
	switch ChainStart(s) {
	case "", ChainStartAny:
		return ChainStartAny, nil
	case ChainStartStrict:
		return ChainStartStrict, nil
	default:
		return "", fmt.Errorf("unknown chain start policy %q (want %q or %q)", s, ChainStartAny, ChainStartStrict)
	}
}

// ProblemCode classifies a resolution problem.
type ProblemCode string

// Problem codes.
const (
	CodeUnresolved ProblemCode = "unresolved"
	CodeForeign    ProblemCode = "foreign"
	CodeWrongKind  ProblemCode = "wrong-kind"
	CodeNoParent   ProblemCode = "no-parent"
)

// NoParentReason is the message attached to pull requests with no parent.
const NoParentReason = "No parent issue is given for a PR"

// ResolutionProblem is a reference that did not become an edge.
type ResolutionProblem struct {
	Code ProblemCode

	// Edge is the offending edge. Parent is zero for CodeNoParent and
	// CodeForeign.
	Edge artifact.Edge

	// Ref is the raw reference for CodeForeign.
	Ref string

	Reason string
}

func (p ResolutionProblem) String() string {
	return fmt.Sprintf("%s: %s", p.Edge.Child, p.Reason)
}

// Options configures Resolve.
type Options struct {
	ChainStart ChainStart
}

// Resolve builds the graph for arts. Unresolvable references are omitted
// from the graph and reported; they never abort resolution.
func Resolve(arts []*artifact.Artifact, opts Options) (*graph.Graph, []ResolutionProblem) {
	g := graph.New(arts)
	r := &resolver{g: g, opts: opts, present: make(map[artifact.Kind]bool)}
	for _, a := range arts {
		r.present[a.Kind] = true
	}

	for _, a := range g.QwArtifacts() {
		r.resolve(a)
	}

	sort.SliceStable(r.problems, func(i, j int) bool {
		a, b := r.problems[i], r.problems[j]
		if a.Edge.Child != b.Edge.Child {
			return a.Edge.Child < b.Edge.Child
		}
		if a.Edge.Parent != b.Edge.Parent {
			return a.Edge.Parent < b.Edge.Parent
		}
		return a.Code < b.Code
	})
	return g, r.problems
}

type resolver struct {
	g        *graph.Graph
	opts     Options
	present  map[artifact.Kind]bool
	problems []ResolutionProblem
}

func (r *resolver) problem(code ProblemCode, edge artifact.Edge, format string, args ...any) {
	r.problems = append(r.problems, ResolutionProblem{
		Code:   code,
		Edge:   edge,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (r *resolver) resolve(a *artifact.Artifact) {
	// Only a closing link names a pull request's parent issue. Links in the
	// body still become edges below.
	if a.IsPR && len(a.ClosesIDs) == 0 {
		r.problem(CodeNoParent, artifact.Edge{Child: a.ID}, NoParentReason)
	}

	for _, ref := range a.ForeignRefs {
		r.problems = append(r.problems, ResolutionProblem{
			Code:   CodeForeign,
			Edge:   artifact.Edge{Child: a.ID},
			Ref:    ref,
			Reason: fmt.Sprintf("%s refers to another repository", ref),
		})
	}

	for _, ref := range a.ParentRefs {
		edge := artifact.Edge{Child: a.ID, Parent: ref, Closing: a.IsClosing(ref)}

		parent, ok := r.g.Artifact(ref)
		if !ok {
			r.problem(CodeUnresolved, edge, "%s does not exist in this repository", ref)
			continue
		}
		edge.ParentKind = parent.Kind

		if parent.Kind == artifact.KindNonQw {
			if artifact.HasLabel(parent.Labels, artifact.LabelIgnore) {
				slog.Debug("skipping link to ignored item", "child", a.ID, "parent", ref)
				continue
			}
			r.problem(CodeWrongKind, edge, "%s is not a QW item", ref)
			continue
		}

		if !r.allowed(a.Kind, parent.Kind) {
			if a.Kind.Level() == 0 {
				r.problem(CodeWrongKind, edge, "%s cannot be the parent of a user need", ref)
				continue
			}
			r.problem(CodeWrongKind, edge, "%s is a %s, expected %s",
				ref, lower(parent.Kind), lower(artifact.Chain[a.Kind.Level()-1]))
			continue
		}

		if err := r.g.AddEdge(edge); err != nil {
			r.problem(CodeWrongKind, edge, "%v", err)
		}
	}
}

// allowed reports whether child may link to parent under the chain-start
// policy.
func (r *resolver) allowed(child, parent artifact.Kind) bool {
	cl, pl := child.Level(), parent.Level()
	if pl < 0 || pl >= cl {
		return false
	}
	if pl == cl-1 {
		return true
	}
	if r.opts.ChainStart != ChainStartStrict {
		return true
	}
	for lvl := pl + 1; lvl < cl; lvl++ {
		if r.present[artifact.Chain[lvl]] {
			return false
		}
	}
	return true
}

func lower(k artifact.Kind) string {
	return strings.ToLower(k.String())
}
