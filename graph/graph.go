// Package graph holds the traceability graph: artifacts plus the resolved
// edges between them.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/qw/artifact"
)

// Sentinel errors for edge insertion.
var (
	ErrUnknownArtifact = errors.New("unknown artifact")
	ErrChainOrder      = errors.New("edge does not point up the chain")
	ErrSelfEdge        = errors.New("artifact cannot be its own parent")
)

// Graph is a set of artifacts and the edges between them. Edges always point
// from a lower chain level to a higher one, so the graph is acyclic.
type Graph struct {
	artifacts map[artifact.ID]*artifact.Artifact
	ids       []artifact.ID
	edges     []artifact.Edge
	parents   map[artifact.ID][]artifact.Edge
	children  map[artifact.ID][]artifact.Edge
}

// New creates a graph over arts with no edges.
func New(arts []*artifact.Artifact) *Graph {
	g := &Graph{
		artifacts: make(map[artifact.ID]*artifact.Artifact, len(arts)),
		parents:   make(map[artifact.ID][]artifact.Edge),
		children:  make(map[artifact.ID][]artifact.Edge),
	}
	for _, a := range arts {
		if _, dup := g.artifacts[a.ID]; !dup {
			g.ids = append(g.ids, a.ID)
		}
		g.artifacts[a.ID] = a
	}
	artifact.SortIDs(g.ids)
	return g
}

// AddEdge links child to parent. Duplicate edges are ignored.
func (g *Graph) AddEdge(e artifact.Edge) error {
	if e.Child == e.Parent {
		return fmt.Errorf("%w: %s", ErrSelfEdge, e.Child)
	}
	child, ok := g.artifacts[e.Child]
	if !ok {
		return fmt.Errorf("%w: child %s", ErrUnknownArtifact, e.Child)
	}
	parent, ok := g.artifacts[e.Parent]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrUnknownArtifact, e.Parent)
	}
	if !parent.Kind.IsQw() || !child.Kind.IsQw() || parent.Kind.Level() >= child.Kind.Level() {
		return fmt.Errorf("%w: %s %s -> %s %s", ErrChainOrder, child.Kind, e.Child, parent.Kind, e.Parent)
	}

	for _, existing := range g.parents[e.Child] {
		if existing.Parent == e.Parent {
			if e.Closing && !existing.Closing {
				g.markClosing(e.Child, e.Parent)
			}
			return nil
		}
	}

	e.ParentKind = parent.Kind
	g.edges = append(g.edges, e)
	g.parents[e.Child] = append(g.parents[e.Child], e)
	g.children[e.Parent] = append(g.children[e.Parent], e)
	return nil
}

func (g *Graph) markClosing(child, parent artifact.ID) {
	set := func(edges []artifact.Edge) {
		for i := range edges {
			if edges[i].Child == child && edges[i].Parent == parent {
				edges[i].Closing = true
			}
		}
	}
	set(g.edges)
	set(g.parents[child])
	set(g.children[parent])
}

// Artifact returns the artifact with the given id.
func (g *Graph) Artifact(id artifact.ID) (*artifact.Artifact, bool) {
	a, ok := g.artifacts[id]
	return a, ok
}

// Artifacts returns every artifact sorted by id, including non-QW items.
func (g *Graph) Artifacts() []*artifact.Artifact {
	out := make([]*artifact.Artifact, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.artifacts[id])
	}
	return out
}

// QwArtifacts returns the QW artifacts sorted by id.
func (g *Graph) QwArtifacts() []*artifact.Artifact {
	var out []*artifact.Artifact
	for _, id := range g.ids {
		if a := g.artifacts[id]; a.Kind.IsQw() {
			out = append(out, a)
		}
	}
	return out
}

// OfKind returns the artifacts of kind k sorted by id.
func (g *Graph) OfKind(k artifact.Kind) []*artifact.Artifact {
	var out []*artifact.Artifact
	for _, id := range g.ids {
		if a := g.artifacts[id]; a.Kind == k {
			out = append(out, a)
		}
	}
	return out
}

// HasKind reports whether any artifact is of kind k.
func (g *Graph) HasKind(k artifact.Kind) bool {
	for _, a := range g.artifacts {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// Edges returns all edges sorted by child, then parent.
func (g *Graph) Edges() []artifact.Edge {
	out := append([]artifact.Edge(nil), g.edges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Child != out[j].Child {
			return out[i].Child < out[j].Child
		}
		return out[i].Parent < out[j].Parent
	})
	return out
}

// Parents returns the direct parents of id sorted by id.
func (g *Graph) Parents(id artifact.ID) []*artifact.Artifact {
	return g.collect(g.parents[id], func(e artifact.Edge) artifact.ID { return e.Parent })
}

// Children returns the direct children of id sorted by id.
func (g *Graph) Children(id artifact.ID) []*artifact.Artifact {
	return g.collect(g.children[id], func(e artifact.Edge) artifact.ID { return e.Child })
}

func (g *Graph) collect(edges []artifact.Edge, pick func(artifact.Edge) artifact.ID) []*artifact.Artifact {
	ids := make([]artifact.ID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, pick(e))
	}
	artifact.SortIDs(ids)
	out := make([]*artifact.Artifact, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.artifacts[id])
	}
	return out
}

// ResolvingPRs returns the pull requests whose closing links resolve id.
func (g *Graph) ResolvingPRs(id artifact.ID) []artifact.ID {
	var out []artifact.ID
	for _, e := range g.children[id] {
		if e.Closing {
			out = append(out, e.Child)
		}
	}
	return artifact.SortIDs(out)
}

// Ancestors returns every artifact reachable by following parent edges from
// id, sorted by id.
func (g *Graph) Ancestors(id artifact.ID) []*artifact.Artifact {
	seen := make(map[artifact.ID]bool)
	var walk func(artifact.ID)
	walk = func(cur artifact.ID) {
		for _, e := range g.parents[cur] {
			if !seen[e.Parent] {
				seen[e.Parent] = true
				walk(e.Parent)
			}
		}
	}
	walk(id)

	ids := make([]artifact.ID, 0, len(seen))
	for anc := range seen {
		ids = append(ids, anc)
	}
	artifact.SortIDs(ids)
	out := make([]*artifact.Artifact, 0, len(ids))
	for _, anc := range ids {
		out = append(out, g.artifacts[anc])
	}
	return out
}

// Terminals returns the QW artifacts with no children, sorted by id.
func (g *Graph) Terminals() []*artifact.Artifact {
	var out []*artifact.Artifact
	for _, id := range g.ids {
		a := g.artifacts[id]
		if a.Kind.IsQw() && len(g.children[id]) == 0 {
			out = append(out, a)
		}
	}
	return out
}

// Walk visits the QW artifacts reachable upward from the terminals, then any
// QW artifact not reached that way. Each artifact is visited once, terminals
// in id order and parents before moving on to the next terminal.
func (g *Graph) Walk(visit func(*artifact.Artifact)) {
	seen := make(map[artifact.ID]bool)
	var up func(*artifact.Artifact)
	up = func(a *artifact.Artifact) {
		if seen[a.ID] {
			return
		}
		seen[a.ID] = true
		visit(a)
		for _, p := range g.Parents(a.ID) {
			up(p)
		}
	}
	for _, t := range g.Terminals() {
		up(t)
	}
	for _, a := range g.QwArtifacts() {
		up(a)
	}
}
