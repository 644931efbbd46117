package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/randalmurphal/qw/artifact"
)

func fixture() *Graph {
	return New([]*artifact.Artifact{
		{ID: 1, Kind: artifact.KindUserNeed},
		{ID: 6, Kind: artifact.KindRequirement},
		{ID: 7, Kind: artifact.KindDesignOutput, IsPR: true},
		{ID: 12, Kind: artifact.KindDesignOutput, IsPR: true},
		{ID: 20, Kind: artifact.KindNonQw},
	})
}

func ids(arts []*artifact.Artifact) []artifact.ID {
	out := make([]artifact.ID, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.ID)
	}
	return out
}

func TestGraph_AddEdge(t *testing.T) {
	t.Run("valid edges", func(t *testing.T) {
		g := fixture()
		for _, e := range []artifact.Edge{
			{Child: 6, Parent: 1},
			{Child: 7, Parent: 6, Closing: true},
			{Child: 12, Parent: 6, Closing: true},
		} {
			if err := g.AddEdge(e); err != nil {
				t.Fatalf("AddEdge(%+v): %v", e, err)
			}
		}
		if diff := cmp.Diff([]artifact.ID{7, 12}, ids(g.Children(6))); diff != "" {
			t.Errorf("Children(6) mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]artifact.ID{1, 6}, ids(g.Ancestors(7))); diff != "" {
			t.Errorf("Ancestors(7) mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]artifact.ID{7, 12}, g.ResolvingPRs(6)); diff != "" {
			t.Errorf("ResolvingPRs(6) mismatch (-want +got):\n%s", diff)
		}
		if got := g.Edges()[0].ParentKind; got != artifact.KindUserNeed {
			t.Errorf("ParentKind = %v, want user need", got)
		}
	})

	t.Run("duplicate edge is ignored", func(t *testing.T) {
		g := fixture()
		_ = g.AddEdge(artifact.Edge{Child: 7, Parent: 6})
		_ = g.AddEdge(artifact.Edge{Child: 7, Parent: 6, Closing: true})
		if n := len(g.Edges()); n != 1 {
			t.Fatalf("got %d edges, want 1", n)
		}
		if !g.Edges()[0].Closing {
			t.Error("closing flag should be merged into the existing edge")
		}
	})

	t.Run("backward edge rejected", func(t *testing.T) {
		g := fixture()
		err := g.AddEdge(artifact.Edge{Child: 1, Parent: 6})
		if !errors.Is(err, ErrChainOrder) {
			t.Errorf("err = %v, want ErrChainOrder", err)
		}
	})

	t.Run("same level rejected", func(t *testing.T) {
		g := fixture()
		if err := g.AddEdge(artifact.Edge{Child: 12, Parent: 7}); !errors.Is(err, ErrChainOrder) {
			t.Errorf("err = %v, want ErrChainOrder", err)
		}
	})

	t.Run("non-QW parent rejected", func(t *testing.T) {
		g := fixture()
		if err := g.AddEdge(artifact.Edge{Child: 6, Parent: 20}); !errors.Is(err, ErrChainOrder) {
			t.Errorf("err = %v, want ErrChainOrder", err)
		}
	})

	t.Run("unknown artifact", func(t *testing.T) {
		g := fixture()
		if err := g.AddEdge(artifact.Edge{Child: 6, Parent: 99}); !errors.Is(err, ErrUnknownArtifact) {
			t.Errorf("err = %v, want ErrUnknownArtifact", err)
		}
	})

	t.Run("self edge", func(t *testing.T) {
		g := fixture()
		if err := g.AddEdge(artifact.Edge{Child: 6, Parent: 6}); !errors.Is(err, ErrSelfEdge) {
			t.Errorf("err = %v, want ErrSelfEdge", err)
		}
	})
}

func TestGraph_Walk(t *testing.T) {
	g := fixture()
	_ = g.AddEdge(artifact.Edge{Child: 7, Parent: 6})
	_ = g.AddEdge(artifact.Edge{Child: 12, Parent: 6})

	var visited []artifact.ID
	g.Walk(func(a *artifact.Artifact) { visited = append(visited, a.ID) })

	// 1 is a terminal (no children), then 7 walks up to 6; 12 reaches 6 again.
	want := []artifact.ID{1, 7, 6, 12}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_Queries(t *testing.T) {
	g := fixture()
	if !g.HasKind(artifact.KindDesignOutput) {
		t.Error("HasKind(design output) = false")
	}
	if g.HasKind(artifact.KindDesignValidation) {
		t.Error("HasKind(design validation) = true")
	}
	if diff := cmp.Diff([]artifact.ID{7, 12}, ids(g.OfKind(artifact.KindDesignOutput))); diff != "" {
		t.Errorf("OfKind mismatch (-want +got):\n%s", diff)
	}
	if n := len(g.QwArtifacts()); n != 4 {
		t.Errorf("QwArtifacts = %d, want 4", n)
	}
	if n := len(g.Artifacts()); n != 5 {
		t.Errorf("Artifacts = %d, want 5", n)
	}
}
