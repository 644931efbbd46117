package integrationtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/pipeline"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testutil"
)

// runGatedFreeze only freezes a repository whose checks pass. It composes
// the pipeline nodes into its own graph.
func runGatedFreeze(ctx context.Context, opts pipeline.Options) (pipeline.State, error) {
	stopOnErr := func(next string) func(flowgraph.Context, pipeline.State) string {
		return func(_ flowgraph.Context, s pipeline.State) string {
			if s.Err != nil {
				return flowgraph.END
			}
			return next
		}
	}

	graph := flowgraph.NewGraph[pipeline.State]().
		AddNode(pipeline.NodeFetch, pipeline.FetchNode).
		AddNode(pipeline.NodeParse, pipeline.ParseNode).
		AddNode(pipeline.NodeResolve, pipeline.ResolveNode).
		AddNode(pipeline.NodeComponents, pipeline.ComponentsNode).
		AddNode(pipeline.NodeValidate, pipeline.ValidateNode).
		AddNode(pipeline.NodeLoad, pipeline.LoadSnapshotNode).
		AddNode(pipeline.NodeFreeze, pipeline.FreezeNode).
		AddNode(pipeline.NodeSave, pipeline.SaveNode).
		AddConditionalEdge(pipeline.NodeFetch, stopOnErr(pipeline.NodeParse)).
		AddConditionalEdge(pipeline.NodeParse, stopOnErr(pipeline.NodeResolve)).
		AddConditionalEdge(pipeline.NodeResolve, stopOnErr(pipeline.NodeComponents)).
		AddConditionalEdge(pipeline.NodeComponents, stopOnErr(pipeline.NodeValidate)).
		AddConditionalEdge(pipeline.NodeValidate, func(_ flowgraph.Context, s pipeline.State) string {
			if s.Err != nil || s.Report.Failed() {
				return flowgraph.END
			}
			return pipeline.NodeLoad
		}).
		AddConditionalEdge(pipeline.NodeLoad, stopOnErr(pipeline.NodeFreeze)).
		AddConditionalEdge(pipeline.NodeFreeze, stopOnErr(pipeline.NodeSave)).
		AddEdge(pipeline.NodeSave, flowgraph.END).
		SetEntry(pipeline.NodeFetch)

	compiled, err := graph.Compile()
	if err != nil {
		return pipeline.State{}, fmt.Errorf("compile gated freeze: %w", err)
	}
	return compiled.Run(flowgraph.NewContext(ctx), pipeline.NewState(opts))
}

func TestGatedFreeze(t *testing.T) {
	tests := []struct {
		name      string
		mapping   string
		wantSaved bool
	}{
		{
			name:      "passing checks freeze",
			mapping:   "test,targets\nTestDoseLimit,#15\n",
			wantSaved: true,
		},
		{
			name:    "failing checks stop before the freeze",
			mapping: "test,targets\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTempRepo(t, testutil.DoseItems())
			s := r.settings(t, nil)
			ctx, _ := setupContext(t, r, s, freeze.Scripted{})

			state, err := runGatedFreeze(ctx, pipeline.Options{
				TestMap:    loadTestMap(t, r, tt.mapping),
				ChainStart: s.ChainStart,
			})
			require.NoError(t, err)
			require.NoError(t, state.Err)
			require.NotNil(t, state.Report)

			assert.Equal(t, tt.wantSaved, state.Saved)
			assert.Equal(t, !tt.wantSaved, state.Report.Failed())

			frozen, err := snapshot.NewFileStore(r.storeDir).Load()
			require.NoError(t, err)
			if tt.wantSaved {
				assert.Equal(t, 5, frozen.Len())
			} else {
				assert.Zero(t, frozen.Len())
			}
		})
	}
}
