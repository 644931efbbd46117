package pipeline

import (
	"context"
	"fmt"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// stage is one node of a linear run.
type stage struct {
	name string
	fn   flowgraph.NodeFunc[State]
}

// checkStages are the nodes of a check run, in order.
var checkStages = []stage{
	{NodeFetch, FetchNode},
	{NodeParse, ParseNode},
	{NodeResolve, ResolveNode},
	{NodeComponents, ComponentsNode},
	{NodeValidate, ValidateNode},
	{NodeNotify, NotifyNode},
}

var freezeStages = []stage{
	{NodeFetch, FetchNode},
	{NodeParse, ParseNode},
	{NodeResolve, ResolveNode},
	{NodeLoad, LoadSnapshotNode},
	{NodeFreeze, FreezeNode},
	{NodeSave, SaveNode},
	{NodeNotify, NotifyNode},
}

// run chains stages into a graph and executes it. Every node routes to
// END once State.Err is set.
func run(ctx context.Context, stages []stage, opts Options) (*State, error) {
	g := flowgraph.NewGraph[State]()
	for _, s := range stages {
		g.AddNode(s.name, s.fn)
	}
	for i, s := range stages {
		next := flowgraph.END
		if i+1 < len(stages) {
			next = stages[i+1].name
		}
		g.AddConditionalEdge(s.name, func(ctx flowgraph.Context, state State) string {
			if state.Err != nil {
				return flowgraph.END
			}
			return next
		})
	}
	g.SetEntry(stages[0].name)

	compiled, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile pipeline: %w", err)
	}

	state, err := compiled.Run(flowgraph.NewContext(ctx), NewState(opts))
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	return &state, state.Err
}

// RunCheck fetches, parses and resolves the repository, then runs the
// checks. The returned state carries the report. A failing check is not an
// error; callers look at State.Report.Failed.
//
// Services are read from ctx: a hosting provider is required, the component
// registry and notifier are optional.
func RunCheck(ctx context.Context, opts Options) (*State, error) {
	return run(ctx, checkStages, opts)
}

// RunFreeze fetches, parses and resolves the repository, then freezes it
// against the stored snapshot and saves the result.
//
// Services are read from ctx: a hosting provider, a snapshot store and a
// decider are required, the notifier is optional. On error the store is
// left untouched.
func RunFreeze(ctx context.Context, opts Options) (*State, error) {
	return run(ctx, freezeStages, opts)
}
