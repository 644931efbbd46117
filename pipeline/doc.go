// Package pipeline runs qw commands as flowgraph graphs.
//
// A check run is fetch, parse, resolve, components, validate, notify. A
// freeze run is fetch, parse, resolve, load-snapshot, freeze, save, notify.
// Each node reads its services from the context (see the qw context
// package) and its inputs from State. A node that fails stores the error
// in State.Err and the graph ends there.
//
// Example usage:
//
//	ctx = services.InjectAll(ctx)
//	state, err := pipeline.RunCheck(ctx, pipeline.Options{Checks: cfg})
//	if err != nil {
//	    return err
//	}
//	if state.Report.Failed() {
//	    os.Exit(1)
//	}
package pipeline
