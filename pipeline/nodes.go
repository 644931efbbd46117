package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	qwcontext "github.com/randalmurphal/qw/context"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/notify"
	"github.com/randalmurphal/qw/parse"
	"github.com/randalmurphal/qw/resolve"
)

// Node names.
const (
	NodeFetch      = "fetch"
	NodeParse      = "parse"
	NodeResolve    = "resolve"
	NodeComponents = "components"
	NodeValidate   = "validate"
	NodeLoad       = "load-snapshot"
	NodeFreeze     = "freeze"
	NodeSave       = "save"
	NodeNotify     = "notify"
)

func missing(service string) error {
	return fmt.Errorf("%w: %s", qwcontext.ErrMissingService, service)
}

// FetchNode lists every issue and pull request from the hosting provider.
//
// Updates: Snapshot, or Err on transport failure
func FetchNode(ctx flowgraph.Context, state State) (State, error) {
	provider := qwcontext.Provider(ctx)
	if provider == nil {
		state.Err = missing("hosting provider")
		return state, nil
	}

	snap, err := hosting.Fetch(ctx, provider, hosting.FetchOptions{Concurrency: state.Options.Concurrency})
	if err != nil {
		state.Err = err
		return state, nil
	}
	state.Snapshot = snap
	return state, nil
}

// ParseNode turns raw items into artifacts.
//
// Updates: Artifacts, ParseProblems
func ParseNode(ctx flowgraph.Context, state State) (State, error) {
	state.Artifacts, state.ParseProblems = parse.NewParser().ParseAll(state.Snapshot.Items)
	slog.Debug("parsed artifacts", "run_id", state.RunID,
		"artifacts", len(state.Artifacts), "problems", len(state.ParseProblems))
	return state, nil
}

// ResolveNode links artifacts into the graph, then reads the closure
// reasons of issues closed without a resolving pull request.
//
// Updates: Graph, ResolutionProblems, ParseProblems
func ResolveNode(ctx flowgraph.Context, state State) (State, error) {
	state.Graph, state.ResolutionProblems = resolve.Resolve(state.Artifacts, resolve.Options{
		ChainStart: state.Options.ChainStart,
	})
	state.ParseProblems = append(state.ParseProblems, parse.Closures(state.Graph)...)
	parse.SortProblems(state.ParseProblems)
	slog.Debug("resolved graph", "run_id", state.RunID,
		"edges", len(state.Graph.Edges()), "problems", len(state.ResolutionProblems))
	return state, nil
}

// ComponentsNode loads the component registry. Without a registry in the
// context the default registry is used.
//
// Updates: Components, or Err on a malformed registry
func ComponentsNode(ctx flowgraph.Context, state State) (State, error) {
	registry := qwcontext.Registry(ctx)
	if registry == nil {
		state.Components = artifact.DefaultComponents()
		return state, nil
	}
	components, err := registry.LoadComponents()
	if err != nil {
		state.Err = err
		return state, nil
	}
	state.Components = components
	return state, nil
}

// ValidateNode runs the checks.
//
// Updates: Report
func ValidateNode(ctx flowgraph.Context, state State) (State, error) {
	report, err := check.Run(check.Input{
		Graph:              state.Graph,
		ParseProblems:      state.ParseProblems,
		ResolutionProblems: state.ResolutionProblems,
		TestMap:            state.Options.TestMap,
		Components:         state.Components,
		Issues:             state.Options.Issues,
		PRs:                state.Options.PRs,
	}, state.Options.Checks)
	if err != nil {
		state.Err = err
		return state, nil
	}
	state.Report = report
	return state, nil
}

// LoadSnapshotNode reads the frozen store.
//
// Updates: Previous, or Err on a corrupt store
func LoadSnapshotNode(ctx flowgraph.Context, state State) (State, error) {
	store := qwcontext.Store(ctx)
	if store == nil {
		state.Err = missing("snapshot store")
		return state, nil
	}
	prev, err := store.Load()
	if err != nil {
		state.Err = err
		return state, nil
	}
	state.Previous = prev
	return state, nil
}

// FreezeNode compares the graph with the frozen store, asking the decider
// about every changed artifact.
//
// Updates: Frozen, Changes
func FreezeNode(ctx flowgraph.Context, state State) (State, error) {
	decider := qwcontext.Decider(ctx)
	if decider == nil {
		state.Err = missing("decider")
		return state, nil
	}
	frozen, changes, err := freeze.NewEngine(decider).Freeze(ctx, state.Graph, state.Previous)
	if err != nil {
		state.Err = err
		return state, nil
	}
	state.Frozen, state.Changes = frozen, changes
	return state, nil
}

// SaveNode writes the new store. A dry run saves nothing.
//
// Updates: Saved
func SaveNode(ctx flowgraph.Context, state State) (State, error) {
	if state.Options.DryRun {
		return state, nil
	}
	store := qwcontext.Store(ctx)
	if store == nil {
		state.Err = missing("snapshot store")
		return state, nil
	}
	if err := store.Save(state.Frozen); err != nil {
		state.Err = err
		return state, nil
	}
	state.Saved = true
	return state, nil
}

// NotifyNode sends the run's events. Freeze advisories are also written
// back to the hosting service when Options.Comment is set. Notification
// failures are recorded but never fail the run.
//
// Updates: NotifyErr
func NotifyNode(ctx flowgraph.Context, state State) (State, error) {
	if state.Options.DryRun {
		return state, nil
	}

	var events []notify.Event
	var notifiers []notify.Notifier
	if n := notify.NotifierFromContext(ctx); n != nil {
		notifiers = append(notifiers, n)
	}

	switch {
	case state.Changes != nil:
		events = notify.FreezeEvents(state.Changes, state.Snapshot.IsPR)
		if state.Options.Comment {
			if provider := qwcontext.Provider(ctx); provider != nil {
				notifiers = append(notifiers, notify.NewCommentNotifier(provider, state.Snapshot.IsPR))
			}
		}
	case state.Report != nil:
		events = notify.CheckEvents(state.RunID, state.Report)
	}

	if len(events) == 0 || len(notifiers) == 0 {
		return state, nil
	}
	stampCommit(ctx, events)
	var n notify.Notifier = notify.NewMultiNotifier(notifiers...)
	if len(notifiers) == 1 {
		n = notifiers[0]
	}

	if err := notify.NotifyAll(ctx, n, events); err != nil {
		slog.Warn("notification failed", "run_id", state.RunID, "error", err)
		state.NotifyErr = err
	}
	return state, nil
}

// stampCommit adds the working tree's HEAD to the run summary events.
func stampCommit(ctx flowgraph.Context, events []notify.Event) {
	g := qwcontext.Git(ctx)
	if g == nil {
		return
	}
	head, err := g.HeadCommit()
	if err != nil {
		slog.Debug("no head commit", "error", err)
		return
	}
	for i := range events {
		e := &events[i]
		if e.Type != notify.EventCheckCompleted && e.Type != notify.EventFreezeCompleted {
			continue
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata["commit"] = head
	}
}
