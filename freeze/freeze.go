package freeze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/graph"
	"github.com/randalmurphal/qw/snapshot"
)

// Finding check names raised by a freeze.
const (
	RemovedItem            = "Removed item"
	ChildrenReflectVersion = "Children reflect updated version"
)

// Action is what a freeze did to one record.
type Action string

// Actions.
const (
	ActionNew      Action = "new"
	ActionBumped   Action = "bumped"
	ActionUpdated  Action = "updated"
	ActionRestored Action = "restored"
	ActionRemoved  Action = "removed"
	ActionDropped  Action = "dropped"
)

// Change records what happened to one artifact.
type Change struct {
	ID              artifact.ID   `json:"id"`
	Kind            artifact.Kind `json:"kind"`
	Title           string        `json:"title"`
	Action          Action        `json:"action"`
	PreviousVersion int           `json:"previous_version,omitempty"`
	Version         int           `json:"version,omitempty"`
	Diff            []FieldDiff   `json:"diff,omitempty"`

	// StaleChildren lists direct children still tagged with an older
	// version of a bumped artifact.
	StaleChildren []artifact.ID `json:"stale_children,omitempty"`

	// Reverified is set when an artifact that named an older version of a
	// parent was recorded again against its parents' current versions.
	Reverified bool `json:"reverified,omitempty"`
}

// DisplayName renders "Requirement #6 (Dose limit)".
func (c Change) DisplayName() string {
	a := artifact.Artifact{ID: c.ID, Kind: c.Kind, Title: c.Title}
	return a.DisplayName()
}

// ChangeReport summarises a freeze.
type ChangeReport struct {
	ID       string          `json:"id"`
	Changes  []Change        `json:"changes"`
	Findings []check.Finding `json:"findings"`
}

// Empty reports whether the freeze changed nothing.
func (r *ChangeReport) Empty() bool {
	return len(r.Changes) == 0 && len(r.Findings) == 0
}

// Bumped returns the changes that incremented a version.
func (r *ChangeReport) Bumped() []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Action == ActionBumped {
			out = append(out, c)
		}
	}
	return out
}

// Engine compares the current graph with the frozen store.
type Engine struct {
	Decider Decider
}

// NewEngine creates an engine that asks d about every content change.
func NewEngine(d Decider) *Engine {
	return &Engine{Decider: d}
}

// Freeze computes the next store from the graph and the previous store.
//
// Artifacts are processed in chain order, then by id, so that parents are
// settled before their children record which parent versions they saw.
//   - A new artifact is added at version 1 without asking.
//   - An unchanged artifact keeps its record.
//   - A changed artifact is shown to the Decider. Confirming increments the
//     version; declining records the new content at the same version.
//   - A frozen artifact that is gone is reported once and marked deleted,
//     or dropped if the Decider is a RemovalDecider that agrees.
//
// prev is never modified. A Decider error aborts the freeze and no store is
// returned.
func (e *Engine) Freeze(ctx context.Context, g *graph.Graph, prev *snapshot.Store) (*snapshot.Store, *ChangeReport, error) {
	if e.Decider == nil {
		return nil, nil, errors.New("freeze: no decider")
	}
	if g == nil {
		return nil, nil, errors.New("freeze: nil graph")
	}

	id, err := nanoid.New()
	if err != nil {
		return nil, nil, fmt.Errorf("generate report id: %w", err)
	}
	report := &ChangeReport{ID: id}
	next := snapshot.NewStore()

	arts := g.QwArtifacts()
	sort.SliceStable(arts, func(i, j int) bool {
		li, lj := arts[i].Kind.Level(), arts[j].Kind.Level()
		if li != lj {
			return li < lj
		}
		return arts[i].ID < arts[j].ID
	})

	present := make(map[artifact.ID]bool, len(arts))
	var bumped []artifact.ID

	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		present[a.ID] = true

		rec, ok := prev.Get(a.ID)
		switch {
		case !ok:
			next.Put(snapshot.FromArtifact(a, 1, parentVersions(g, a, next)))
			report.Changes = append(report.Changes, Change{
				ID: a.ID, Kind: a.Kind, Title: a.Title, Action: ActionNew, Version: 1,
			})
			slog.Debug("new artifact", "artifact", a.ID, "kind", a.Kind)

		case rec.ContentHash == a.ContentHash:
			if rec.Deleted {
				rec.Deleted = false
				report.Changes = append(report.Changes, Change{
					ID: a.ID, Kind: a.Kind, Title: a.Title, Action: ActionRestored,
					PreviousVersion: rec.Version, Version: rec.Version,
				})
			}
			next.Put(rec)

		default:
			diff := Diff(rec, a)
			confirmed, err := e.Decider.ConfirmVersionBump(ctx, a, rec, diff)
			if err != nil {
				return nil, nil, fmt.Errorf("confirm version bump for %s: %w", a.ID, err)
			}

			change := Change{
				ID: a.ID, Kind: a.Kind, Title: a.Title, Action: ActionUpdated,
				PreviousVersion: rec.Version, Version: rec.Version, Diff: diff,
				Reverified: wasStale(rec, prev),
			}
			if confirmed {
				change.Action = ActionBumped
				change.Version = rec.Version + 1
				bumped = append(bumped, a.ID)
			}
			next.Put(snapshot.FromArtifact(a, change.Version, parentVersions(g, a, next)))
			report.Changes = append(report.Changes, change)
			slog.Info("artifact changed", "artifact", a.ID, "action", change.Action,
				"from", change.PreviousVersion, "to", change.Version)
		}
	}

	for i := range report.Changes {
		c := &report.Changes[i]
		if c.Action != ActionBumped {
			continue
		}
		c.StaleChildren = staleChildren(g, c.ID, c.Version, next)
		if len(c.StaleChildren) == 0 {
			continue
		}
		report.Findings = append(report.Findings, check.Finding{
			Check:      ChildrenReflectVersion,
			Severity:   check.SeverityWarning,
			ArtifactID: c.ID,
			Message: fmt.Sprintf("%s %s is now version %d; please ensure one of these resolves the updated version: %s",
				c.Kind, c.ID, c.Version, joinIDs(c.StaleChildren)),
		})
	}

	if err := e.removed(ctx, prev, present, next, report); err != nil {
		return nil, nil, err
	}

	check.SortFindings(report.Findings)
	slog.Debug("freeze complete", "report", report.ID, "changes", len(report.Changes),
		"bumped", len(bumped), "records", next.Len())
	return next, report, nil
}

// removed handles records whose artifact is no longer in the graph.
func (e *Engine) removed(ctx context.Context, prev *snapshot.Store, present map[artifact.ID]bool, next *snapshot.Store, report *ChangeReport) error {
	remover, canRemove := e.Decider.(RemovalDecider)

	for _, rec := range prev.Records() {
		if present[rec.ID] {
			continue
		}
		if rec.Deleted {
			next.Put(rec)
			continue
		}

		drop := false
		if canRemove {
			var err error
			drop, err = remover.ConfirmRemoval(ctx, rec)
			if err != nil {
				return fmt.Errorf("confirm removal of %s: %w", rec.ID, err)
			}
		}

		change := Change{ID: rec.ID, Kind: rec.Kind, Title: rec.Title, PreviousVersion: rec.Version}
		msg := fmt.Sprintf("%s no longer exists", rec.DisplayName())
		if drop {
			change.Action = ActionDropped
			msg += "; removed from the store"
		} else {
			change.Action = ActionRemoved
			change.Version = rec.Version
			rec.Deleted = true
			next.Put(rec)
		}
		report.Changes = append(report.Changes, change)
		report.Findings = append(report.Findings, check.Finding{
			Check:      RemovedItem,
			Severity:   check.SeverityWarning,
			ArtifactID: rec.ID,
			Message:    msg,
		})
		slog.Warn("frozen artifact removed", "artifact", rec.ID, "dropped", drop)
	}
	return nil
}

// parentVersions records the version of each resolved parent of a. Parents
// sit higher in the chain, so next already holds them.
func parentVersions(g *graph.Graph, a *artifact.Artifact, next *snapshot.Store) map[artifact.ID]int {
	parents := g.Parents(a.ID)
	if len(parents) == 0 {
		return nil
	}
	out := make(map[artifact.ID]int, len(parents))
	for _, p := range parents {
		out[p.ID] = next.Version(p.ID)
	}
	return out
}

// wasStale reports whether rec named an older version of one of its parents
// than prev holds.
func wasStale(rec snapshot.Record, prev *snapshot.Store) bool {
	for parent, v := range rec.ParentVersions {
		if v < prev.Version(parent) {
			return true
		}
	}
	return false
}

// staleChildren returns the direct children of id whose record still names
// an older version of it.
func staleChildren(g *graph.Graph, id artifact.ID, version int, next *snapshot.Store) []artifact.ID {
	var out []artifact.ID
	for _, child := range g.Children(id) {
		rec, ok := next.Get(child.ID)
		if !ok || rec.ParentVersions[id] < version {
			out = append(out, child.ID)
		}
	}
	return artifact.SortIDs(out)
}

func joinIDs(ids []artifact.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
