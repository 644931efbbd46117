package freeze

import (
	"context"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/snapshot"
)

// Decider answers whether a changed artifact gets a new version. It is
// called once per changed artifact, in chain order, and never concurrently.
type Decider interface {
	ConfirmVersionBump(ctx context.Context, a *artifact.Artifact, prev snapshot.Record, diff []FieldDiff) (bool, error)
}

// RemovalDecider is an optional extension of Decider. When the engine's
// Decider implements it, a frozen artifact that disappeared may be dropped
// from the store instead of being kept and marked deleted.
type RemovalDecider interface {
	ConfirmRemoval(ctx context.Context, prev snapshot.Record) (bool, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, a *artifact.Artifact, prev snapshot.Record, diff []FieldDiff) (bool, error)

// ConfirmVersionBump implements Decider.
func (f DeciderFunc) ConfirmVersionBump(ctx context.Context, a *artifact.Artifact, prev snapshot.Record, diff []FieldDiff) (bool, error) {
	return f(ctx, a, prev, diff)
}

// Scripted gives the same answer to every question. It serves
// non-interactive runs such as CI.
type Scripted struct {
	Bump   bool
	Remove bool
}

// ConfirmVersionBump implements Decider.
func (s Scripted) ConfirmVersionBump(context.Context, *artifact.Artifact, snapshot.Record, []FieldDiff) (bool, error) {
	return s.Bump, nil
}

// ConfirmRemoval implements RemovalDecider.
func (s Scripted) ConfirmRemoval(context.Context, snapshot.Record) (bool, error) {
	return s.Remove, nil
}
