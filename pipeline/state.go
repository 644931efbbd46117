package pipeline

import (
	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/graph"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/resolve"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testmap"
)

// Options are the explicit inputs of a run. They are loaded once by the
// caller; nodes never read configuration files.
type Options struct {
	// Checks is the severity configuration of a check run.
	Checks check.Config

	// TestMap is the test mapping table. Nil means an empty table.
	TestMap *testmap.Table

	ChainStart resolve.ChainStart

	// Issues and PRs restrict a check run to these ids.
	Issues []artifact.ID
	PRs    []artifact.ID

	// Concurrency bounds parallel hosting API calls.
	Concurrency int

	// Comment writes freeze advisories back to the hosting service.
	Comment bool

	// DryRun computes a freeze without saving the store or notifying.
	DryRun bool
}

// State flows through the pipeline nodes.
type State struct {
	RunID   string
	Options Options

	// Fetch
	Snapshot *hosting.Snapshot

	// Parse and resolve
	Artifacts          []*artifact.Artifact
	ParseProblems      []artifact.ParseProblem
	Graph              *graph.Graph
	ResolutionProblems []resolve.ResolutionProblem
	Components         []artifact.Component

	// Check
	Report *check.Report

	// Freeze
	Previous *snapshot.Store
	Frozen   *snapshot.Store
	Changes  *freeze.ChangeReport
	Saved    bool

	// NotifyErr is the last notification failure. It never fails a run.
	NotifyErr error

	// Err is the fatal error that stopped the run.
	Err error
}

// NewState creates the state of a new run with a fresh run id.
func NewState(opts Options) State {
	return State{
		RunID:   nanoid.Must(),
		Options: opts,
	}
}
