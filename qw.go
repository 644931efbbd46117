package qw

import (
	"context"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/graph"
	"github.com/randalmurphal/qw/parse"
	"github.com/randalmurphal/qw/resolve"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testmap"
)

// Analysis is a parsed and resolved set of items.
type Analysis struct {
	Artifacts          []*artifact.Artifact
	ParseProblems      []artifact.ParseProblem
	Graph              *graph.Graph
	ResolutionProblems []resolve.ResolutionProblem
}

// Analyze parses items and resolves their links. Problems are collected,
// never returned as errors.
func Analyze(items []artifact.RawItem, opts resolve.Options) *Analysis {
	arts, parseProblems := parse.NewParser().ParseAll(items)
	g, resProblems := resolve.Resolve(arts, opts)
	parseProblems = append(parseProblems, parse.Closures(g)...)
	parse.SortProblems(parseProblems)
	return &Analysis{
		Artifacts:          arts,
		ParseProblems:      parseProblems,
		Graph:              g,
		ResolutionProblems: resProblems,
	}
}

// CheckOptions are the explicit inputs of Check.
type CheckOptions struct {
	Config  check.Config
	TestMap *testmap.Table

	// Components defaults to artifact.DefaultComponents.
	Components []artifact.Component

	// Issues and PRs restrict the report to these ids.
	Issues []artifact.ID
	PRs    []artifact.ID
}

// Check runs the checks over an analysis. The report fails when any finding
// has error severity.
func Check(a *Analysis, opts CheckOptions) (*check.Report, error) {
	components := opts.Components
	if components == nil {
		components = artifact.DefaultComponents()
	}
	return check.Run(check.Input{
		Graph:              a.Graph,
		ParseProblems:      a.ParseProblems,
		ResolutionProblems: a.ResolutionProblems,
		TestMap:            opts.TestMap,
		Components:         components,
		Issues:             opts.Issues,
		PRs:                opts.PRs,
	}, opts.Config)
}

// Freeze compares an analysis with the previous snapshot, asking d about
// every changed artifact. prev is never modified.
func Freeze(ctx context.Context, a *Analysis, prev *snapshot.Store, d freeze.Decider) (*snapshot.Store, *freeze.ChangeReport, error) {
	return freeze.NewEngine(d).Freeze(ctx, a.Graph, prev)
}
