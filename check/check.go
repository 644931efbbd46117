package check

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/graph"
	"github.com/randalmurphal/qw/resolve"
	"github.com/randalmurphal/qw/testmap"
)

// Check is a named rule. Artifact rules run once per visited artifact of a
// matching kind; global rules run once per run.
type Check struct {
	Name        string
	Description string

	// DefaultSeverity applies when the configuration does not list the
	// check. Empty means SeverityError.
	DefaultSeverity Severity

	// Kinds restricts Artifact to these kinds.
	Kinds []artifact.Kind

	// Artifact returns one message per failure.
	Artifact func(env *Env, a *artifact.Artifact) []string

	// Global returns findings not tied to a visited artifact. Check and
	// Severity are filled in by Run.
	Global func(env *Env) []Finding
}

func (c Check) appliesTo(k artifact.Kind) bool {
	for _, kind := range c.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Finding is one failed check.
type Finding struct {
	Check      string      `json:"check"`
	Severity   Severity    `json:"severity"`
	ArtifactID artifact.ID `json:"artifact_id,omitempty"`
	Message    string      `json:"message"`
}

// SortFindings orders findings by artifact, check name, then message.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.ArtifactID != b.ArtifactID {
			return a.ArtifactID < b.ArtifactID
		}
		if a.Check != b.Check {
			return a.Check < b.Check
		}
		return a.Message < b.Message
	})
}

// Report is the outcome of a check run.
type Report struct {
	Findings           []Finding
	ParseProblems      []artifact.ParseProblem
	ResolutionProblems []resolve.ResolutionProblem
	ArtifactsChecked   int
	ChecksRun          int
}

// Failed reports whether any finding has error severity.
func (r *Report) Failed() bool {
	return len(r.Errors()) > 0
}

// Errors returns the error-severity findings.
func (r *Report) Errors() []Finding {
	return r.withSeverity(SeverityError)
}

// Warnings returns the warning-severity findings.
func (r *Report) Warnings() []Finding {
	return r.withSeverity(SeverityWarning)
}

func (r *Report) withSeverity(sev Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// Input is everything a check run looks at.
type Input struct {
	Graph              *graph.Graph
	ParseProblems      []artifact.ParseProblem
	ResolutionProblems []resolve.ResolutionProblem
	TestMap            *testmap.Table
	Components         []artifact.Component

	// Issues and PRs restrict the run to these ids. When both are nil
	// every artifact is checked. Out-of-scope artifacts still count as
	// parents.
	Issues []artifact.ID
	PRs    []artifact.ID

	// Checks defaults to Builtin().
	Checks []Check
}

// Env gives checks indexed access to the run input.
type Env struct {
	Graph      *graph.Graph
	TestMap    *testmap.Table
	Components []artifact.Component
	Config     Config

	checks      []Check
	parse       map[artifact.ID][]artifact.ParseProblem
	resolution  map[artifact.ID][]resolve.ResolutionProblem
	allParse    []artifact.ParseProblem
	scoped      bool
	issues, prs map[artifact.ID]bool
}

// ParseProblems returns the parse problems of id.
func (e *Env) ParseProblems(id artifact.ID) []artifact.ParseProblem {
	return e.parse[id]
}

// ResolutionProblems returns the resolution problems of child id.
func (e *Env) ResolutionProblems(id artifact.ID) []resolve.ResolutionProblem {
	return e.resolution[id]
}

// InScope reports whether id is selected for this run. Pull requests are
// selected by the number the hosting service shows, so a selection of 7
// matches merge request !7.
func (e *Env) InScope(id artifact.ID) bool {
	if !e.scoped {
		return true
	}
	if a, ok := e.Graph.Artifact(id); ok && a.IsPR {
		return e.prs[id] || e.prs[artifact.ID(id.Number())]
	}
	return e.issues[id] || e.prs[id]
}

func newEnv(in Input, cfg Config, checks []Check) *Env {
	env := &Env{
		Graph:      in.Graph,
		TestMap:    in.TestMap,
		Components: in.Components,
		Config:     cfg,
		checks:     checks,
		parse:      make(map[artifact.ID][]artifact.ParseProblem),
		resolution: make(map[artifact.ID][]resolve.ResolutionProblem),
		allParse:   in.ParseProblems,
		scoped:     in.Issues != nil || in.PRs != nil,
		issues:     make(map[artifact.ID]bool),
		prs:        make(map[artifact.ID]bool),
	}
	for _, p := range in.ParseProblems {
		env.parse[p.ArtifactID] = append(env.parse[p.ArtifactID], p)
	}
	for _, p := range in.ResolutionProblems {
		env.resolution[p.Edge.Child] = append(env.resolution[p.Edge.Child], p)
	}
	for _, id := range in.Issues {
		env.issues[id] = true
	}
	for _, id := range in.PRs {
		env.prs[id] = true
	}
	return env
}

// Run applies the checks to the graph. Artifacts are visited by walking up
// from the terminal pull requests, then any artifact the walk missed. Run is
// deterministic: the same input and configuration give the same report.
func Run(in Input, cfg Config) (*Report, error) {
	if in.Graph == nil {
		return nil, errors.New("check: nil graph")
	}
	checks := in.Checks
	if checks == nil {
		checks = Builtin()
	}

	env := newEnv(in, cfg, checks)
	report := &Report{
		ParseProblems:      in.ParseProblems,
		ResolutionProblems: in.ResolutionProblems,
	}

	in.Graph.Walk(func(a *artifact.Artifact) {
		if !env.InScope(a.ID) {
			return
		}
		report.ArtifactsChecked++
		slog.Debug("checking artifact", "artifact", a.ID, "kind", a.Kind)

		for _, c := range checks {
			if c.Artifact == nil || !c.appliesTo(a.Kind) {
				continue
			}
			sev := cfg.Severity(c)
			if sev == SeverityOff {
				continue
			}
			report.ChecksRun++
			for _, msg := range c.Artifact(env, a) {
				report.Findings = append(report.Findings, Finding{
					Check:      c.Name,
					Severity:   sev,
					ArtifactID: a.ID,
					Message:    msg,
				})
			}
		}
	})

	for _, c := range checks {
		if c.Global == nil {
			continue
		}
		sev := cfg.Severity(c)
		if sev == SeverityOff {
			continue
		}
		report.ChecksRun++
		for _, f := range c.Global(env) {
			f.Check = c.Name
			f.Severity = sev
			report.Findings = append(report.Findings, f)
		}
	}

	SortFindings(report.Findings)
	return report, nil
}

// Names returns the names of checks.
func Names(checks []Check) []string {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
	}
	return names
}
