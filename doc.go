// Package qw traces medical device design artifacts kept as issues and pull
// requests on a hosted git service.
//
// The package is organized into subpackages by concern:
//
//   - artifact: Artifact kinds, raw items, components, content hashing
//   - parse: Issue form tokenizer and artifact parser
//   - resolve: Parent link resolution into a graph
//   - graph: The artifact graph and its queries
//   - check: Chain validation checks, severity config, reports
//   - testmap: Test mapping table
//   - freeze: Version and staleness engine
//   - snapshot: Frozen snapshot store and component registry
//   - hosting: GitHub, GitLab and filesystem providers
//   - notify: Comment, log, Slack and webhook notifications
//   - pipeline: flowgraph runs of check and freeze
//   - config: Hierarchical settings
//   - context: Service injection
//   - prompt: Terminal decider and report rendering
//   - errors: CLI errors and sentinels
//   - git: Repository root and remote lookup
//   - testutil: Test fixtures
//
// # Quick Start
//
//	items := []artifact.RawItem{...}
//	a := qw.Analyze(items, resolve.Options{})
//	report, err := qw.Check(a, qw.CheckOptions{Config: cfg})
//	if report.Failed() {
//	    // error findings
//	}
//
//	next, changes, err := qw.Freeze(ctx, a, prev, decider)
//
// The qw command in cmd/qw wires these together with a hosting provider and
// the .qw store directory.
package qw
