// Package check validates the traceability graph against a configurable
// rule set.
//
// Each registered Check has a name, a default severity, and either an
// artifact rule (run for every visited artifact of the listed kinds) or a
// global rule (run once). The configuration maps check names to error,
// warning or off:
//
//	cfg, err := check.LoadConfig(".qw/checks.yaml")
//	report, err := check.Run(check.Input{Graph: g, TestMap: table}, cfg)
//	if report.Failed() {
//	    os.Exit(1)
//	}
//
// Only error findings fail a run. Unknown names in the configuration are
// reported under "Check configuration" rather than ignored. Findings are
// sorted by artifact id and check name.
package check
