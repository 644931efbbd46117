package check

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/errors"
	"github.com/randalmurphal/qw/parse"
	"github.com/randalmurphal/qw/resolve"
	"github.com/randalmurphal/qw/testmap"
)

// =============================================================================
// Test Helpers
// =============================================================================

func userNeed(id artifact.ID) artifact.RawItem {
	return artifact.RawItem{ID: id, Title: "Need", Labels: []string{artifact.LabelUserNeed}, State: artifact.StateOpen}
}

func requirement(id artifact.ID, body string) artifact.RawItem {
	return artifact.RawItem{ID: id, Title: "Req", Labels: []string{artifact.LabelRequirement}, State: artifact.StateOpen, Body: body}
}

func pr(id artifact.ID, label string, closes ...artifact.ID) artifact.RawItem {
	item := artifact.RawItem{ID: id, Title: "PR", IsPR: true, State: artifact.StateOpen, ClosesIDs: closes}
	if label != "" {
		item.Labels = []string{label}
	}
	return item
}

// build runs the parse and resolve stages the way the pipeline does.
func build(t *testing.T, items []artifact.RawItem) Input {
	t.Helper()
	arts, parseProblems := parse.NewParser().ParseAll(items)
	g, resProblems := resolve.Resolve(arts, resolve.Options{})
	parseProblems = append(parseProblems, parse.Closures(g)...)
	parse.SortProblems(parseProblems)
	return Input{
		Graph:              g,
		ParseProblems:      parseProblems,
		ResolutionProblems: resProblems,
		Components:         artifact.DefaultComponents(),
		TestMap:            &testmap.Table{Source: "mapping.csv"},
	}
}

func run(t *testing.T, in Input, cfg Config) *Report {
	t.Helper()
	report, err := Run(in, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func findingsFor(report *Report, check string) []Finding {
	var out []Finding
	for _, f := range report.Findings {
		if f.Check == check {
			out = append(out, f)
		}
	}
	return out
}

func healthy() []artifact.RawItem {
	return []artifact.RawItem{
		userNeed(1),
		requirement(6, "### Parent user need\n#1\n### Component\nX"),
		pr(7, "", 6),
		pr(12, "", 6),
		pr(15, artifact.LabelDesignVerification, 6),
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestRun_Healthy(t *testing.T) {
	in := build(t, healthy())
	in.TestMap.Rows = []testmap.Row{{Line: 2, Test: "TestDose", Targets: []artifact.ID{15}}}

	report := run(t, in, Config{})
	if len(report.Findings) != 0 {
		t.Errorf("unexpected findings: %+v", report.Findings)
	}
	if report.Failed() {
		t.Error("healthy graph should not fail")
	}
	if report.ArtifactsChecked != 5 {
		t.Errorf("ArtifactsChecked = %d, want 5", report.ArtifactsChecked)
	}
	if report.ChecksRun == 0 {
		t.Error("no checks ran")
	}
}

func TestRun_NoParentIssue(t *testing.T) {
	items := append(healthy(), pr(20, ""))
	in := build(t, items)
	in.TestMap.Rows = []testmap.Row{{Test: "TestDose", Targets: []artifact.ID{15}}}

	var noParent []resolve.ResolutionProblem
	for _, p := range in.ResolutionProblems {
		if p.Code == resolve.CodeNoParent {
			noParent = append(noParent, p)
		}
	}
	if len(noParent) != 1 || noParent[0].Reason != resolve.NoParentReason || noParent[0].Edge.Child != 20 {
		t.Fatalf("resolution problems = %v", in.ResolutionProblems)
	}

	report := run(t, in, Config{})
	want := []Finding{{
		Check:      NoParentIssue,
		Severity:   SeverityError,
		ArtifactID: 20,
		Message:    resolve.NoParentReason,
	}}
	if diff := cmp.Diff(want, report.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if !report.Failed() {
		t.Error("error finding should fail the run")
	}
}

func TestRun_NoParentIssue_BodyLinkOnly(t *testing.T) {
	linked := pr(20, "")
	linked.Body = "### Linked issue\n\n#6"
	in := build(t, append(healthy(), linked))
	in.TestMap.Rows = []testmap.Row{{Test: "TestDose", Targets: []artifact.ID{15}}}

	report := run(t, in, Config{})
	want := []Finding{{
		Check:      NoParentIssue,
		Severity:   SeverityError,
		ArtifactID: 20,
		Message:    resolve.NoParentReason,
	}}
	if diff := cmp.Diff(want, report.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if len(in.Graph.Parents(20)) != 1 {
		t.Error("body link should still be an edge")
	}
}

func TestRun_IgnoredPRHasNoProblems(t *testing.T) {
	in := build(t, []artifact.RawItem{pr(20, artifact.LabelIgnore)})
	report := run(t, in, Config{})
	if len(in.ResolutionProblems) != 0 || len(report.Findings) != 0 {
		t.Errorf("ignored PR produced problems %v / findings %v", in.ResolutionProblems, report.Findings)
	}
}

func TestRun_RequirementLinks(t *testing.T) {
	items := []artifact.RawItem{
		userNeed(1),
		requirement(2, "### Parent user need\n#1"),
		requirement(6, "### Parent user need\n#2 #99"),
		requirement(8, ""),
	}
	report := run(t, build(t, items), Config{Severities: map[string]Severity{VerificationHasTests: SeverityOff}})

	labelled := findingsFor(report, UserNeedLinksLabelled)
	if len(labelled) != 2 || labelled[0].ArtifactID != 6 {
		t.Errorf("%s findings = %+v", UserNeedLinksLabelled, labelled)
	}

	exist := findingsFor(report, UserNeedLinksExist)
	var ids []artifact.ID
	for _, f := range exist {
		ids = append(ids, f.ArtifactID)
	}
	if diff := cmp.Diff([]artifact.ID{6, 8}, ids); diff != "" {
		t.Errorf("%s ids mismatch (-want +got):\n%s", UserNeedLinksExist, diff)
	}
}

// Every requirement without a "User Need links must exist" finding has a
// user need ancestor in the graph.
func TestRun_UserNeedProperty(t *testing.T) {
	items := []artifact.RawItem{
		userNeed(1),
		userNeed(3),
		requirement(2, "### Parent user need\n#1"),
		requirement(4, "### Parent user need\n#3, #2"),
		requirement(5, "### Parent user need\n#4"),
		requirement(6, "### Parent user need\nnone yet"),
		requirement(7, "### Parent user need\n#50"),
	}
	in := build(t, items)
	report := run(t, in, Config{})

	flagged := make(map[artifact.ID]bool)
	for _, f := range findingsFor(report, UserNeedLinksExist) {
		flagged[f.ArtifactID] = true
	}
	for _, req := range in.Graph.OfKind(artifact.KindRequirement) {
		if flagged[req.ID] {
			continue
		}
		found := false
		for _, anc := range in.Graph.Ancestors(req.ID) {
			if anc.Kind == artifact.KindUserNeed {
				found = true
			}
		}
		if !found {
			t.Errorf("requirement %s passed without a user need ancestor", req.ID)
		}
	}
}

func TestRun_UserNeedLinksLabelled_ForeignRef(t *testing.T) {
	items := append(healthy(), requirement(30, "### Parent user need\n#1, other/repo#3\n### Component\nX"))
	report := run(t, build(t, items), Config{})

	want := []Finding{{
		Check:      UserNeedLinksLabelled,
		Severity:   SeverityError,
		ArtifactID: 30,
		Message:    "other/repo#3 refers to another repository",
	}}
	if diff := cmp.Diff(want, findingsFor(report, UserNeedLinksLabelled)); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ClosingIssuesAreRequirements(t *testing.T) {
	items := []artifact.RawItem{
		userNeed(1),
		{ID: 3, Title: "plain issue"},
		pr(7, "", 3),
		pr(8, "", 99),
	}
	report := run(t, build(t, items), Config{})

	got := findingsFor(report, ClosingIssuesAreReqs)
	want := []Finding{
		{Check: ClosingIssuesAreReqs, Severity: SeverityError, ArtifactID: 7, Message: "#3 is not a QW item"},
		{Check: ClosingIssuesAreReqs, Severity: SeverityError, ArtifactID: 8, Message: "#99 does not exist in this repository"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if n := len(findingsFor(report, ParentLinksResolve)); n != 0 {
		t.Errorf("closing links reported twice (%d %s findings)", n, ParentLinksResolve)
	}
}

func TestRun_ComponentRegistered(t *testing.T) {
	items := []artifact.RawItem{
		userNeed(1),
		requirement(2, "### Parent user need\n#1\n### Component\nDosing (D)"),
		requirement(3, "### Parent user need\n#1\n### Component\nX"),
	}
	report := run(t, build(t, items), Config{})
	got := findingsFor(report, ComponentRegistered)
	if len(got) != 1 || got[0].ArtifactID != 2 || !strings.Contains(got[0].Message, `"D"`) {
		t.Errorf("findings = %+v", got)
	}
}

func TestRun_TestMapping(t *testing.T) {
	in := build(t, healthy())
	in.TestMap.Issues = []testmap.Issue{{Line: 4, Reason: "TestX: empty target"}}

	report := run(t, in, Config{})

	want := []Finding{
		{Check: TestMappingWellFormed, Severity: SeverityError, Message: "mapping.csv line 4: TestX: empty target"},
		{Check: VerificationHasTests, Severity: SeverityError, ArtifactID: 15, Message: "no test in the test mapping targets #15"},
	}
	if diff := cmp.Diff(want, report.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ClosureAndParseProblems(t *testing.T) {
	notPlanned := requirement(2, "### Parent user need\n#1")
	notPlanned.State = artifact.StateClosedNotPlanned
	items := []artifact.RawItem{
		userNeed(1),
		notPlanned,
		requirement(3, "### Parent user need\n#1\n### Type of requirement\nmagic"),
		{ID: 4, Labels: []string{artifact.LabelUserNeed, artifact.LabelRequirement}},
	}
	report := run(t, build(t, items), Config{})

	closure := findingsFor(report, ClosureReasonValid)
	if len(closure) != 1 || closure[0].ArtifactID != 2 {
		t.Errorf("%s findings = %+v", ClosureReasonValid, closure)
	}
	clean := findingsFor(report, ArtifactParsesCleanly)
	var ids []artifact.ID
	for _, f := range clean {
		ids = append(ids, f.ArtifactID)
	}
	if diff := cmp.Diff([]artifact.ID{3, 4}, ids); diff != "" {
		t.Errorf("%s ids mismatch (-want +got):\n%s", ArtifactParsesCleanly, diff)
	}
}

// =============================================================================
// Severity Tests
// =============================================================================

func TestRun_SeverityPolicy(t *testing.T) {
	items := append(healthy(), pr(20, ""))

	t.Run("off removes findings", func(t *testing.T) {
		report := run(t, build(t, items), Config{Severities: map[string]Severity{
			NoParentIssue:        SeverityOff,
			VerificationHasTests: SeverityOff,
		}})
		if n := len(findingsFor(report, NoParentIssue)); n != 0 {
			t.Errorf("got %d findings for a check that is off", n)
		}
		if report.Failed() {
			t.Error("run should pass with the failing checks off")
		}
	})

	t.Run("warning never fails", func(t *testing.T) {
		report := run(t, build(t, items), Config{Severities: map[string]Severity{
			NoParentIssue:        SeverityWarning,
			VerificationHasTests: SeverityWarning,
		}})
		if len(report.Warnings()) != 2 {
			t.Errorf("warnings = %+v", report.Warnings())
		}
		if report.Failed() {
			t.Error("warnings must not fail the run")
		}
	})
}

func TestRun_UnknownCheckName(t *testing.T) {
	cfg := Config{Source: "checks.yaml", Severities: map[string]Severity{
		"No such check":      SeverityError,
		VerificationHasTests: SeverityOff,
	}}
	report := run(t, build(t, healthy()), cfg)

	want := []Finding{{
		Check:    CheckConfiguration,
		Severity: SeverityWarning,
		Message:  `unknown check "No such check" in checks.yaml`,
	}}
	if diff := cmp.Diff(want, report.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if report.Failed() {
		t.Error("misconfiguration defaults to a warning")
	}
}

func TestRun_Idempotent(t *testing.T) {
	items := append(healthy(), pr(20, ""), requirement(30, "### Parent user need\n#77"))
	in := build(t, items)

	first := run(t, in, Config{})
	second := run(t, in, Config{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestRun_Scope(t *testing.T) {
	items := append(healthy(), pr(20, ""), requirement(30, "### Parent user need\n#77"))
	in := build(t, items)
	in.PRs = []artifact.ID{20}

	report := run(t, in, Config{})
	for _, f := range report.Findings {
		if f.ArtifactID != 20 {
			t.Errorf("finding outside scope: %+v", f)
		}
	}
	if report.ArtifactsChecked != 1 {
		t.Errorf("ArtifactsChecked = %d, want 1", report.ArtifactsChecked)
	}
}

func TestRun_NilGraph(t *testing.T) {
	if _, err := Run(Input{}, Config{}); err == nil {
		t.Error("expected error for nil graph")
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestParseConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input := "checks:\n  Verification has test mapping: Warning\n  Component must be registered: off\n"
		cfg, err := ParseConfig(strings.NewReader(input), "checks.yaml")
		if err != nil {
			t.Fatalf("ParseConfig: %v", err)
		}
		want := map[string]Severity{
			VerificationHasTests: SeverityWarning,
			ComponentRegistered:  SeverityOff,
		}
		if diff := cmp.Diff(want, cfg.Severities); diff != "" {
			t.Errorf("Severities mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		cfg, err := ParseConfig(strings.NewReader(""), "checks.yaml")
		if err != nil || len(cfg.Severities) != 0 {
			t.Errorf("ParseConfig(empty) = %+v, %v", cfg, err)
		}
	})

	t.Run("bad severity", func(t *testing.T) {
		_, err := ParseConfig(strings.NewReader("checks:\n  Parent links resolve: fatal\n"), "checks.yaml")
		if !errors.IsConfigurationError(err) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := ParseConfig(strings.NewReader("checks: [unclosed"), "checks.yaml")
		if !errors.IsConfigurationError(err) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	for _, c := range Builtin() {
		want := SeverityError
		if c.Name == CheckConfiguration {
			want = SeverityWarning
		}
		if got := cfg.Severity(c); got != want {
			t.Errorf("default severity of %q = %v, want %v", c.Name, got, want)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	var sb strings.Builder
	if err := WriteDefaultConfig(&sb, Builtin()); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	cfg, err := ParseConfig(strings.NewReader(sb.String()), "checks.yaml")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Severities) != len(Builtin()) {
		t.Errorf("got %d entries, want %d", len(cfg.Severities), len(Builtin()))
	}
	if unknown := cfg.Unknown(Builtin()); len(unknown) != 0 {
		t.Errorf("unknown names in default config: %v", unknown)
	}
}
