package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testutil"
)

// qwEnv lists every variable the command reads from the environment.
var qwEnv = []string{
	"QW_SERVICE", "QW_REPO_URL", "QW_OWNER", "QW_REPO", "QW_BASE_URL",
	"QW_ITEMS_DIR", "QW_STORE_DIR", "QW_FETCH_CONCURRENCY", "QW_CHAIN_START",
	"QW_LOG_LEVEL", "QW_LOG_FORMAT", "QW_NOTIFY_COMMENT",
	"QW_NOTIFY_SLACK_WEBHOOK", "QW_NOTIFY_SLACK_CHANNEL", "QW_NOTIFY_WEBHOOK_URL",
	"QW_TOKEN", "GITHUB_TOKEN", "GITLAB_TOKEN", "GIT_TOKEN",
}

// setupRepo creates a repository directory with the dose items under items/
// and makes it the working directory. The environment is cleared of qw
// settings and HOME points at an empty directory.
func setupRepo(t *testing.T, items []artifact.RawItem) string {
	t.Helper()

	for _, key := range qwEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("HOME", t.TempDir())

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteItemFiles(t, filepath.Join(root, "items"), items)
	t.Chdir(root)
	return root
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runQW(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func mustRun(t *testing.T, args ...string) result {
	t.Helper()
	r := runQW(t, "", args...)
	if r.code != exitOK {
		t.Fatalf("qw %s: exit %d\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), r.code, r.stdout, r.stderr)
	}
	return r
}

func initRepo(t *testing.T, items []artifact.RawItem) string {
	t.Helper()
	root := setupRepo(t, items)
	mustRun(t, "init", "--service", "filesystem", "--items-dir", "items")
	return root
}

func mapTests(t *testing.T, root, table string) {
	t.Helper()
	path := filepath.Join(root, snapshot.DefaultDir, "test_mapping.csv")
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// init
// =============================================================================

func TestInit(t *testing.T) {
	root := setupRepo(t, testutil.DoseItems())

	r := mustRun(t, "init", "--service", "filesystem", "--items-dir", "items")
	if !strings.Contains(r.stdout, "Initialized qw") {
		t.Errorf("stdout = %q", r.stdout)
	}

	for _, name := range []string{"records.json", "components.csv", "checks.yaml", "test_mapping.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(root, snapshot.DefaultDir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	r = mustRun(t, "init")
	if !strings.Contains(r.stdout, "already set up") {
		t.Errorf("second init stdout = %q", r.stdout)
	}
}

func TestInit_OutsideRepository(t *testing.T) {
	for _, key := range qwEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	r := runQW(t, "", "init")
	if r.code != exitFatal {
		t.Fatalf("exit %d, want %d", r.code, exitFatal)
	}
	if !strings.Contains(r.stderr, "git repository") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

// =============================================================================
// check
// =============================================================================

func TestCheck_ExitCodes(t *testing.T) {
	root := initRepo(t, testutil.DoseItems())

	r := runQW(t, "", "check")
	if r.code != exitFindings {
		t.Fatalf("exit %d, want %d\n%s%s", r.code, exitFindings, r.stdout, r.stderr)
	}
	if !strings.Contains(r.stdout, "#15 [Verification has test mapping]") {
		t.Errorf("missing finding for #15:\n%s", r.stdout)
	}

	mapTests(t, root, "test,targets\nTestDoseLimit,#15\n")
	r = mustRun(t, "check")
	if !strings.Contains(r.stdout, "Checked 5 artifacts") || !strings.Contains(r.stdout, "0 errors") {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestCheck_Scoped(t *testing.T) {
	initRepo(t, testutil.DoseItems())

	r := mustRun(t, "check", "--pr", "7", "--pr", "12")
	if !strings.Contains(r.stdout, "Checked 2 artifacts") {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestCheck_DuplicateTestMapping(t *testing.T) {
	root := initRepo(t, testutil.DoseItems())
	mapTests(t, root, "test,targets\nTestDoseLimit,#15\nTestDoseLimit,#15\n")

	r := runQW(t, "", "check")
	if r.code != exitFatal {
		t.Fatalf("exit %d, want %d", r.code, exitFatal)
	}
	if strings.Contains(r.stdout, "Checked") {
		t.Errorf("no report may be printed after a configuration error:\n%s", r.stdout)
	}
}

func TestCheck_NotInitialized(t *testing.T) {
	setupRepo(t, testutil.DoseItems())

	r := runQW(t, "", "check", "--service", "filesystem", "--items-dir", "items")
	if r.code != exitFatal {
		t.Fatalf("exit %d, want %d", r.code, exitFatal)
	}
	if !strings.Contains(r.stderr, "qw init") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestCheck_DotEnv(t *testing.T) {
	root := initRepo(t, testutil.DoseItems())
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("QW_FETCH_CONCURRENCY=0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := runQW(t, "", "check")
	if r.code != exitFatal {
		t.Fatalf("exit %d, want %d", r.code, exitFatal)
	}
	if !strings.Contains(r.stderr, "fetch_concurrency") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

// =============================================================================
// freeze
// =============================================================================

func TestFreeze(t *testing.T) {
	root := initRepo(t, testutil.DoseItems())

	r := mustRun(t, "freeze", "--yes")
	if got := strings.Count(r.stdout, "New item"); got != 5 {
		t.Errorf("got %d new items, want 5:\n%s", got, r.stdout)
	}

	r = mustRun(t, "freeze", "--no")
	if !strings.Contains(r.stdout, "No changes since the last freeze.") {
		t.Errorf("rerun stdout = %q", r.stdout)
	}

	edited := testutil.Requirement(6, "Dose limit", "Doses above 5 ml are rejected.", 1)
	testutil.WriteItemFiles(t, filepath.Join(root, "items"), []artifact.RawItem{edited})

	r = runQW(t, "y\n", "freeze")
	if r.code != exitOK {
		t.Fatalf("exit %d\n%s%s", r.code, r.stdout, r.stderr)
	}
	for _, want := range []string{
		"Increment the version of Requirement #6 (Dose limit) from 1 to 2?",
		"Bumped: Requirement #6 (Dose limit) from version 1 to 2",
		"#7, #12, #15",
	} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, r.stdout)
		}
	}

	store, err := snapshot.NewFileStore(filepath.Join(root, snapshot.DefaultDir)).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := store.Version(6); v != 2 {
		t.Errorf("version of #6 = %d, want 2", v)
	}
}

func TestFreeze_DryRun(t *testing.T) {
	root := initRepo(t, testutil.DoseItems())

	r := mustRun(t, "freeze", "--yes", "--dry-run")
	if !strings.Contains(r.stdout, "Dry run") {
		t.Errorf("stdout = %q", r.stdout)
	}
	store, err := snapshot.NewFileStore(filepath.Join(root, snapshot.DefaultDir)).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("dry run saved %d records", store.Len())
	}
}

func TestFreeze_YesAndNo(t *testing.T) {
	initRepo(t, testutil.DoseItems())

	r := runQW(t, "", "freeze", "--yes", "--no")
	if r.code != exitFatal {
		t.Errorf("exit %d, want %d", r.code, exitFatal)
	}
}

// =============================================================================
// component and config
// =============================================================================

func TestComponent(t *testing.T) {
	initRepo(t, testutil.DoseItems())

	mustRun(t, "component", "add", "Pump", "P", "Infusion pump")
	r := mustRun(t, "component", "list")
	for _, want := range []string{"X     System", "P     Pump    Infusion pump"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("list missing %q:\n%s", want, r.stdout)
		}
	}

	r = runQW(t, "", "component", "add", "Pressure", "P")
	if r.code != exitFatal || !strings.Contains(r.stderr, "already used") {
		t.Errorf("duplicate short code: exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestConfig(t *testing.T) {
	initRepo(t, testutil.DoseItems())

	r := mustRun(t, "config", "get", "service")
	if got, want := strings.TrimSpace(r.stdout), "service=filesystem (local)"; got != want {
		t.Errorf("config get = %q, want %q", got, want)
	}

	mustRun(t, "config", "set", "chain_start", "strict")
	r = mustRun(t, "config", "get", "chain_start")
	if got, want := strings.TrimSpace(r.stdout), "chain_start=strict (local)"; got != want {
		t.Errorf("config get = %q, want %q", got, want)
	}

	t.Setenv("QW_CHAIN_START", "any")
	r = mustRun(t, "config", "get", "chain_start")
	if got, want := strings.TrimSpace(r.stdout), "chain_start=any (env)"; got != want {
		t.Errorf("config get = %q, want %q", got, want)
	}

	r = runQW(t, "", "config", "set", "colour", "on")
	if r.code != exitFatal || !strings.Contains(r.stderr, "Unknown setting") {
		t.Errorf("unknown key: exit %d, stderr %q", r.code, r.stderr)
	}
}
