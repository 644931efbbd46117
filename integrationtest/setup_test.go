package integrationtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/config"
	qwcontext "github.com/randalmurphal/qw/context"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/git"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/notify"
	"github.com/randalmurphal/qw/testutil"
)

// repo is a temporary git repository with a directory of item files.
type repo struct {
	root     string
	itemsDir string
	storeDir string
}

// setupTempRepo creates a temporary git repository with one commit and
// writes items under its items directory.
func setupTempRepo(t *testing.T, items []artifact.RawItem) *repo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	r := &repo{
		root:     dir,
		itemsDir: filepath.Join(dir, "items"),
		storeDir: filepath.Join(dir, ".qw"),
	}
	if err := os.MkdirAll(r.storeDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	r.writeItems(t, items)
	return r
}

// writeItems replaces the item files with items.
func (r *repo) writeItems(t *testing.T, items []artifact.RawItem) {
	t.Helper()
	if err := os.RemoveAll(r.itemsDir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	testutil.WriteItemFiles(t, r.itemsDir, items)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// settings resolves the qw settings of the repository the way the command
// does, with the filesystem service and the given extra values.
func (r *repo) settings(t *testing.T, extra map[string]string) config.Settings {
	t.Helper()

	flags := map[string]string{
		config.KeyService:  string(hosting.ServiceFilesystem),
		config.KeyItemsDir: r.itemsDir,
	}
	for k, v := range extra {
		flags[k] = v
	}

	resolver := config.NewResolverWithPaths(
		config.DefaultResolverConfig(), "", filepath.Join(r.root, config.LocalConfigName),
	)
	s, err := resolver.ResolveWithFlags(flags).Settings(r.root)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	return s
}

// head returns the commit checked out in the repository.
func (r *repo) head(t *testing.T) string {
	t.Helper()
	g, err := git.NewContext(r.root)
	if err != nil {
		t.Fatalf("git.NewContext: %v", err)
	}
	sha, err := g.HeadCommit()
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	return sha
}

// setupContext builds the services from settings and injects them.
func setupContext(t *testing.T, r *repo, s config.Settings, d freeze.Decider) (context.Context, *qwcontext.Services) {
	t.Helper()

	gitCtx, err := git.NewContext(r.root)
	if err != nil {
		t.Fatalf("git.NewContext: %v", err)
	}

	services, err := qwcontext.NewServices(qwcontext.Config{
		Settings: s,
		Git:      gitCtx,
		Decider:  d,
	})
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	return services.InjectAll(testutil.TestContext(t)), services
}

// webhook collects the events posted to a test server.
type webhook struct {
	mu     sync.Mutex
	events []notify.Event
}

func newWebhook(t *testing.T) (*webhook, string) {
	t.Helper()
	w := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		var e notify.Event
		if err := json.NewDecoder(req.Body).Decode(&e); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.mu.Lock()
		w.events = append(w.events, e)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return w, srv.URL
}

// event returns the first event of type typ.
func (w *webhook) event(typ notify.EventType) (notify.Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.events {
		if e.Type == typ {
			return e, true
		}
	}
	return notify.Event{}, false
}

func (w *webhook) types() []notify.EventType {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]notify.EventType, 0, len(w.events))
	for _, e := range w.events {
		out = append(out, e.Type)
	}
	return out
}
