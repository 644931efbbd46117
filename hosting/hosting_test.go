package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/randalmurphal/qw/artifact"
	qwerrors "github.com/randalmurphal/qw/errors"
)

func TestFetch(t *testing.T) {
	t.Run("merges and sorts", func(t *testing.T) {
		p := NewMockProvider([]artifact.RawItem{
			{ID: 12, IsPR: true},
			{ID: 6},
			{ID: 1},
			{ID: 7, IsPR: true},
		})

		snap, err := Fetch(context.Background(), p, FetchOptions{})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		var ids []artifact.ID
		for _, item := range snap.Items {
			ids = append(ids, item.ID)
		}
		if diff := cmp.Diff([]artifact.ID{1, 6, 7, 12}, ids); diff != "" {
			t.Errorf("ids mismatch (-want +got):\n%s", diff)
		}
		if len(snap.Issues()) != 2 || len(snap.PullRequests()) != 2 {
			t.Errorf("issues/prs = %d/%d, want 2/2", len(snap.Issues()), len(snap.PullRequests()))
		}
		if !snap.IsPR(7) || snap.IsPR(6) || snap.IsPR(99) {
			t.Errorf("IsPR(7, 6, 99) = %v, %v, %v", snap.IsPR(7), snap.IsPR(6), snap.IsPR(99))
		}
		if snap.FetchedAt.IsZero() {
			t.Error("FetchedAt not set")
		}
	})

	t.Run("transport failure aborts", func(t *testing.T) {
		p := &MockProvider{
			ListPullRequestsFunc: func(context.Context) ([]artifact.RawItem, error) {
				return nil, errors.New("502 bad gateway")
			},
		}

		snap, err := Fetch(context.Background(), p, FetchOptions{Concurrency: 1})
		if snap != nil {
			t.Error("expected no snapshot on failure")
		}
		if !qwerrors.IsTransportError(err) {
			t.Errorf("err = %v, want transport error", err)
		}
	})

	t.Run("merge request sharing an issue number", func(t *testing.T) {
		mr1 := artifact.MergeRequestID(1)
		p := NewMockProvider([]artifact.RawItem{
			{ID: 1},
			{ID: mr1, IsPR: true, ClosesIDs: []artifact.ID{1}},
		})

		snap, err := Fetch(context.Background(), p, FetchOptions{})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(snap.Items) != 2 || !snap.IsPR(mr1) || snap.IsPR(1) {
			t.Errorf("items = %+v", snap.Items)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		p := NewMockProvider([]artifact.RawItem{{ID: 3}, {ID: 3, IsPR: true}})

		_, err := Fetch(context.Background(), p, FetchOptions{})
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("err = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &MockProvider{
			ListIssuesFunc: func(ctx context.Context) ([]artifact.RawItem, error) {
				return nil, ctx.Err()
			},
		}
		if _, err := Fetch(ctx, p, FetchOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url     string
		want    Repo
		wantErr bool
	}{
		{url: "git@github.com:acme/pump.git", want: Repo{Host: "github.com", Owner: "acme", Name: "pump"}},
		{url: "https://github.com/acme/pump.git", want: Repo{Host: "github.com", Owner: "acme", Name: "pump"}},
		{url: "https://github.com/acme/pump", want: Repo{Host: "github.com", Owner: "acme", Name: "pump"}},
		{url: "github.com/acme/pump", want: Repo{Host: "github.com", Owner: "acme", Name: "pump"}},
		{url: "git@gitlab.example.com:devices/pumps/firmware.git", want: Repo{Host: "gitlab.example.com", Owner: "devices/pumps", Name: "firmware"}},
		{url: "https://GitLab.com/group/project/", want: Repo{Host: "gitlab.com", Owner: "group", Name: "project"}},
		{url: "git@github.com", wantErr: true},
		{url: "https://github.com/acme", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRepoURL(%q) = %+v, want error", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoURL(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepoURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestDetectService(t *testing.T) {
	tests := []struct {
		url  string
		want Service
		err  error
	}{
		{url: "git@github.com:acme/pump.git", want: ServiceGitHub},
		{url: "https://github.example.com/acme/pump", want: ServiceGitHub},
		{url: "https://gitlab.com/acme/pump", want: ServiceGitLab},
		{url: "https://code.gitlab.internal/acme/pump", want: ServiceGitLab},
		{url: "https://bitbucket.org/acme/pump", err: ErrUnknownService},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := DetectService(tt.url)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectService: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectService(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Run("github from URL", func(t *testing.T) {
		p, err := NewProvider(Config{RepoURL: "https://github.com/acme/pump.git", Token: "t"})
		if err != nil {
			t.Fatalf("NewProvider: %v", err)
		}
		gh, ok := p.(*GitHubProvider)
		if !ok {
			t.Fatalf("provider = %T, want *GitHubProvider", p)
		}
		if gh.owner != "acme" || gh.repo != "pump" {
			t.Errorf("owner/repo = %s/%s", gh.owner, gh.repo)
		}
	})

	t.Run("explicit service and overrides", func(t *testing.T) {
		p, err := NewProvider(Config{Service: ServiceGitLab, Owner: "devices", Repo: "firmware", Token: "t"})
		if err != nil {
			t.Fatalf("NewProvider: %v", err)
		}
		gl, ok := p.(*GitLabProvider)
		if !ok {
			t.Fatalf("provider = %T, want *GitLabProvider", p)
		}
		if gl.projectID != "devices/firmware" {
			t.Errorf("projectID = %q", gl.projectID)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		p, err := NewProvider(Config{Service: ServiceFilesystem, Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("NewProvider: %v", err)
		}
		if _, ok := p.(*DirProvider); !ok {
			t.Fatalf("provider = %T, want *DirProvider", p)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := NewProvider(Config{RepoURL: "https://github.com/acme/pump.git"})
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("err = %v, want ErrNoToken", err)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewProvider(Config{})
		if !errors.Is(err, ErrUnknownService) {
			t.Errorf("err = %v, want ErrUnknownService", err)
		}
	})
}

func TestTokenFromEnv(t *testing.T) {
	for _, name := range tokenEnvVars {
		t.Setenv(name, "")
	}
	if got := TokenFromEnv(); got != "" {
		t.Errorf("TokenFromEnv() = %q, want empty", got)
	}

	t.Setenv("GIT_TOKEN", "fallback")
	t.Setenv("GITLAB_TOKEN", "gitlab")
	if got := TokenFromEnv(); got != "gitlab" {
		t.Errorf("TokenFromEnv() = %q, want gitlab", got)
	}

	t.Setenv("QW_TOKEN", "qw")
	if got := TokenFromEnv(); got != "qw" {
		t.Errorf("TokenFromEnv() = %q, want qw", got)
	}
}

func TestPageIterator(t *testing.T) {
	pages := map[int][]int{1: {1, 2}, 2: {}, 3: {3}}
	var calls []int
	it := NewPageIterator[int](func(_ context.Context, page int) ([]int, int, error) {
		calls = append(calls, page)
		next := page + 1
		if next > 3 {
			next = 0
		}
		return pages[page], next, nil
	})

	all, err := it.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, all); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, calls); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	if it.Fetched() != 3 {
		t.Errorf("Fetched() = %d, want 3", it.Fetched())
	}

	failing := NewPageIterator[int](func(context.Context, int) ([]int, int, error) {
		return nil, 0, errors.New("boom")
	})
	if _, err := failing.All(context.Background()); err == nil {
		t.Error("expected error")
	}
	if _, _, err := failing.Next(context.Background()); err == nil {
		t.Error("error must stick")
	}
}

func TestRetryTransport(t *testing.T) {
	newServer := func(failures int32, status int) (*httptest.Server, *atomic.Int32) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) <= failures {
				w.WriteHeader(status)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		t.Cleanup(server.Close)
		return server, &attempts
	}
	client := func() *http.Client {
		return &http.Client{Transport: &RetryTransport{MaxRetries: 3, RetryWait: time.Millisecond}}
	}

	t.Run("retries server errors on GET", func(t *testing.T) {
		server, attempts := newServer(2, http.StatusServiceUnavailable)
		resp, err := client().Get(server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || attempts.Load() != 3 {
			t.Errorf("status %d after %d attempts, want 200 after 3", resp.StatusCode, attempts.Load())
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		server, attempts := newServer(10, http.StatusTooManyRequests)
		resp, err := client().Get(server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusTooManyRequests || attempts.Load() != 3 {
			t.Errorf("status %d after %d attempts, want 429 after 3", resp.StatusCode, attempts.Load())
		}
	})

	t.Run("does not retry POST", func(t *testing.T) {
		server, attempts := newServer(1, http.StatusBadGateway)
		resp, err := client().Post(server.URL, "text/plain", nil)
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		resp.Body.Close()
		if attempts.Load() != 1 {
			t.Errorf("attempts = %d, want 1", attempts.Load())
		}
	})

	t.Run("client errors pass through", func(t *testing.T) {
		server, attempts := newServer(5, http.StatusNotFound)
		resp, err := client().Get(server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
		if attempts.Load() != 1 {
			t.Errorf("attempts = %d, want 1", attempts.Load())
		}
	})
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("001-user-need.md", "---\nid: 1\ntitle: Safe dosing\nlabels: [qw-user-need]\n---\n### Description\n\nSafe.\n")
	write("006-requirement.md", "---\nid: 6\ntitle: Dose limit\nlabels: [qw-requirement]\nstate: not_planned\n---\n\n### Description\n\nLimit.\n")
	write("007-pr.md", "---\nid: 7\ntitle: Clamp dose\npr: true\nstate: merged\ncloses: [6]\n---")
	write("notes.txt", "ignored")

	p, err := NewDirProvider(dir)
	if err != nil {
		t.Fatalf("NewDirProvider: %v", err)
	}
	ctx := context.Background()

	snap, err := Fetch(ctx, p, FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []artifact.RawItem{
		{ID: 1, Title: "Safe dosing", Body: "### Description\n\nSafe.\n", Labels: []string{"qw-user-need"}, State: artifact.StateOpen},
		{ID: 6, Title: "Dose limit", Body: "### Description\n\nLimit.\n", Labels: []string{"qw-requirement"}, State: artifact.StateClosedNotPlanned},
		{ID: 7, Title: "Clamp dose", State: artifact.StateClosedCompleted, IsPR: true, ClosesIDs: []artifact.ID{6}},
	}
	if diff := cmp.Diff(want, snap.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	ref := artifact.Ref{ID: 7, IsPR: true}
	if err := p.AddLabel(ctx, ref, artifact.LabelNeedsReverification); err != nil {
		t.Fatalf("AddLabel: %v", err)
	}
	labels, err := p.GetLabels(ctx, ref)
	if err != nil {
		t.Fatalf("GetLabels: %v", err)
	}
	if diff := cmp.Diff([]string{artifact.LabelNeedsReverification}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if err := p.RemoveLabel(ctx, ref, artifact.LabelNeedsReverification); err != nil {
		t.Fatalf("RemoveLabel: %v", err)
	}
	if labels, _ := p.GetLabels(ctx, ref); len(labels) != 0 {
		t.Errorf("labels after removal = %v, want none", labels)
	}
	if err := p.RemoveLabel(ctx, artifact.Ref{ID: 1}, "qw-user-need"); err != nil {
		t.Fatalf("RemoveLabel file label: %v", err)
	}
	if labels, _ := p.GetLabels(ctx, artifact.Ref{ID: 1}); len(labels) != 0 {
		t.Errorf("labels of #1 = %v, want the file label hidden", labels)
	}
	if _, err := p.GetLabels(ctx, artifact.Ref{ID: 7}); !errors.Is(err, ErrNotFound) {
		t.Errorf("issue #7 lookup err = %v, want ErrNotFound", err)
	}

	if err := p.AddComment(ctx, ref, "please re-verify"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if diff := cmp.Diff([]string{"please re-verify"}, p.Comments(ref)); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestParseItemFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no front matter", content: "### Description\n"},
		{name: "unterminated", content: "---\nid: 1\n"},
		{name: "unknown key", content: "---\nid: 1\ncolour: red\n---\n"},
		{name: "missing id", content: "---\ntitle: x\n---\n"},
		{name: "bad state", content: "---\nid: 1\nstate: archived\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseItemFile([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewDirProvider_Errors(t *testing.T) {
	if _, err := NewDirProvider(""); err == nil {
		t.Error("expected error for empty dir")
	}
	if _, err := NewDirProvider(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}
