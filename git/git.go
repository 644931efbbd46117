package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultRemote is the remote whose URL identifies the hosted repository.
const DefaultRemote = "origin"

// Context runs git commands against one working tree.
type Context struct {
	root   string        // Top level of the working tree
	runner CommandRunner // Command runner (defaults to ExecRunner)
}

// Option configures Context.
type Option func(*Context)

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// NewContext creates a git context for the working tree containing path.
// The context is rooted at the top level of that tree, so it can be created
// from any subdirectory.
func NewContext(path string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	g := &Context{runner: NewExecRunner()}
	for _, opt := range opts {
		opt(g)
	}

	root, err := g.runner.Run(absPath, "git", "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return nil, ErrNotGitRepo
	}
	g.root = filepath.Clean(root)
	return g, nil
}

// Root returns the top level of the working tree.
func (g *Context) Root() string {
	return g.root
}

// CurrentBranch returns the current branch name.
func (g *Context) CurrentBranch() (string, error) {
	branch, err := g.runGit("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Cmd: "rev-parse --abbrev-ref HEAD", Err: err}
	}
	return branch, nil
}

// HeadCommit returns the SHA of HEAD.
func (g *Context) HeadCommit() (string, error) {
	sha, err := g.runGit("rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Cmd: "rev-parse HEAD", Err: err}
	}
	return sha, nil
}

// GetRemoteURL returns the URL of a remote.
func (g *Context) GetRemoteURL(remote string) (string, error) {
	url, err := g.runGit("remote", "get-url", remote)
	if err != nil {
		if strings.Contains(err.Error(), "No such remote") {
			return "", fmt.Errorf("%w: %s", ErrNoRemote, remote)
		}
		return "", &Error{Op: "get remote url", Cmd: "remote get-url " + remote, Err: err}
	}
	return url, nil
}

// runGit executes a git command at the root and returns stdout.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runner.Run(g.root, "git", args...)
}
