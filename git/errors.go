package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not inside a git working tree.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNoRemote indicates the named remote is not configured.
	ErrNoRemote = errors.New("no such remote")
)

// Error wraps a git command error with context.
type Error struct {
	Op     string // Operation that failed (e.g., "get remote url")
	Cmd    string // Git command that was run
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
