package hosting

import "errors"

// Hosting errors.
var (
	// ErrUnknownService indicates the remote URL names no supported service.
	ErrUnknownService = errors.New("unknown hosting service")

	// ErrNotFound indicates the issue or pull request does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrDuplicateID indicates an issue and a pull request share a number.
	// GitLab numbers merge requests independently of issues, so a repository
	// with overlapping numbers cannot be tracked by id alone.
	ErrDuplicateID = errors.New("issue and pull request share an id")

	// ErrNoToken indicates no access token was configured.
	ErrNoToken = errors.New("no access token configured")
)
