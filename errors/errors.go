package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that abort a whole run.
var (
	// ErrNotAuthenticated indicates the hosting service rejected the token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotInGitRepo indicates the command requires a git repository.
	ErrNotInGitRepo = errors.New("not in a git repository")

	// ErrNotInitialized indicates the repository has no .qw store yet.
	ErrNotInitialized = errors.New("qw is not initialized in this repository")

	// ErrConnectionFailed indicates the server is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConfiguration indicates malformed check configuration, test mapping
	// or component registry. Downstream checks cannot be trusted.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport indicates a hosting API call failed.
	ErrTransport = errors.New("transport error")

	// ErrCorruptStore indicates the frozen snapshot cannot be read.
	ErrCorruptStore = errors.New("corrupt snapshot store")
)

// ConfigurationError locates a configuration problem.
type ConfigurationError struct {
	// Source names the file or table, e.g. ".qw/checks.yaml".
	Source string

	// Line is 1-based, or 0 when the problem is not tied to a line.
	Line int

	Reason string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(source string, line int, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Source: source, Line: line, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Source == "":
		return "configuration error: " + e.Reason
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Source, e.Reason)
	}
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError wraps a failed hosting API call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// WrapTransportError marks err as a transport failure of op.
func WrapTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}
