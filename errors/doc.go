// Package errors provides the error taxonomy and CLI error messaging.
//
// Core types:
//   - CLIError: Wraps errors with message, suggestion, and details
//   - ConfigurationError: Malformed check config, test mapping or registry
//   - TransportError: A failed hosting API call
//   - ErrorMessenger: Interface for customizing error messages
//
// Sentinel errors for conditions that abort a run:
//   - ErrNotAuthenticated: The hosting service rejected the token
//   - ErrPermissionDenied: Insufficient permissions
//   - ErrConnectionFailed: Server is unreachable
//   - ErrNotInGitRepo: Command requires a git repository
//   - ErrNotInitialized: The repository has no .qw store
//   - ErrConfiguration: Configuration cannot be trusted
//   - ErrTransport: A hosting API call failed
//   - ErrCorruptStore: The frozen snapshot cannot be read
//
// Per-artifact parse and resolution problems are not errors; they are
// collected as values and reported as findings.
//
// Example usage:
//
//	items, err := provider.ListIssues(ctx)
//	if err != nil {
//	    return errors.WrapAuthError(errors.WrapTransportError("list issues", err))
//	}
//
//	if errors.IsConfigurationError(err) {
//	    // abort before validation
//	}
package errors
