package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns a context canceled just before the test's cleanup
// functions run.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	return t.Context()
}

// TestContextWithTimeout is TestContext with a deadline, for runs that
// must not hang on a stuck fake.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), timeout)
	t.Cleanup(cancel)
	return ctx
}
