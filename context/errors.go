package context

import "errors"

// ErrMissingService indicates a required service was not injected.
var ErrMissingService = errors.New("service not found in context")
