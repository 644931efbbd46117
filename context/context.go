package context

import (
	"context"

	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/git"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/snapshot"
)

// =============================================================================
// Context Injection Helpers
// =============================================================================
// These helpers allow qw services to be injected into context.Context
// for use by flowgraph nodes.

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

// Context keys for qw services
const (
	gitServiceKey      serviceContextKey = "qw.git"
	providerServiceKey serviceContextKey = "qw.provider"
	storeServiceKey    serviceContextKey = "qw.store"
	registryServiceKey serviceContextKey = "qw.registry"
	deciderServiceKey  serviceContextKey = "qw.decider"
)

// WithGit adds a Git context to the context
func WithGit(ctx context.Context, gitCtx *git.Context) context.Context {
	return context.WithValue(ctx, gitServiceKey, gitCtx)
}

// Git extracts Git context from context
func Git(ctx context.Context) *git.Context {
	if gitCtx, ok := ctx.Value(gitServiceKey).(*git.Context); ok {
		return gitCtx
	}
	return nil
}

// WithProvider adds the hosting provider to the context.
func WithProvider(ctx context.Context, p hosting.Provider) context.Context {
	return context.WithValue(ctx, providerServiceKey, p)
}

// Provider extracts the hosting provider from context.
func Provider(ctx context.Context) hosting.Provider {
	if p, ok := ctx.Value(providerServiceKey).(hosting.Provider); ok {
		return p
	}
	return nil
}

// MustProvider extracts the hosting provider or panics.
func MustProvider(ctx context.Context) hosting.Provider {
	p := Provider(ctx)
	if p == nil {
		panic("qw/context: hosting.Provider not found in context")
	}
	return p
}

// WithStore adds the snapshot persister to the context.
func WithStore(ctx context.Context, store snapshot.Persister) context.Context {
	return context.WithValue(ctx, storeServiceKey, store)
}

// Store extracts the snapshot persister from context.
func Store(ctx context.Context) snapshot.Persister {
	if s, ok := ctx.Value(storeServiceKey).(snapshot.Persister); ok {
		return s
	}
	return nil
}

// WithRegistry adds the component registry to the context.
func WithRegistry(ctx context.Context, r snapshot.Registry) context.Context {
	return context.WithValue(ctx, registryServiceKey, r)
}

// Registry extracts the component registry from context.
func Registry(ctx context.Context) snapshot.Registry {
	if r, ok := ctx.Value(registryServiceKey).(snapshot.Registry); ok {
		return r
	}
	return nil
}

// WithDecider adds the version bump decider to the context.
func WithDecider(ctx context.Context, d freeze.Decider) context.Context {
	return context.WithValue(ctx, deciderServiceKey, d)
}

// Decider extracts the version bump decider from context.
func Decider(ctx context.Context) freeze.Decider {
	if d, ok := ctx.Value(deciderServiceKey).(freeze.Decider); ok {
		return d
	}
	return nil
}
