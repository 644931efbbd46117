// Package context injects qw services into context.Context for the
// pipeline's flowgraph nodes.
//
// Core types:
//   - Services: The hosting provider, snapshot store, component registry,
//     decider and notifier of one run
//   - Config: Inputs to NewServices
//
// Context injection functions:
//   - WithGit/Git: Git working tree
//   - WithProvider/Provider: Hosting provider
//   - WithStore/Store: Snapshot persister
//   - WithRegistry/Registry: Component registry
//   - WithDecider/Decider: Version bump decider
//
// The notifier is injected with notify.WithNotifier.
//
// Example usage:
//
//	services, err := context.NewServices(context.Config{
//	    Settings: settings,
//	    Git:      gitCtx,
//	    Decider:  prompt.NewDecider(os.Stdin, os.Stdout),
//	})
//	ctx = services.InjectAll(ctx)
package context
