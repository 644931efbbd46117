// Package hosting reads issues and pull requests from a hosted git service
// and writes advisory comments and labels back.
//
// # Providers
//
// Provider is implemented for GitHub (GitHubProvider), GitLab
// (GitLabProvider) and a directory of markdown files (DirProvider) that
// serves offline runs and fixtures. MockProvider is a func-field fake for
// tests.
//
//	provider, err := hosting.NewProvider(hosting.Config{
//	    RepoURL: remoteURL,
//	    Token:   hosting.TokenFromEnv(),
//	})
//	if err != nil {
//	    return err
//	}
//
// # Fetching
//
// Fetch lists issues and pull requests concurrently and merges them into one
// immutable Snapshot. Any failure aborts the whole fetch, so callers never see
// a partial repository:
//
//	snap, err := hosting.Fetch(ctx, provider, hosting.FetchOptions{Concurrency: 4})
//	if err != nil {
//	    return err // errors.IsTransportError(err) is true
//	}
//
// GitHub pull requests do not expose their closing issues over REST, so
// closing links are read from "closes #N" keywords in the body. GitLab
// reports them through the closes-on-merge endpoint.
package hosting
