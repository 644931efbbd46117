// Package git locates the working tree a qw project lives in and reads the
// facts qw needs from it: the top-level directory, the origin remote URL
// and the HEAD commit.
//
// Core types:
//   - Context: Git working tree rooted at its top level
//   - CommandRunner: Interface for executing git commands (with mock for testing)
//
// Example usage:
//
//	g, err := git.NewContext(".")
//	if err != nil {
//	    return err
//	}
//	url, err := g.GetRemoteURL(git.DefaultRemote)
package git
