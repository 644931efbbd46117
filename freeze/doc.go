// Package freeze compares the live graph with the frozen snapshot and
// decides new versions.
//
// A content change is shown to a Decider, which either bumps the version or
// lets the new content stand at the old version. When an artifact is bumped,
// its direct children that were frozen against the older version are listed
// in a "Children reflect updated version" finding so that someone checks
// they still hold.
//
//	engine := freeze.NewEngine(prompt.NewDecider(os.Stdin, os.Stdout))
//	next, report, err := engine.Freeze(ctx, g, prev)
//	if err != nil {
//	    return err // prev is untouched
//	}
//	return store.Save(next)
package freeze
