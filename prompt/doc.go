// Package prompt is the terminal face of qw: the interactive version bump
// Decider and the text rendering of check and freeze reports.
//
// Core types:
//   - Decider: Asks y/n questions on a terminal; implements freeze.Decider
//     and freeze.RemovalDecider
//   - Renderer: Renders reports from text/template files
//
// Reports are rendered from embedded templates (check_report, change_report
// and bump). A project can override any of them by placing <name>.tmpl in a
// directory passed to NewRenderer, usually .qw/templates.
//
// Example usage:
//
//	r := prompt.NewRenderer(filepath.Join(storeDir, "templates"))
//	r.Color = true
//	d := prompt.NewDecider(os.Stdin, os.Stdout, r)
//	store, report, err := freeze.NewEngine(d).Freeze(ctx, g, prev)
//	err = r.ChangeReport(os.Stdout, report)
package prompt
