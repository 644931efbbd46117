package main

import (
	"fmt"

	"github.com/spf13/cobra"

	qwcontext "github.com/randalmurphal/qw/context"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/pipeline"
	"github.com/randalmurphal/qw/prompt"
)

type freezeFlags struct {
	yes       bool
	no        bool
	dryRun    bool
	noComment bool
}

func (a *app) freezeCmd() *cobra.Command {
	var flags freezeFlags
	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Record the current version of every item",
		Long: "freeze compares every item with the last frozen snapshot. For each\n" +
			"changed item it asks whether the change warrants a new version. Bumped\n" +
			"versions are commented on the item and its children are labelled\n" +
			"qw-needs-reverification.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFreeze(cmd, flags)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&flags.yes, "yes", "y", false, "Bump the version of every changed item without asking")
	f.BoolVar(&flags.no, "no", false, "Keep every version without asking")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Show the changes without saving or commenting")
	f.BoolVar(&flags.noComment, "no-comment", false, "Do not comment on bumped items")
	cmd.MarkFlagsMutuallyExclusive("yes", "no")
	return cmd
}

func (a *app) runFreeze(cmd *cobra.Command, flags freezeFlags) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	if _, err := a.store(s); err != nil {
		return err
	}

	renderer := a.renderer()
	var decider freeze.Decider
	switch {
	case flags.yes:
		decider = freeze.Scripted{Bump: true}
	case flags.no:
		decider = freeze.Scripted{}
	default:
		decider = prompt.NewDecider(cmd.InOrStdin(), cmd.OutOrStdout(), renderer)
	}

	services, err := qwcontext.NewServices(qwcontext.Config{
		Settings: s,
		Git:      a.gitContext(),
		Decider:  decider,
	})
	if err != nil {
		return err
	}
	ctx := services.InjectAll(cmd.Context())

	state, err := pipeline.RunFreeze(ctx, pipeline.Options{
		ChainStart:  s.ChainStart,
		Concurrency: s.FetchConcurrency,
		Comment:     s.Comment && !flags.noComment,
		DryRun:      flags.dryRun,
	})
	if err != nil {
		return wrapRemote(err, s)
	}

	out := cmd.OutOrStdout()
	if err := renderer.ChangeReport(out, state.Changes); err != nil {
		return fmt.Errorf("render changes: %w", err)
	}
	if flags.dryRun {
		fmt.Fprintln(out, "Dry run: the snapshot was not saved.")
	}
	return nil
}
