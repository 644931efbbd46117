package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	qwcontext "github.com/randalmurphal/qw/context"
	"github.com/randalmurphal/qw/pipeline"
	"github.com/randalmurphal/qw/testmap"
)

func (a *app) checkCmd() *cobra.Command {
	var issues, prs []int
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the traceability chain",
		Long: "check fetches every issue and pull request, links them into the chain\n" +
			"and runs the checks configured in checks.yaml. It exits 1 when any\n" +
			"finding has error severity.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd, toIDs(issues), toIDs(prs))
		},
	}
	f := cmd.Flags()
	f.IntSliceVar(&issues, "issue", nil, "Only check these issues")
	f.IntSliceVar(&prs, "pr", nil, "Only check these pull requests")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, issues, prs []artifact.ID) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	store, err := a.store(s)
	if err != nil {
		return err
	}

	// Configuration errors abort before anything is fetched.
	cfg, err := check.LoadConfig(filepath.Join(store.Dir, check.DefaultConfigFile))
	if err != nil {
		return err
	}
	table, err := testmap.LoadFile(filepath.Join(store.Dir, testmap.DefaultFile))
	if err != nil {
		return err
	}

	services, err := qwcontext.NewServices(qwcontext.Config{Settings: s, Git: a.gitContext()})
	if err != nil {
		return err
	}
	ctx := services.InjectAll(cmd.Context())

	state, err := pipeline.RunCheck(ctx, pipeline.Options{
		Checks:      cfg,
		TestMap:     table,
		ChainStart:  s.ChainStart,
		Issues:      issues,
		PRs:         prs,
		Concurrency: s.FetchConcurrency,
	})
	if err != nil {
		return wrapRemote(err, s)
	}

	if err := a.renderer().CheckReport(cmd.OutOrStdout(), state.Report); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if state.Report.Failed() {
		return &exitError{code: exitFindings}
	}
	return nil
}

func toIDs(ns []int) []artifact.ID {
	if ns == nil {
		return nil
	}
	ids := make([]artifact.ID, len(ns))
	for i, n := range ns {
		ids[i] = artifact.ID(n)
	}
	return ids
}
