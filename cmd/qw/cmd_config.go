package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/qw/config"
	qwerrors "github.com/randalmurphal/qw/errors"
)

func (a *app) configCmd() *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Show settings and where each value comes from",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runConfigGet,
	}
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting to the local or global config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(cmd, args[0], args[1], global)
		},
	}
	set.Flags().BoolVar(&global, "global", false, "Save to the global config in ~/.config/qw")

	cmd.AddCommand(get, set)
	return cmd
}

func (a *app) runConfigGet(cmd *cobra.Command, args []string) error {
	keys := config.Keys
	if len(args) == 1 {
		if !slices.Contains(config.Keys, args[0]) {
			return unknownKey(args[0])
		}
		keys = args[:1]
	}

	out := cmd.OutOrStdout()
	for _, key := range keys {
		value, source := a.resolved.GetWithSource(key)
		if value == "" && len(args) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s=%s (%s)\n", key, value, source)
	}
	return nil
}

func (a *app) runConfigSet(cmd *cobra.Command, key, value string, global bool) error {
	if !slices.Contains(config.Keys, key) {
		return unknownKey(key)
	}

	saver := config.DefaultSaveConfig()
	if global {
		if err := saver.SaveGlobal(key, value); err != nil {
			return err
		}
		path, _ := saver.GlobalPath()
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
		return nil
	}

	if a.root == "" {
		return qwerrors.NewNotInGitRepoError()
	}
	if err := saver.SaveLocal(a.root, key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, config.LocalConfigName)
	return nil
}

func unknownKey(key string) error {
	return &qwerrors.CLIError{
		Message:    fmt.Sprintf("Unknown setting %q.", key),
		Suggestion: "Run 'qw config get' to list the settings.",
	}
}
