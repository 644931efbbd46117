package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/snapshot"
)

func (a *app) componentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "component",
		Short: "Manage the component registry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <short-code> [description]",
			Short: "Register a component",
			Args:  cobra.RangeArgs(2, 3),
			RunE:  a.runComponentAdd,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered components",
			Args:  cobra.NoArgs,
			RunE:  a.runComponentList,
		},
	)
	return cmd
}

func (a *app) registry() (*snapshot.FileStore, error) {
	s, err := a.settings()
	if err != nil {
		return nil, err
	}
	return a.store(s)
}

func (a *app) runComponentAdd(cmd *cobra.Command, args []string) error {
	store, err := a.registry()
	if err != nil {
		return err
	}
	components, err := store.LoadComponents()
	if err != nil {
		return err
	}

	c := artifact.Component{Name: args[0], ShortCode: args[1]}
	if len(args) == 3 {
		c.Description = args[2]
	}
	components, err = snapshot.AddComponent(components, c)
	if err != nil {
		return err
	}
	if err := store.SaveComponents(components); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", c.Name, c.ShortCode)
	return nil
}

func (a *app) runComponentList(cmd *cobra.Command, _ []string) error {
	store, err := a.registry()
	if err != nil {
		return err
	}
	components, err := store.LoadComponents()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tDESCRIPTION")
	for _, c := range components {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ShortCode, c.Name, strings.TrimSpace(c.Description))
	}
	return w.Flush()
}
