package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/config"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testmap"
)

const testMapHeader = "test,targets\n"

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set up the qw store in this repository",
		Long: "init creates the store directory with an empty snapshot, the default\n" +
			"component registry, a check configuration listing every check and an\n" +
			"empty test mapping. Existing files are left alone. Settings given as\n" +
			"flags (--service, --repo-url, ...) are saved to the local config.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	store := snapshot.NewFileStore(s.StoreDir)
	if err := os.MkdirAll(store.Dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	created := 0
	steps := []struct {
		path  string
		write func() error
	}{
		{store.Path(), func() error { return store.Save(snapshot.NewStore()) }},
		{store.ComponentsPath(), func() error { return store.SaveComponents(artifact.DefaultComponents()) }},
		{filepath.Join(store.Dir, check.DefaultConfigFile), func() error {
			var buf bytes.Buffer
			if err := check.WriteDefaultConfig(&buf, check.Builtin()); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(store.Dir, check.DefaultConfigFile), buf.Bytes(), 0o644)
		}},
		{filepath.Join(store.Dir, testmap.DefaultFile), func() error {
			return os.WriteFile(filepath.Join(store.Dir, testmap.DefaultFile), []byte(testMapHeader), 0o644)
		}},
	}
	for _, step := range steps {
		_, err := os.Stat(step.path)
		if err == nil {
			continue
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := step.write(); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(step.path), err)
		}
		created++
	}

	saver := config.DefaultSaveConfig()
	for name, key := range flagKeys {
		if !cmd.Flags().Changed(name) || key == config.KeyLogLevel || key == config.KeyLogFormat {
			continue
		}
		if err := saver.SaveLocal(a.root, key, *a.flags[name]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if created == 0 {
		fmt.Fprintf(out, "qw is already set up in %s\n", store.Dir)
		return nil
	}
	fmt.Fprintf(out, "Initialized qw in %s\n", store.Dir)
	return nil
}
