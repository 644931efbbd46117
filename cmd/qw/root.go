package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/qw/config"
	qwerrors "github.com/randalmurphal/qw/errors"
	"github.com/randalmurphal/qw/git"
	"github.com/randalmurphal/qw/prompt"
	"github.com/randalmurphal/qw/snapshot"
)

// version is set at build time via -ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK       = 0
	exitFindings = 1
	exitFatal    = 2
)

// exitError ends the command with a status but prints nothing.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// flagKeys maps persistent flags to settings keys.
var flagKeys = map[string]string{
	"service":     config.KeyService,
	"repo-url":    config.KeyRepoURL,
	"items-dir":   config.KeyItemsDir,
	"store-dir":   config.KeyStoreDir,
	"chain-start": config.KeyChainStart,
	"log-level":   config.KeyLogLevel,
	"log-format":  config.KeyLogFormat,
}

// app carries the state shared by the commands of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	flags   map[string]*string
	noColor bool

	root     string
	resolved *config.Resolved
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out, errOut: errOut, flags: make(map[string]*string)}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return exitFatal
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qw",
		Short: "Design traceability checks for issues and pull requests",
		Long: "qw checks that user needs, requirements, design outputs and their\n" +
			"verification and validation are linked in order, and freezes the\n" +
			"versions of every item so changes can be tracked down the chain.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := cmd.PersistentFlags()
	for name, key := range flagKeys {
		a.flags[name] = f.String(name, "", fmt.Sprintf("Override the %s setting", key))
	}
	f.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		a.initCmd(),
		a.checkCmd(),
		a.freezeCmd(),
		a.componentCmd(),
		a.configCmd(),
	)
	return cmd
}

// setup loads .env, resolves configuration and configures logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	rcfg := config.DefaultResolverConfig()
	rcfg.ErrWriter = a.errOut
	resolver := config.NewResolver(rcfg)
	a.root = resolver.GitRoot()

	if a.root != "" {
		err := godotenv.Load(filepath.Join(a.root, ".env"))
		if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	overrides := make(map[string]string)
	for name, key := range flagKeys {
		if cmd.Flags().Changed(name) {
			overrides[key] = *a.flags[name]
		}
	}
	a.resolved = resolver.ResolveWithFlags(overrides)

	level, format := parseLogging(a.resolved.Get(config.KeyLogLevel), a.resolved.Get(config.KeyLogFormat))
	initLogging(level, format, a.errOut)
	slog.Debug("resolved configuration", "root", a.root, "local", resolver.LocalPath())
	return nil
}

// settings validates the resolved configuration. Commands that touch the
// repository require a git root.
func (a *app) settings() (config.Settings, error) {
	if a.root == "" {
		return config.Settings{}, qwerrors.NewNotInGitRepoError()
	}
	return a.resolved.Settings(a.root)
}

// store opens the store directory, which must have been initialized.
func (a *app) store(s config.Settings) (*snapshot.FileStore, error) {
	store := snapshot.NewFileStore(s.StoreDir)
	if !store.Initialized() {
		return nil, qwerrors.NewNotInitializedError()
	}
	return store, nil
}

// gitContext opens the working tree for remote detection. It is optional:
// without git on PATH the remote must be configured.
func (a *app) gitContext() *git.Context {
	g, err := git.NewContext(a.root)
	if err != nil {
		slog.Debug("git unavailable", "root", a.root, "error", err)
		return nil
	}
	return g
}

func (a *app) renderer() *prompt.Renderer {
	r := prompt.NewRenderer()
	if f, ok := a.out.(*os.File); ok && !a.noColor && os.Getenv("NO_COLOR") == "" {
		r.Color = isatty.IsTerminal(f.Fd())
	}
	return r
}
