package context

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/qw/config"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/git"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/notify"
	"github.com/randalmurphal/qw/snapshot"
)

// Services wraps all qw services for convenient initialization
type Services struct {
	Git      *git.Context // Optional; nil outside a git working tree
	Provider hosting.Provider
	Store    snapshot.Persister
	Registry snapshot.Registry
	Decider  freeze.Decider  // Required by freeze runs only
	Notifier notify.Notifier // Optional notification service
}

// InjectAll adds all configured services to the context
func (s *Services) InjectAll(ctx context.Context) context.Context {
	if s.Git != nil {
		ctx = WithGit(ctx, s.Git)
	}
	if s.Provider != nil {
		ctx = WithProvider(ctx, s.Provider)
	}
	if s.Store != nil {
		ctx = WithStore(ctx, s.Store)
	}
	if s.Registry != nil {
		ctx = WithRegistry(ctx, s.Registry)
	}
	if s.Decider != nil {
		ctx = WithDecider(ctx, s.Decider)
	}
	if s.Notifier != nil {
		ctx = notify.WithNotifier(ctx, s.Notifier)
	}
	return ctx
}

// Config configures NewServices
type Config struct {
	Settings config.Settings

	// Git is the working tree, used to find the remote URL when the
	// settings do not name one.
	Git *git.Context

	// Token overrides the token environment variables.
	Token string

	Decider freeze.Decider
	Logger  *slog.Logger
}

// NewServices creates Services from resolved settings.
func NewServices(cfg Config) (*Services, error) {
	s := &Services{
		Git:      cfg.Git,
		Decider:  cfg.Decider,
		Notifier: NewNotifier(cfg.Settings, cfg.Logger),
	}

	store := snapshot.NewFileStore(cfg.Settings.StoreDir)
	s.Store = store
	s.Registry = store

	repoURL := cfg.Settings.RepoURL
	if repoURL == "" && cfg.Git != nil && cfg.Settings.Service != hosting.ServiceFilesystem {
		url, err := cfg.Git.GetRemoteURL(git.DefaultRemote)
		switch {
		case err == nil:
			repoURL = url
		case !stderrors.Is(err, git.ErrNoRemote):
			return nil, fmt.Errorf("read remote url: %w", err)
		}
	}

	token := cfg.Token
	if token == "" {
		token = hosting.TokenFromEnv()
	}
	provider, err := hosting.NewProvider(hosting.Config{
		Service: cfg.Settings.Service,
		RepoURL: repoURL,
		Owner:   cfg.Settings.Owner,
		Repo:    cfg.Settings.Repo,
		BaseURL: cfg.Settings.BaseURL,
		Token:   token,
		Dir:     cfg.Settings.ItemsDir,
	})
	if err != nil {
		return nil, err
	}
	s.Provider = provider

	return s, nil
}

// NewNotifier builds the notifiers the settings enable. Events are always
// logged; Slack and the generic webhook are added when configured.
func NewNotifier(settings config.Settings, logger *slog.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if settings.SlackWebhook != "" {
		var opts []notify.SlackOption
		if settings.SlackChannel != "" {
			opts = append(opts, notify.WithSlackChannel(settings.SlackChannel))
		}
		notifiers = append(notifiers, notify.NewSlackNotifier(settings.SlackWebhook, opts...))
	}
	if settings.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(settings.WebhookURL, nil))
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return notify.NewMultiNotifier(notifiers...)
}
