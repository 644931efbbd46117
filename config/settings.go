package config

import (
	"path/filepath"
	"strconv"
	"strings"

	qwerrors "github.com/randalmurphal/qw/errors"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/resolve"
	"github.com/randalmurphal/qw/snapshot"
)

// Settings keys.
const (
	KeyService          = "service"
	KeyRepoURL          = "repo_url"
	KeyOwner            = "owner"
	KeyRepo             = "repo"
	KeyBaseURL          = "base_url"
	KeyItemsDir         = "items_dir"
	KeyStoreDir         = "store_dir"
	KeyFetchConcurrency = "fetch_concurrency"
	KeyChainStart       = "chain_start"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyComment          = "notify.comment"
	KeySlackWebhook     = "notify.slack_webhook"
	KeySlackChannel     = "notify.slack_channel"
	KeyWebhookURL       = "notify.webhook_url"
)

const (
	// EnvPrefix prefixes every settings environment variable.
	EnvPrefix = "QW_"

	// AppName names the global config directory under ~/.config.
	AppName = "qw"
)

// LocalConfigName is the local config file relative to the git root.
var LocalConfigName = filepath.Join(snapshot.DefaultDir, "config.yaml")

// Keys lists every settings key in display order.
var Keys = []string{
	KeyService, KeyRepoURL, KeyOwner, KeyRepo, KeyBaseURL, KeyItemsDir,
	KeyStoreDir, KeyFetchConcurrency, KeyChainStart, KeyLogLevel, KeyLogFormat,
	KeyComment, KeySlackWebhook, KeySlackChannel, KeyWebhookURL,
}

// Defaults holds the built-in value of each key that has one.
var Defaults = map[string]string{
	KeyStoreDir:         snapshot.DefaultDir,
	KeyFetchConcurrency: strconv.Itoa(hosting.DefaultConcurrency),
	KeyChainStart:       string(resolve.ChainStartAny),
	KeyLogLevel:         "warn",
	KeyLogFormat:        "text",
	KeyComment:          "true",
}

// DefaultResolverConfig is the resolver setup of the qw command.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: AppName,
		LocalConfigName: LocalConfigName,
		Defaults:        Defaults,
		ValidKeys:       Keys,
	}
}

// DefaultSaveConfig is the save setup matching DefaultResolverConfig.
func DefaultSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: AppName,
		LocalConfigName: LocalConfigName,
		ValidKeys:       Keys,
	}
}

// Settings is the typed, validated form of a resolved configuration.
type Settings struct {
	// Service is empty when it should be detected from the repo URL.
	Service hosting.Service
	RepoURL string
	Owner   string
	Repo    string
	BaseURL string

	// ItemsDir is the directory read by the filesystem service.
	ItemsDir string

	// StoreDir is absolute once the git root is known.
	StoreDir string

	FetchConcurrency int
	ChainStart       resolve.ChainStart
	LogLevel         string
	LogFormat        string

	Comment      bool
	SlackWebhook string
	SlackChannel string
	WebhookURL   string
}

// Settings validates the resolved values. Relative directories are joined to
// root when it is not empty.
func (c *Resolved) Settings(root string) (Settings, error) {
	s := Settings{
		RepoURL:      c.Get(KeyRepoURL),
		Owner:        c.Get(KeyOwner),
		Repo:         c.Get(KeyRepo),
		BaseURL:      c.Get(KeyBaseURL),
		ItemsDir:     c.Get(KeyItemsDir),
		StoreDir:     c.Get(KeyStoreDir),
		LogLevel:     strings.ToLower(c.Get(KeyLogLevel)),
		LogFormat:    strings.ToLower(c.Get(KeyLogFormat)),
		SlackWebhook: c.Get(KeySlackWebhook),
		SlackChannel: c.Get(KeySlackChannel),
		WebhookURL:   c.Get(KeyWebhookURL),
	}

	if v := c.Get(KeyService); v != "" {
		svc, err := hosting.ParseService(v)
		if err != nil {
			return Settings{}, c.invalid(KeyService, "%v", err)
		}
		s.Service = svc
	}

	n, err := strconv.Atoi(c.Get(KeyFetchConcurrency))
	if err != nil || n < 1 {
		return Settings{}, c.invalid(KeyFetchConcurrency, "must be a positive integer, got %q", c.Get(KeyFetchConcurrency))
	}
	s.FetchConcurrency = n

	policy, err := resolve.ParseChainStart(c.Get(KeyChainStart))
	if err != nil {
		return Settings{}, c.invalid(KeyChainStart, "%v", err)
	}
	s.ChainStart = policy

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Settings{}, c.invalid(KeyLogLevel, "must be debug, info, warn or error, got %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return Settings{}, c.invalid(KeyLogFormat, "must be text or json, got %q", s.LogFormat)
	}

	comment, err := strconv.ParseBool(c.Get(KeyComment))
	if err != nil {
		return Settings{}, c.invalid(KeyComment, "must be true or false, got %q", c.Get(KeyComment))
	}
	s.Comment = comment

	if root != "" {
		s.StoreDir = under(root, s.StoreDir)
		if s.ItemsDir != "" {
			s.ItemsDir = under(root, s.ItemsDir)
		}
	}
	return s, nil
}

func (c *Resolved) invalid(key, format string, args ...any) error {
	e := qwerrors.NewConfigurationError(string(c.Source(key)), 0, format, args...)
	e.Reason = key + ": " + e.Reason
	return e
}

func under(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
