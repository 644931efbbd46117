package hosting

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Service names a hosting service.
type Service string

// Supported services.
const (
	ServiceGitHub     Service = "github"
	ServiceGitLab     Service = "gitlab"
	ServiceFilesystem Service = "filesystem"
)

// ParseService accepts a service name in any case.
func ParseService(s string) (Service, error) {
	switch svc := Service(strings.ToLower(strings.TrimSpace(s))); svc {
	case ServiceGitHub, ServiceGitLab, ServiceFilesystem:
		return svc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
	}
}

// Repo identifies a repository on a hosting service.
type Repo struct {
	Host  string
	Owner string
	Name  string
}

// ParseRepoURL extracts host, owner and name from a git remote URL. Both
// "git@host:owner/repo.git" and "https://host/owner/repo.git" forms are
// accepted. For nested GitLab groups the owner holds the full group path.
func ParseRepoURL(remoteURL string) (Repo, error) {
	remoteURL = strings.TrimSpace(remoteURL)

	// SSH form: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		host, path, ok := strings.Cut(strings.TrimPrefix(remoteURL, "git@"), ":")
		if !ok || host == "" {
			return Repo{}, fmt.Errorf("invalid SSH URL format: %q", remoteURL)
		}
		return repoFromPath(host, path, remoteURL)
	}

	if !strings.Contains(remoteURL, "://") {
		remoteURL = "https://" + remoteURL
	}
	u, err := url.Parse(remoteURL)
	if err != nil {
		return Repo{}, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Host == "" {
		return Repo{}, fmt.Errorf("invalid URL format: %q", remoteURL)
	}
	return repoFromPath(u.Host, u.Path, remoteURL)
}

func repoFromPath(host, path, remoteURL string) (Repo, error) {
	path = strings.Trim(strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git"), "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return Repo{}, fmt.Errorf("invalid repository path in %q", remoteURL)
	}
	return Repo{Host: strings.ToLower(host), Owner: path[:idx], Name: path[idx+1:]}, nil
}

// DetectService infers the service from a remote URL's host name.
func DetectService(remoteURL string) (Service, error) {
	repo, err := ParseRepoURL(remoteURL)
	if err != nil {
		return "", err
	}
	switch {
	case strings.Contains(repo.Host, "github"):
		return ServiceGitHub, nil
	case strings.Contains(repo.Host, "gitlab"):
		return ServiceGitLab, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownService, repo.Host)
	}
}

// Token environment variables, in lookup order.
var tokenEnvVars = []string{"QW_TOKEN", "GITHUB_TOKEN", "GITLAB_TOKEN", "GIT_TOKEN"}

// TokenFromEnv returns the first access token set in the environment.
func TokenFromEnv() string {
	for _, name := range tokenEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Config selects and configures a provider.
type Config struct {
	// Service overrides detection from RepoURL.
	Service Service

	// RepoURL is the git remote URL.
	RepoURL string

	// Owner and Repo override the values parsed from RepoURL.
	Owner string
	Repo  string

	// BaseURL points at a self-hosted GitLab instance.
	BaseURL string

	Token string

	// Dir is the item directory of the filesystem service.
	Dir string
}

// NewProvider creates the provider cfg describes.
func NewProvider(cfg Config) (Provider, error) {
	svc := cfg.Service
	var repo Repo
	if cfg.RepoURL != "" {
		parsed, err := ParseRepoURL(cfg.RepoURL)
		if err != nil {
			return nil, fmt.Errorf("parse remote URL: %w", err)
		}
		repo = parsed
		if svc == "" {
			if svc, err = DetectService(cfg.RepoURL); err != nil {
				return nil, err
			}
		}
	}
	if cfg.Owner != "" {
		repo.Owner = cfg.Owner
	}
	if cfg.Repo != "" {
		repo.Name = cfg.Repo
	}

	switch svc {
	case ServiceGitHub:
		return NewGitHubProvider(cfg.Token, repo.Owner, repo.Name)
	case ServiceGitLab:
		baseURL := cfg.BaseURL
		if baseURL == "" && repo.Host != "" && repo.Host != "gitlab.com" {
			baseURL = "https://" + repo.Host
		}
		project := repo.Name
		if repo.Owner != "" {
			project = repo.Owner + "/" + repo.Name
		}
		return NewGitLabProvider(cfg.Token, baseURL, project)
	case ServiceFilesystem:
		return NewDirProvider(cfg.Dir)
	case "":
		return nil, fmt.Errorf("%w: no service configured and no remote URL", ErrUnknownService)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, svc)
	}
}
