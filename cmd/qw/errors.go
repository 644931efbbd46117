package main

import (
	"github.com/randalmurphal/qw/config"
	qwerrors "github.com/randalmurphal/qw/errors"
	"github.com/randalmurphal/qw/hosting"
)

// remoteMessenger names the configured hosting service in token hints.
type remoteMessenger struct {
	qwerrors.DefaultMessenger
	service hosting.Service
}

func (m remoteMessenger) AuthErrorMessage() (string, string) {
	switch m.service {
	case hosting.ServiceGitHub:
		return "GitHub rejected the access token.",
			"Set QW_TOKEN or GITHUB_TOKEN to a token with read and write access to issues and pull requests."
	case hosting.ServiceGitLab:
		return "GitLab rejected the access token.",
			"Set QW_TOKEN or GITLAB_TOKEN to a token with the api scope."
	default:
		return m.DefaultMessenger.AuthErrorMessage()
	}
}

// wrapRemote turns hosting failures into user guidance.
func wrapRemote(err error, s config.Settings) error {
	if !qwerrors.IsTransportError(err) {
		return err
	}

	service := s.Service
	if service == "" {
		service, _ = hosting.DetectService(s.RepoURL)
	}
	messenger := qwerrors.WithMessenger(remoteMessenger{service: service})

	if qwerrors.IsConnectionError(err) {
		server := s.BaseURL
		if server == "" {
			server = s.RepoURL
		}
		return qwerrors.WrapConnectionError(err, server, messenger)
	}
	return qwerrors.WrapAuthError(err, messenger)
}
