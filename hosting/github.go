package hosting

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/parse"
)

// GitHubProvider implements Provider for GitHub repositories.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a new GitHub provider.
// token is a personal access token or GitHub App token.
// owner and repo identify the repository (e.g., "acme", "infusion-pump").
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required: %w", ErrNoToken)
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	base := &http.Client{Transport: NewRetryTransport(nil)}
	tc := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, base), ts)

	return &GitHubProvider{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
// Example: "https://github.com/acme/infusion-pump.git"
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	repo, err := ParseRepoURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, repo.Owner, repo.Name)
}

// ListIssues implements Provider. The issues endpoint also returns pull
// requests; those are skipped here and listed by ListPullRequests.
func (p *GitHubProvider) ListIssues(ctx context.Context) ([]artifact.RawItem, error) {
	it := NewPageIterator[*github.Issue](func(ctx context.Context, page int) ([]*github.Issue, int, error) {
		issues, resp, err := p.client.Issues.ListByRepo(ctx, p.owner, p.repo, &github.IssueListByRepoOptions{
			State:       "all",
			ListOptions: github.ListOptions{Page: page, PerPage: perPage},
		})
		if err != nil {
			return nil, 0, fmt.Errorf("list issues: %w", err)
		}
		return issues, resp.NextPage, nil
	})
	issues, err := it.All(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]artifact.RawItem, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		items = append(items, p.itemFromIssue(issue))
	}
	return items, nil
}

// ListPullRequests implements Provider.
func (p *GitHubProvider) ListPullRequests(ctx context.Context) ([]artifact.RawItem, error) {
	it := NewPageIterator[*github.PullRequest](func(ctx context.Context, page int) ([]*github.PullRequest, int, error) {
		prs, resp, err := p.client.PullRequests.List(ctx, p.owner, p.repo, &github.PullRequestListOptions{
			State:       "all",
			ListOptions: github.ListOptions{Page: page, PerPage: perPage},
		})
		if err != nil {
			return nil, 0, fmt.Errorf("list PRs: %w", err)
		}
		return prs, resp.NextPage, nil
	})
	prs, err := it.All(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]artifact.RawItem, 0, len(prs))
	for _, pr := range prs {
		items = append(items, p.itemFromPR(pr))
	}
	return items, nil
}

// GetLabels implements Provider. Issues and pull requests share the labels
// endpoint on GitHub.
func (p *GitHubProvider) GetLabels(ctx context.Context, ref artifact.Ref) ([]string, error) {
	it := NewPageIterator[*github.Label](func(ctx context.Context, page int) ([]*github.Label, int, error) {
		labels, resp, err := p.client.Issues.ListLabelsByIssue(ctx, p.owner, p.repo, ref.ID.Number(),
			&github.ListOptions{Page: page, PerPage: perPage})
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, 0, fmt.Errorf("%s: %w", ref.ID, ErrNotFound)
			}
			return nil, 0, fmt.Errorf("list labels: %w", err)
		}
		return labels, resp.NextPage, nil
	})
	labels, err := it.All(ctx)
	if err != nil {
		return nil, err
	}
	return labelNames(labels), nil
}

// AddLabel implements Provider.
func (p *GitHubProvider) AddLabel(ctx context.Context, ref artifact.Ref, label string) error {
	_, resp, err := p.client.Issues.AddLabelsToIssue(ctx, p.owner, p.repo, ref.ID.Number(), []string{label})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", ref.ID, ErrNotFound)
		}
		return fmt.Errorf("add label: %w", err)
	}
	return nil
}

// RemoveLabel implements Provider. GitHub answers 404 both for a missing
// item and for a label the item does not carry; either way the label is
// absent afterwards.
func (p *GitHubProvider) RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error {
	resp, err := p.client.Issues.RemoveLabelForIssue(ctx, p.owner, p.repo, ref.ID.Number(), label)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("remove label: %w", err)
	}
	return nil
}

// AddComment implements Provider.
func (p *GitHubProvider) AddComment(ctx context.Context, ref artifact.Ref, body string) error {
	comment := &github.IssueComment{Body: github.String(body)}
	_, resp, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, ref.ID.Number(), comment)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", ref.ID, ErrNotFound)
		}
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

func (p *GitHubProvider) itemFromIssue(issue *github.Issue) artifact.RawItem {
	state := artifact.StateOpen
	if issue.GetState() == "closed" {
		state = artifact.StateClosedCompleted
		if issue.GetStateReason() == "not_planned" {
			state = artifact.StateClosedNotPlanned
		}
	}
	return artifact.RawItem{
		ID:     artifact.ID(issue.GetNumber()),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		Labels: labelNames(issue.Labels),
		State:  state,
		URL:    issue.GetHTMLURL(),
	}
}

func (p *GitHubProvider) itemFromPR(pr *github.PullRequest) artifact.RawItem {
	state := artifact.StateOpen
	switch {
	case pr.MergedAt != nil:
		state = artifact.StateClosedCompleted
	case pr.GetState() == "closed":
		state = artifact.StateClosedNotPlanned
	}
	return artifact.RawItem{
		ID:        artifact.ID(pr.GetNumber()),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Labels:    labelNames(pr.Labels),
		State:     state,
		IsPR:      true,
		ClosesIDs: parse.ClosingReferences(pr.GetBody()),
		URL:       pr.GetHTMLURL(),
	}
}

func labelNames(labels []*github.Label) []string {
	if len(labels) == 0 {
		return nil
	}
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return names
}
