package hosting

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xanzy/go-gitlab"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/qw/artifact"
)

// GitLabProvider implements Provider for GitLab projects. Merge requests are
// treated as pull requests. GitLab numbers merge requests separately from
// issues, so merge request ids are mapped with artifact.MergeRequestID and
// shown as "!N"; closing links always name issues.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // Can be numeric ID or "namespace/project"

	// concurrency bounds the per-merge-request closing-issue lookups.
	concurrency int
}

// NewGitLabProvider creates a new GitLab provider.
// token is a personal access token.
// baseURL is the GitLab instance URL (empty for gitlab.com).
// projectID can be numeric ID or "namespace/project" path.
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required: %w", ErrNoToken)
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	opts := []gitlab.ClientOptionFunc{
		gitlab.WithHTTPClient(&http.Client{Transport: NewRetryTransport(nil)}),
	}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:      client,
		projectID:   projectID,
		concurrency: DefaultConcurrency,
	}, nil
}

// NewGitLabProviderFromURL creates a GitLab provider from a remote URL.
// Example: "https://gitlab.com/namespace/project.git"
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	repo, err := ParseRepoURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	var baseURL string
	if repo.Host != "gitlab.com" {
		baseURL = "https://" + repo.Host
	}
	return NewGitLabProvider(token, baseURL, repo.Owner+"/"+repo.Name)
}

// ListIssues implements Provider. GitLab has no "not planned" closure, so
// every closed issue is reported as completed.
func (p *GitLabProvider) ListIssues(ctx context.Context) ([]artifact.RawItem, error) {
	it := NewPageIterator[*gitlab.Issue](func(ctx context.Context, page int) ([]*gitlab.Issue, int, error) {
		issues, resp, err := p.client.Issues.ListProjectIssues(p.projectID, &gitlab.ListProjectIssuesOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
			State:       gitlab.Ptr("all"),
		}, gitlab.WithContext(ctx))
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
		state := artifact.StateOpen
		if issue.State == "closed" {
			state = artifact.StateClosedCompleted
		}
		items = append(items, artifact.RawItem{
			ID:     artifact.ID(issue.IID),
			Title:  issue.Title,
			Body:   issue.Description,
			Labels: labelList(issue.Labels),
			State:  state,
			URL:    issue.WebURL,
		})
	}
	return items, nil
}

// ListPullRequests implements Provider. Closing links come from the
// closes-on-merge endpoint, looked up concurrently per merge request.
func (p *GitLabProvider) ListPullRequests(ctx context.Context) ([]artifact.RawItem, error) {
	it := NewPageIterator[*gitlab.MergeRequest](func(ctx context.Context, page int) ([]*gitlab.MergeRequest, int, error) {
		mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(p.projectID, &gitlab.ListProjectMergeRequestsOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
			State:       gitlab.Ptr("all"),
		}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("list MRs: %w", err)
		}
		return mrs, resp.NextPage, nil
	})
	mrs, err := it.All(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]artifact.RawItem, len(mrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.concurrency, 1))
	for i, mr := range mrs {
		items[i] = p.itemFromMR(mr)
		g.Go(func() error {
			closes, err := p.closedOnMerge(gctx, mr.IID)
			if err != nil {
				return err
			}
			items[i].ClosesIDs = closes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *GitLabProvider) closedOnMerge(ctx context.Context, iid int) ([]artifact.ID, error) {
	it := NewPageIterator[*gitlab.Issue](func(ctx context.Context, page int) ([]*gitlab.Issue, int, error) {
		issues, resp, err := p.client.MergeRequests.GetIssuesClosedOnMerge(p.projectID, iid,
			&gitlab.GetIssuesClosedOnMergeOptions{Page: page, PerPage: perPage},
			gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("closing issues of !%d: %w", iid, err)
		}
		return issues, resp.NextPage, nil
	})
	issues, err := it.All(ctx)
	if err != nil {
		return nil, err
	}
	var ids []artifact.ID
	for _, issue := range issues {
		ids = append(ids, artifact.ID(issue.IID))
	}
	return ids, nil
}

// GetLabels implements Provider.
func (p *GitLabProvider) GetLabels(ctx context.Context, ref artifact.Ref) ([]string, error) {
	if ref.IsPR {
		mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.projectID, ref.ID.Number(), nil, gitlab.WithContext(ctx))
		if err != nil {
			return nil, p.itemError("get MR", ref, resp, err)
		}
		return labelList(mr.Labels), nil
	}
	issue, resp, err := p.client.Issues.GetIssue(p.projectID, ref.ID.Number(), gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.itemError("get issue", ref, resp, err)
	}
	return labelList(issue.Labels), nil
}

// AddLabel implements Provider.
func (p *GitLabProvider) AddLabel(ctx context.Context, ref artifact.Ref, label string) error {
	add := gitlab.Ptr(gitlab.LabelOptions{label})
	if ref.IsPR {
		_, resp, err := p.client.MergeRequests.UpdateMergeRequest(p.projectID, ref.ID.Number(),
			&gitlab.UpdateMergeRequestOptions{AddLabels: add}, gitlab.WithContext(ctx))
		return p.itemError("add label", ref, resp, err)
	}
	_, resp, err := p.client.Issues.UpdateIssue(p.projectID, ref.ID.Number(),
		&gitlab.UpdateIssueOptions{AddLabels: add}, gitlab.WithContext(ctx))
	return p.itemError("add label", ref, resp, err)
}

// RemoveLabel implements Provider.
func (p *GitLabProvider) RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error {
	remove := gitlab.Ptr(gitlab.LabelOptions{label})
	if ref.IsPR {
		_, resp, err := p.client.MergeRequests.UpdateMergeRequest(p.projectID, ref.ID.Number(),
			&gitlab.UpdateMergeRequestOptions{RemoveLabels: remove}, gitlab.WithContext(ctx))
		return p.itemError("remove label", ref, resp, err)
	}
	_, resp, err := p.client.Issues.UpdateIssue(p.projectID, ref.ID.Number(),
		&gitlab.UpdateIssueOptions{RemoveLabels: remove}, gitlab.WithContext(ctx))
	return p.itemError("remove label", ref, resp, err)
}

// AddComment implements Provider.
func (p *GitLabProvider) AddComment(ctx context.Context, ref artifact.Ref, body string) error {
	if ref.IsPR {
		_, resp, err := p.client.Notes.CreateMergeRequestNote(p.projectID, ref.ID.Number(),
			&gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
		return p.itemError("add comment", ref, resp, err)
	}
	_, resp, err := p.client.Notes.CreateIssueNote(p.projectID, ref.ID.Number(),
		&gitlab.CreateIssueNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
	return p.itemError("add comment", ref, resp, err)
}

func (p *GitLabProvider) itemError(op string, ref artifact.Ref, resp *gitlab.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", op, ref.ID, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, ref.ID, err)
}

func (p *GitLabProvider) itemFromMR(mr *gitlab.MergeRequest) artifact.RawItem {
	state := artifact.StateOpen
	switch mr.State {
	case "merged":
		state = artifact.StateClosedCompleted
	case "closed":
		state = artifact.StateClosedNotPlanned
	}
	return artifact.RawItem{
		ID:     artifact.MergeRequestID(mr.IID),
		Title:  mr.Title,
		Body:   mr.Description,
		Labels: labelList(mr.Labels),
		State:  state,
		IsPR:   true,
		URL:    mr.WebURL,
	}
}

func labelList(labels gitlab.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	return append([]string(nil), labels...)
}
