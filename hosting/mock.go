package hosting

import (
	"context"

	"github.com/randalmurphal/qw/artifact"
)

// MockProvider is a mock implementation of Provider for testing.
type MockProvider struct {
	ListIssuesFunc       func(ctx context.Context) ([]artifact.RawItem, error)
	ListPullRequestsFunc func(ctx context.Context) ([]artifact.RawItem, error)
	GetLabelsFunc        func(ctx context.Context, ref artifact.Ref) ([]string, error)
	AddLabelFunc         func(ctx context.Context, ref artifact.Ref, label string) error
	RemoveLabelFunc      func(ctx context.Context, ref artifact.Ref, label string) error
	AddCommentFunc       func(ctx context.Context, ref artifact.Ref, body string) error
}

// NewMockProvider returns a mock serving items, split into issues and pull
// requests by their IsPR flag.
func NewMockProvider(items []artifact.RawItem) *MockProvider {
	snap := &Snapshot{Items: items}
	return &MockProvider{
		ListIssuesFunc: func(context.Context) ([]artifact.RawItem, error) {
			return snap.Issues(), nil
		},
		ListPullRequestsFunc: func(context.Context) ([]artifact.RawItem, error) {
			return snap.PullRequests(), nil
		},
	}
}

// ListIssues implements Provider.
func (m *MockProvider) ListIssues(ctx context.Context) ([]artifact.RawItem, error) {
	if m.ListIssuesFunc != nil {
		return m.ListIssuesFunc(ctx)
	}
	return []artifact.RawItem{}, nil
}

// ListPullRequests implements Provider.
func (m *MockProvider) ListPullRequests(ctx context.Context) ([]artifact.RawItem, error) {
	if m.ListPullRequestsFunc != nil {
		return m.ListPullRequestsFunc(ctx)
	}
	return []artifact.RawItem{}, nil
}

// GetLabels implements Provider.
func (m *MockProvider) GetLabels(ctx context.Context, ref artifact.Ref) ([]string, error) {
	if m.GetLabelsFunc != nil {
		return m.GetLabelsFunc(ctx, ref)
	}
	return []string{}, nil
}

// AddLabel implements Provider.
func (m *MockProvider) AddLabel(ctx context.Context, ref artifact.Ref, label string) error {
	if m.AddLabelFunc != nil {
		return m.AddLabelFunc(ctx, ref, label)
	}
	return nil
}

// RemoveLabel implements Provider.
func (m *MockProvider) RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error {
	if m.RemoveLabelFunc != nil {
		return m.RemoveLabelFunc(ctx, ref, label)
	}
	return nil
}

// AddComment implements Provider.
func (m *MockProvider) AddComment(ctx context.Context, ref artifact.Ref, body string) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, ref, body)
	}
	return nil
}
