package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/errors"
)

// DefaultConcurrency bounds parallel API calls during a fetch.
const DefaultConcurrency = 4

// Provider is a hosted git service.
type Provider interface {
	// ListIssues returns every issue, open and closed.
	ListIssues(ctx context.Context) ([]artifact.RawItem, error)

	// ListPullRequests returns every pull request, open, merged and closed.
	ListPullRequests(ctx context.Context) ([]artifact.RawItem, error)

	// GetLabels returns the current labels of an item.
	GetLabels(ctx context.Context, ref artifact.Ref) ([]string, error)

	// AddLabel applies a label to an item.
	AddLabel(ctx context.Context, ref artifact.Ref, label string) error

	// RemoveLabel removes a label from an item. Removing a label the item
	// does not carry succeeds.
	RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error

	// AddComment posts a comment on an item.
	AddComment(ctx context.Context, ref artifact.Ref, body string) error
}

// Snapshot is the merged result of one fetch.
type Snapshot struct {
	// Items holds issues and pull requests sorted by id.
	Items     []artifact.RawItem
	FetchedAt time.Time
}

// Issues returns the issues in the snapshot.
func (s *Snapshot) Issues() []artifact.RawItem {
	return s.filter(false)
}

// PullRequests returns the pull requests in the snapshot.
func (s *Snapshot) PullRequests() []artifact.RawItem {
	return s.filter(true)
}

// IsPR reports whether id is a pull request in the snapshot.
func (s *Snapshot) IsPR(id artifact.ID) bool {
	i := sort.Search(len(s.Items), func(i int) bool { return s.Items[i].ID >= id })
	return i < len(s.Items) && s.Items[i].ID == id && s.Items[i].IsPR
}

func (s *Snapshot) filter(pr bool) []artifact.RawItem {
	var out []artifact.RawItem
	for _, item := range s.Items {
		if item.IsPR == pr {
			out = append(out, item)
		}
	}
	return out
}

// FetchOptions configures Fetch.
type FetchOptions struct {
	// Concurrency bounds the number of list calls in flight. Zero means
	// DefaultConcurrency.
	Concurrency int
}

// Fetch lists issues and pull requests concurrently and merges them. A
// failure of either list aborts the fetch and is returned as a transport
// error; no partial snapshot is returned.
func Fetch(ctx context.Context, p Provider, opts FetchOptions) (*Snapshot, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var issues, prs []artifact.RawItem
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	g.Go(func() error {
		var err error
		issues, err = p.ListIssues(gctx)
		return errors.WrapTransportError("list issues", err)
	})
	g.Go(func() error {
		var err error
		prs, err = p.ListPullRequests(gctx)
		return errors.WrapTransportError("list pull requests", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items, err := merge(issues, prs)
	if err != nil {
		return nil, err
	}
	slog.Debug("fetched repository", "issues", len(issues), "pull_requests", len(prs))
	return &Snapshot{Items: items, FetchedAt: time.Now()}, nil
}

func merge(issues, prs []artifact.RawItem) ([]artifact.RawItem, error) {
	seen := make(map[artifact.ID]bool, len(issues)+len(prs))
	items := make([]artifact.RawItem, 0, len(issues)+len(prs))
	for _, group := range [][]artifact.RawItem{issues, prs} {
		for _, item := range group {
			if seen[item.ID] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
			}
			seen[item.ID] = true
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
