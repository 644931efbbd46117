package hosting

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/qw/artifact"
)

// DirProvider serves items from a directory of markdown files, one item per
// file. Each file starts with a YAML front matter block:
//
//	---
//	id: 6
//	title: Dose limit
//	labels: [qw-requirement]
//	state: open
//	---
//	### Description
//
//	Doses above 10 ml are rejected.
//
// Pull requests set "pr: true" and list closing issues under "closes".
// State is one of open, closed (completed) or not_planned.
//
// Labels and comments written through the provider are kept in memory and
// logged; the files are never modified.
type DirProvider struct {
	dir string

	mu       sync.Mutex
	labels   map[artifact.Ref][]string
	unlabels map[artifact.Ref][]string
	comments map[artifact.Ref][]string
}

// NewDirProvider creates a provider reading dir.
func NewDirProvider(dir string) (*DirProvider, error) {
	if dir == "" {
		return nil, fmt.Errorf("item directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("item directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("item directory %s is not a directory", dir)
	}
	return &DirProvider{
		dir:      dir,
		labels:   make(map[artifact.Ref][]string),
		unlabels: make(map[artifact.Ref][]string),
		comments: make(map[artifact.Ref][]string),
	}, nil
}

type frontMatter struct {
	ID     int      `yaml:"id"`
	Title  string   `yaml:"title"`
	Labels []string `yaml:"labels"`
	State  string   `yaml:"state"`
	PR     bool     `yaml:"pr"`
	Closes []int    `yaml:"closes"`
	URL    string   `yaml:"url"`
}

// ListIssues implements Provider.
func (p *DirProvider) ListIssues(ctx context.Context) ([]artifact.RawItem, error) {
	return p.list(ctx, false)
}

// ListPullRequests implements Provider.
func (p *DirProvider) ListPullRequests(ctx context.Context) ([]artifact.RawItem, error) {
	return p.list(ctx, true)
}

func (p *DirProvider) list(ctx context.Context, prs bool) ([]artifact.RawItem, error) {
	items, err := p.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []artifact.RawItem
	for _, item := range items {
		if item.IsPR == prs {
			out = append(out, item)
		}
	}
	return out, nil
}

func (p *DirProvider) readAll(ctx context.Context) ([]artifact.RawItem, error) {
	paths, err := filepath.Glob(filepath.Join(p.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list item files: %w", err)
	}
	sort.Strings(paths)

	items := make([]artifact.RawItem, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read item: %w", err)
		}
		item, err := ParseItemFile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		items = append(items, p.withWrites(item))
	}
	return items, nil
}

// withWrites overlays labels added through AddLabel and removed through
// RemoveLabel.
func (p *DirProvider) withWrites(item artifact.RawItem) artifact.RawItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := artifact.Ref{ID: item.ID, IsPR: item.IsPR}
	var labels []string
	for _, l := range item.Labels {
		if !artifact.HasLabel(p.unlabels[ref], l) {
			labels = append(labels, l)
		}
	}
	for _, l := range p.labels[ref] {
		if !artifact.HasLabel(labels, l) {
			labels = append(labels, l)
		}
	}
	item.Labels = labels
	return item
}

// ParseItemFile decodes one item file.
func ParseItemFile(data []byte) (artifact.RawItem, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return artifact.RawItem{}, fmt.Errorf("missing front matter")
	}
	rest := data[len("---\n"):]
	head, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			head, body = rest[:len(rest)-len("\n---")], nil
		} else {
			return artifact.RawItem{}, fmt.Errorf("unterminated front matter")
		}
	}

	var fm frontMatter
	dec := yaml.NewDecoder(bytes.NewReader(head))
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil {
		return artifact.RawItem{}, fmt.Errorf("front matter: %w", err)
	}
	if fm.ID <= 0 {
		return artifact.RawItem{}, fmt.Errorf("front matter: id must be positive")
	}
	state, err := parseItemState(fm.State)
	if err != nil {
		return artifact.RawItem{}, err
	}

	item := artifact.RawItem{
		ID:     artifact.ID(fm.ID),
		Title:  fm.Title,
		Body:   strings.TrimLeft(string(body), "\n"),
		Labels: fm.Labels,
		State:  state,
		IsPR:   fm.PR,
		URL:    fm.URL,
	}
	for _, c := range fm.Closes {
		item.ClosesIDs = append(item.ClosesIDs, artifact.ID(c))
	}
	return item, nil
}

func parseItemState(s string) (artifact.State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return artifact.StateOpen, nil
	case "closed", "completed", "merged", string(artifact.StateClosedCompleted):
		return artifact.StateClosedCompleted, nil
	case "not_planned", string(artifact.StateClosedNotPlanned):
		return artifact.StateClosedNotPlanned, nil
	default:
		return "", fmt.Errorf("front matter: unknown state %q", s)
	}
}

// GetLabels implements Provider.
func (p *DirProvider) GetLabels(ctx context.Context, ref artifact.Ref) ([]string, error) {
	items, err := p.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == ref.ID && item.IsPR == ref.IsPR {
			return item.Labels, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", ref.ID, ErrNotFound)
}

// AddLabel implements Provider.
func (p *DirProvider) AddLabel(ctx context.Context, ref artifact.Ref, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !artifact.HasLabel(p.labels[ref], label) {
		p.labels[ref] = append(p.labels[ref], label)
	}
	p.unlabels[ref] = without(p.unlabels[ref], label)
	slog.Info("label added", "artifact", ref.ID, "label", label)
	return nil
}

// RemoveLabel implements Provider. Removing a label the item does not carry
// is not an error.
func (p *DirProvider) RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels[ref] = without(p.labels[ref], label)
	if !artifact.HasLabel(p.unlabels[ref], label) {
		p.unlabels[ref] = append(p.unlabels[ref], label)
	}
	slog.Info("label removed", "artifact", ref.ID, "label", label)
	return nil
}

func without(labels []string, label string) []string {
	out := labels[:0:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

// AddComment implements Provider.
func (p *DirProvider) AddComment(ctx context.Context, ref artifact.Ref, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments[ref] = append(p.comments[ref], body)
	slog.Info("comment added", "artifact", ref.ID, "comment", body)
	return nil
}

// Comments returns the comments posted on ref during this process.
func (p *DirProvider) Comments(ref artifact.Ref) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.comments[ref]...)
}
