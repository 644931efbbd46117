// Package testutil provides utilities for testing.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/qw/artifact"
)

// LoadFixture loads a fixture file from the testdata directory.
// The path is relative to the testdata directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	fullPath := filepath.Join("testdata", path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", path, err)
	}

	return data
}

type itemFrontMatter struct {
	ID     int      `yaml:"id"`
	Title  string   `yaml:"title"`
	Labels []string `yaml:"labels,omitempty,flow"`
	State  string   `yaml:"state,omitempty"`
	PR     bool     `yaml:"pr,omitempty"`
	Closes []int    `yaml:"closes,omitempty,flow"`
	URL    string   `yaml:"url,omitempty"`
}

// ItemFile renders item in the format the filesystem provider reads: YAML
// front matter followed by the body.
func ItemFile(item artifact.RawItem) string {
	fm := itemFrontMatter{
		ID:     int(item.ID),
		Title:  item.Title,
		Labels: item.Labels,
		PR:     item.IsPR,
		URL:    item.URL,
	}
	switch item.State {
	case artifact.StateClosedCompleted:
		fm.State = "closed"
	case artifact.StateClosedNotPlanned:
		fm.State = "not_planned"
	}
	for _, id := range item.ClosesIDs {
		fm.Closes = append(fm.Closes, int(id))
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		panic("marshal front matter: " + err.Error())
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n")
	b.WriteString(item.Body)
	return b.String()
}

// WriteItemFiles writes one file per item into dir, creating it if needed.
// Files are named by zero-padded id, so rewriting an item replaces its file.
func WriteItemFiles(t *testing.T, dir string, items []artifact.RawItem) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	for _, item := range items {
		name := fmt.Sprintf("%04d.md", item.ID)
		if item.IsPR {
			name = fmt.Sprintf("%04d-pr.md", item.ID)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(ItemFile(item)), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

// TempFile creates a file with content in a test-scoped temporary directory
// and returns its path.
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	return path
}
