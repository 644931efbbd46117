package freeze

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/snapshot"
)

// Pseudo-field names used in diffs for parts of an artifact that are not
// body sections.
const (
	DiffTitle     = "Title"
	DiffKind      = "Kind"
	DiffParents   = "Parents"
	DiffComponent = "Component code"
)

// FieldDiff is one changed field between the frozen record and the current
// artifact.
type FieldDiff struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// Multiline reports whether either side spans several lines.
func (d FieldDiff) Multiline() bool {
	return strings.Contains(d.Previous, "\n") || strings.Contains(d.Current, "\n")
}

// Unified renders a line diff of the two sides, prefixed "-" for the frozen
// text and "+" for the current text.
func (d FieldDiff) Unified() string {
	return cmp.Diff(strings.Split(d.Previous, "\n"), strings.Split(d.Current, "\n"))
}

// Diff compares the frozen record with the current artifact over every part
// that feeds the content hash. Results start with the title and kind,
// followed by the fields ordered by name.
func Diff(prev snapshot.Record, a *artifact.Artifact) []FieldDiff {
	var out []FieldDiff
	add := func(field, before, after string) {
		if before != after {
			out = append(out, FieldDiff{Field: field, Previous: before, Current: after})
		}
	}

	add(DiffTitle, prev.Title, a.Title)
	add(DiffKind, prev.Kind.String(), a.Kind.String())

	current := artifact.HashedFields(a)
	names := make(map[string]bool, len(current)+len(prev.Fields))
	for name := range current {
		names[name] = true
	}
	for name := range prev.Fields {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		add(name, prev.Fields[name], current[name])
	}

	add(DiffParents, formatIDs(prev.ParentRefs), formatIDs(a.ParentRefs))
	add(DiffComponent, prev.ComponentCode, a.ComponentCode)
	return out
}

func formatIDs(ids []artifact.ID) string {
	return joinIDs(artifact.SortIDs(append([]artifact.ID(nil), ids...)))
}
