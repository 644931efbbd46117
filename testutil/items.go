package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/graph"
	"github.com/randalmurphal/qw/parse"
	"github.com/randalmurphal/qw/resolve"
)

// Body renders issue form sections in order: heading, text, heading, text.
func Body(sections ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(sections); i += 2 {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", sections[i], sections[i+1])
	}
	return b.String()
}

// UserNeed builds an open user need issue.
func UserNeed(id artifact.ID, title, description string) artifact.RawItem {
	return artifact.RawItem{
		ID:     id,
		Title:  title,
		Body:   Body(artifact.FieldDescription, description),
		Labels: []string{artifact.LabelUserNeed},
		State:  artifact.StateOpen,
	}
}

// Requirement builds an open requirement issue linked to the given user
// needs, in the System component.
func Requirement(id artifact.ID, title, description string, needs ...artifact.ID) artifact.RawItem {
	return artifact.RawItem{
		ID:    id,
		Title: title,
		Body: Body(
			artifact.FieldDescription, description,
			artifact.FieldParentUserNeed, refs(needs),
			artifact.FieldRequirementType, "Functional",
			artifact.FieldComponent, "System (X)",
		),
		Labels: []string{artifact.LabelRequirement},
		State:  artifact.StateOpen,
	}
}

// PR builds an open pull request closing the given issues. An empty label
// leaves it as a design output.
func PR(id artifact.ID, title, label string, closes ...artifact.ID) artifact.RawItem {
	item := artifact.RawItem{
		ID:        id,
		Title:     title,
		Body:      Body(artifact.FieldDescription, title),
		IsPR:      true,
		State:     artifact.StateOpen,
		ClosesIDs: closes,
	}
	if label != "" {
		item.Labels = []string{label}
	}
	return item
}

func refs(ids []artifact.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// DoseItems is a small repository: user need 1, requirement 6 under it,
// design outputs 7 and 12 closing 6, and design verification 15 closing 6.
func DoseItems() []artifact.RawItem {
	return []artifact.RawItem{
		UserNeed(1, "Safe dosing", "Patients never receive an unsafe dose."),
		Requirement(6, "Dose limit", "Doses above 10 ml are rejected.", 1),
		PR(7, "Clamp dose input", "", 6),
		PR(12, "Reject large doses in API", "", 6),
		PR(15, "Dose limit tests", artifact.LabelDesignVerification, 6),
	}
}

// BuildGraph parses and resolves items with the default chain-start policy.
// Any parse or resolution problem fails the test.
func BuildGraph(t *testing.T, items []artifact.RawItem) *graph.Graph {
	t.Helper()

	arts, parseProblems := parse.NewParser().ParseAll(items)
	for _, p := range parseProblems {
		t.Fatalf("parse problem: %s", p)
	}
	g, resProblems := resolve.Resolve(arts, resolve.Options{})
	for _, p := range resProblems {
		t.Fatalf("resolution problem: %s", p)
	}
	return g
}

// Replace returns a copy of items with the item of the same id replaced.
func Replace(items []artifact.RawItem, item artifact.RawItem) []artifact.RawItem {
	out := make([]artifact.RawItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == item.ID && out[i].IsPR == item.IsPR {
			out[i] = item
		}
	}
	return out
}

// Without returns a copy of items without the given ids.
func Without(items []artifact.RawItem, ids ...artifact.ID) []artifact.RawItem {
	drop := make(map[artifact.ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var out []artifact.RawItem
	for _, item := range items {
		if !drop[item.ID] {
			out = append(out, item)
		}
	}
	return out
}
