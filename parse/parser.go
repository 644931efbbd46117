package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/randalmurphal/qw/artifact"
)

var componentCodePattern = regexp.MustCompile(`\(([A-Za-z0-9]+)\)\s*$`)

// Parser turns raw items into artifacts. A Parser is not safe for concurrent
// use; parsing is a single pass over an already fetched item set.
type Parser struct {
	tokens *Tokenizer
	fold   cases.Caser
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{
		tokens: NewTokenizer(),
		fold:   cases.Fold(),
	}
}

// Parse classifies and parses one raw item. Problems never prevent an
// artifact from being returned; items that cannot be classified come back
// as non-QW items.
func (p *Parser) Parse(raw artifact.RawItem) (*artifact.Artifact, []artifact.ParseProblem) {
	a := &artifact.Artifact{
		ID:        raw.ID,
		IsPR:      raw.IsPR,
		Title:     strings.TrimSpace(raw.Title),
		BodyRaw:   raw.Body,
		URL:       raw.URL,
		Labels:    append([]string(nil), raw.Labels...),
		State:     raw.State,
		Fields:    make(map[string]string),
		ClosesIDs: append([]artifact.ID(nil), raw.ClosesIDs...),
	}

	var problems []artifact.ParseProblem
	problem := func(field, format string, args ...any) {
		problems = append(problems, artifact.ParseProblem{
			ArtifactID: raw.ID,
			Field:      field,
			Reason:     fmt.Sprintf(format, args...),
		})
	}

	kind, ok := artifact.KindFromLabels(raw.Labels, raw.IsPR)
	a.Kind = kind
	if !ok {
		problem("", "conflicting kind labels %s", strings.Join(raw.Labels, ", "))
		return a, problems
	}
	if !kind.IsQw() {
		slog.Debug("skipping non-QW item", "id", raw.ID, "pr", raw.IsPR)
		return a, nil
	}

	doc := p.tokens.Split(raw.Body)
	for name, text := range doc.Sections {
		a.Fields[name] = text
	}
	a.Tail = doc.Tail
	if doc.Tail != "" {
		a.Fields[artifact.FieldOtherInformation] = doc.Tail
	}
	if _, ok := a.Fields[artifact.FieldDescription]; !ok && doc.Preamble != "" {
		a.Fields[artifact.FieldDescription] = doc.Preamble
	}
	for _, dup := range doc.Duplicates {
		problem(dup, "section appears more than once")
	}

	if raw.IsPR {
		a.ParentRefs = appendUnique(a.ParentRefs, a.ClosesIDs...)
	}
	for _, name := range doc.Order {
		if !isReferenceField(name) {
			continue
		}
		text := doc.Sections[name]
		a.ParentRefs = appendUnique(a.ParentRefs, References(text)...)
		a.ForeignRefs = append(a.ForeignRefs, ForeignReferences(text)...)
	}

	if kind == artifact.KindRequirement {
		p.parseRequirement(a, problem)
	}

	a.ContentHash = artifact.ComputeHash(a)
	return a, problems
}

func (p *Parser) parseRequirement(a *artifact.Artifact, problem func(field, format string, args ...any)) {
	if rt := a.Fields[artifact.FieldRequirementType]; rt != "" {
		canonical, ok := p.requirementType(rt)
		if !ok {
			problem(artifact.FieldRequirementType, "unknown requirement type %q", rt)
		}
		a.RequirementType = canonical
	}

	if comp := a.Fields[artifact.FieldComponent]; comp != "" {
		if m := componentCodePattern.FindStringSubmatch(comp); m != nil {
			a.ComponentCode = m[1]
		} else if strings.ContainsAny(comp, " \t\n") {
			problem(artifact.FieldComponent, "cannot read a component code from %q", comp)
		} else {
			a.ComponentCode = comp
		}
	}
}

func (p *Parser) requirementType(s string) (string, bool) {
	want := p.fold.String(strings.TrimSpace(s))
	for _, t := range artifact.RequirementTypes {
		if p.fold.String(t) == want {
			return t, true
		}
	}
	return strings.TrimSpace(s), false
}

// ParseAll parses every item. The returned artifacts are sorted by id and
// include non-QW items so the resolver can tell "ignored" from "missing".
func (p *Parser) ParseAll(items []artifact.RawItem) ([]*artifact.Artifact, []artifact.ParseProblem) {
	arts := make([]*artifact.Artifact, 0, len(items))
	var problems []artifact.ParseProblem

	for _, item := range items {
		a, probs := p.Parse(item)
		arts = append(arts, a)
		problems = append(problems, probs...)
	}

	sort.Slice(arts, func(i, j int) bool { return arts[i].ID < arts[j].ID })
	SortProblems(problems)
	return arts, problems
}

// SortProblems orders problems by artifact, then field, then reason.
func SortProblems(problems []artifact.ParseProblem) {
	sort.SliceStable(problems, func(i, j int) bool {
		a, b := problems[i], problems[j]
		if a.ArtifactID != b.ArtifactID {
			return a.ArtifactID < b.ArtifactID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Reason < b.Reason
	})
}

func isReferenceField(name string) bool {
	for _, f := range artifact.ReferenceFields {
		if f == name {
			return true
		}
	}
	return false
}
