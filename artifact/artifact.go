package artifact

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ID is an issue or pull request number, unique within a repository.
//
// Services that number merge requests separately from issues (GitLab) map
// merge request IIDs into their own range with MergeRequestID, so an issue
// and a merge request sharing an IID remain distinct.
type ID int

// mergeRequestBase is the offset of the merge request id range.
const mergeRequestBase ID = 1 << 30

// MergeRequestID returns the id of merge request iid on a service with a
// separate merge request numbering.
func MergeRequestID(iid int) ID {
	return mergeRequestBase + ID(iid)
}

// IsMergeRequest reports whether id lies in the merge request range.
func (id ID) IsMergeRequest() bool {
	return id > mergeRequestBase
}

// Number is the number the hosting service knows the item by.
func (id ID) Number() int {
	if id.IsMergeRequest() {
		return int(id - mergeRequestBase)
	}
	return int(id)
}

// String formats the id the way the hosting service references it: "#12"
// for issues and pull requests, "!12" for separately numbered merge requests.
func (id ID) String() string {
	if id.IsMergeRequest() {
		return "!" + strconv.Itoa(id.Number())
	}
	return "#" + strconv.Itoa(int(id))
}

// ParseID accepts "12", "#12" or, for a merge request, "!12".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	mr := strings.HasPrefix(s, "!")
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(s, "!"), "#"))
	if err != nil || n <= 0 || ID(n) >= mergeRequestBase {
		return 0, fmt.Errorf("invalid artifact id %q", s)
	}
	if mr {
		return MergeRequestID(n), nil
	}
	return ID(n), nil
}

// SortIDs sorts ids ascending in place and returns them.
func SortIDs(ids []ID) []ID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// State is the open/closed state of an item.
type State string

// Item states. Merged pull requests are closed as completed; pull requests
// closed without merging are closed as not planned.
const (
	StateOpen             State = "open"
	StateClosedCompleted  State = "closed:completed"
	StateClosedNotPlanned State = "closed:not_planned"
)

// Closed reports whether the item is closed for any reason.
func (s State) Closed() bool {
	return s == StateClosedCompleted || s == StateClosedNotPlanned
}

// ClosureType is the reason an item was closed without a resolving PR.
type ClosureType string

// Allowed closure types.
const (
	ClosureDuplicate       ClosureType = "duplicate"
	ClosureCannotReplicate ClosureType = "cannot replicate"
	ClosureNotADefect      ClosureType = "not a defect"
	ClosureWontFix         ClosureType = "won't fix"
)

// ClosureTypes lists every allowed closure type.
var ClosureTypes = []ClosureType{
	ClosureDuplicate,
	ClosureCannotReplicate,
	ClosureNotADefect,
	ClosureWontFix,
}

// ParseClosureType matches s case-insensitively against the allowed types.
func ParseClosureType(s string) (ClosureType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "’", "'")
	for _, t := range ClosureTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

// ClosureReason explains why an item was closed without a resolving PR.
type ClosureReason struct {
	Type        ClosureType `json:"type"`
	Explanation string      `json:"explanation,omitempty"`
}

// RawItem is an issue or pull request as returned by a hosting provider.
type RawItem struct {
	ID        ID
	Title     string
	Body      string
	Labels    []string
	State     State
	IsPR      bool
	ClosesIDs []ID
	URL       string
}

// Ref addresses an item on the hosting service. Some services number issues
// and pull requests separately, so the flag travels with the id.
type Ref struct {
	ID   ID
	IsPR bool
}

// Artifact is a parsed, typed item.
type Artifact struct {
	ID      ID
	Kind    Kind
	IsPR    bool
	Title   string
	BodyRaw string
	URL     string
	Labels  []string
	State   State

	// Fields maps recognized section headings to their text. The
	// unstructured tail is kept in Tail and never hashed.
	Fields map[string]string
	Tail   string

	// ParentRefs holds claimed parents in encounter order, deduplicated.
	// Closing links come first for pull requests.
	ParentRefs []ID
	ClosesIDs  []ID

	// ForeignRefs are references into other repositories.
	ForeignRefs []string

	ComponentCode   string
	RequirementType string
	ClosureReason   *ClosureReason

	Version     int
	ContentHash string
}

// Ref returns the hosting reference of a.
func (a *Artifact) Ref() Ref {
	return Ref{ID: a.ID, IsPR: a.IsPR}
}

// Field returns the text of a recognized section.
func (a *Artifact) Field(name string) string {
	return a.Fields[name]
}

// IsClosing reports whether a closes the given issue.
func (a *Artifact) IsClosing(id ID) bool {
	for _, c := range a.ClosesIDs {
		if c == id {
			return true
		}
	}
	return false
}

// DisplayName renders "Requirement #6 (Dose limit)".
func (a *Artifact) DisplayName() string {
	if a.Title == "" {
		return fmt.Sprintf("%s %s", a.Kind, a.ID)
	}
	return fmt.Sprintf("%s %s (%s)", a.Kind, a.ID, a.Title)
}

// Component is a registered subsystem.
type Component struct {
	Name        string
	ShortCode   string
	Description string
}

// DefaultComponents is the registry a fresh store starts with.
func DefaultComponents() []Component {
	return []Component{{Name: "System", ShortCode: "X", Description: "Whole system requirements"}}
}

// FindComponent returns the component with the given short code.
func FindComponent(components []Component, code string) (Component, bool) {
	for _, c := range components {
		if c.ShortCode == code {
			return c, true
		}
	}
	return Component{}, false
}

// Edge links a child artifact to one of its parents.
type Edge struct {
	Child      ID
	Parent     ID
	ParentKind Kind

	// Closing is set when the edge comes from a PR's closing link.
	Closing bool
}

// ParseProblem records an item that could not be fully parsed.
type ParseProblem struct {
	ArtifactID ID
	Field      string
	Reason     string
}

func (p ParseProblem) String() string {
	if p.Field == "" {
		return fmt.Sprintf("%s: %s", p.ArtifactID, p.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", p.ArtifactID, p.Field, p.Reason)
}
