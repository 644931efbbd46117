package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/freeze"
)

// EventType represents the kind of run event.
type EventType string

// Event type constants.
const (
	EventCheckCompleted  EventType = "check_completed"
	EventFreezeCompleted EventType = "freeze_completed"
	EventFinding         EventType = "finding"
	EventVersionBumped   EventType = "version_bumped"
	EventItemRemoved     EventType = "item_removed"
	EventReverified      EventType = "reverified"
)

// Severity constants for events. Finding events carry the finding's own
// severity.
const (
	SeverityError   = string(check.SeverityError)
	SeverityWarning = string(check.SeverityWarning)
	SeverityInfo    = "info"
)

// Event describes something a check or freeze run wants people to know.
type Event struct {
	Type       EventType   `json:"type"`
	RunID      string      `json:"run_id,omitempty"`
	ArtifactID artifact.ID `json:"artifact_id,omitempty"`
	IsPR       bool        `json:"is_pr,omitempty"`
	Check      string      `json:"check,omitempty"`
	Message    string      `json:"message"`
	Severity   string      `json:"severity"`
	Timestamp  time.Time   `json:"timestamp"`

	// Related lists artifacts the event asks people to act on, such as the
	// stale children of a bumped artifact.
	Related  []artifact.ID  `json:"related,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Ref returns the hosting reference of the event's artifact.
func (e Event) Ref() artifact.Ref {
	return artifact.Ref{ID: e.ArtifactID, IsPR: e.IsPR}
}

// Notifier delivers run events.
type Notifier interface {
	// Notify sends a notification. Implementations should be non-blocking
	// and handle errors gracefully (log, don't crash).
	Notify(ctx context.Context, event Event) error
}

// CheckEvents turns a check report into a summary event followed by one
// event per finding.
func CheckEvents(runID string, r *check.Report) []Event {
	now := time.Now()
	sev := SeverityInfo
	switch {
	case r.Failed():
		sev = SeverityError
	case len(r.Warnings()) > 0:
		sev = SeverityWarning
	}
	events := []Event{{
		Type:      EventCheckCompleted,
		RunID:     runID,
		Message:   fmt.Sprintf("checked %d artifacts: %d errors, %d warnings", r.ArtifactsChecked, len(r.Errors()), len(r.Warnings())),
		Severity:  sev,
		Timestamp: now,
		Metadata: map[string]any{
			"artifacts": r.ArtifactsChecked,
			"checks":    r.ChecksRun,
			"errors":    len(r.Errors()),
			"warnings":  len(r.Warnings()),
		},
	}}
	for _, f := range r.Findings {
		events = append(events, findingEvent(runID, f, now))
	}
	return events
}

// FreezeEvents turns a change report into events. isPR tells pull requests
// apart from issues for services that number them separately; it may be nil.
func FreezeEvents(r *freeze.ChangeReport, isPR func(artifact.ID) bool) []Event {
	now := time.Now()
	if isPR == nil {
		isPR = func(artifact.ID) bool { return false }
	}

	var events []Event
	for _, c := range r.Changes {
		if c.Reverified {
			events = append(events, Event{
				Type:       EventReverified,
				RunID:      r.ID,
				ArtifactID: c.ID,
				IsPR:       isPR(c.ID),
				Message:    fmt.Sprintf("%s reflects the current versions of its parents", c.DisplayName()),
				Severity:   SeverityInfo,
				Timestamp:  now,
			})
		}
		switch c.Action {
		case freeze.ActionBumped:
			events = append(events, Event{
				Type:       EventVersionBumped,
				RunID:      r.ID,
				ArtifactID: c.ID,
				IsPR:       isPR(c.ID),
				Message:    fmt.Sprintf("%s moved from version %d to version %d", c.DisplayName(), c.PreviousVersion, c.Version),
				Severity:   SeverityWarning,
				Timestamp:  now,
				Related:    c.StaleChildren,
				Metadata:   map[string]any{"previous_version": c.PreviousVersion, "version": c.Version},
			})
		case freeze.ActionRemoved, freeze.ActionDropped:
			events = append(events, Event{
				Type:       EventItemRemoved,
				RunID:      r.ID,
				ArtifactID: c.ID,
				Message:    fmt.Sprintf("%s no longer exists (%s)", c.DisplayName(), c.Action),
				Severity:   SeverityWarning,
				Timestamp:  now,
			})
		}
	}
	for _, f := range r.Findings {
		events = append(events, findingEvent(r.ID, f, now))
	}
	events = append(events, Event{
		Type:      EventFreezeCompleted,
		RunID:     r.ID,
		Message:   fmt.Sprintf("freeze recorded %d changes, %d version bumps", len(r.Changes), len(r.Bumped())),
		Severity:  SeverityInfo,
		Timestamp: now,
	})
	return events
}

func findingEvent(runID string, f check.Finding, now time.Time) Event {
	return Event{
		Type:       EventFinding,
		RunID:      runID,
		ArtifactID: f.ArtifactID,
		Check:      f.Check,
		Message:    f.Message,
		Severity:   string(f.Severity),
		Timestamp:  now,
	}
}

// NotifyAll sends every event and returns the first error after trying all
// of them.
func NotifyAll(ctx context.Context, n Notifier, events []Event) error {
	var first error
	for _, e := range events {
		if err := n.Notify(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type serviceContextKey string

const notifierServiceKey serviceContextKey = "qw.notifier"

// WithNotifier adds a Notifier to the context.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// NotifierFromContext extracts the Notifier from context.
// Returns nil if no notifier is configured.
func NotifierFromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(Notifier); ok {
		return n
	}
	return nil
}
