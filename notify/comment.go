package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/qw/artifact"
)

// Writer is the write side of a hosting provider.
type Writer interface {
	AddLabel(ctx context.Context, ref artifact.Ref, label string) error
	RemoveLabel(ctx context.Context, ref artifact.Ref, label string) error
	AddComment(ctx context.Context, ref artifact.Ref, body string) error
}

// CommentNotifier writes freeze advisories back to the hosting service.
//
// A version bump is commented on the bumped artifact, and every stale child
// gets the qw-needs-reverification label. The label is removed again once
// the child is frozen against its parents' current versions. Other events
// are ignored.
type CommentNotifier struct {
	Writer Writer

	// IsPR tells pull requests apart from issues for services that number
	// them separately. Nil treats every related artifact as an issue.
	IsPR func(artifact.ID) bool
}

// NewCommentNotifier creates a notifier writing through w.
func NewCommentNotifier(w Writer, isPR func(artifact.ID) bool) *CommentNotifier {
	return &CommentNotifier{Writer: w, IsPR: isPR}
}

// Notify implements Notifier.
func (n *CommentNotifier) Notify(ctx context.Context, event Event) error {
	switch event.Type {
	case EventVersionBumped:
		return n.bumped(ctx, event)
	case EventReverified:
		err := n.Writer.RemoveLabel(ctx, event.Ref(), artifact.LabelNeedsReverification)
		if err != nil {
			return fmt.Errorf("unlabel %s: %w", event.ArtifactID, err)
		}
		slog.Debug("re-verification label cleared", "artifact", event.ArtifactID)
	}
	return nil
}

func (n *CommentNotifier) bumped(ctx context.Context, event Event) error {
	if err := n.Writer.AddComment(ctx, event.Ref(), commentBody(event)); err != nil {
		return fmt.Errorf("comment on %s: %w", event.ArtifactID, err)
	}
	for _, id := range event.Related {
		ref := artifact.Ref{ID: id, IsPR: n.IsPR != nil && n.IsPR(id)}
		if err := n.Writer.AddLabel(ctx, ref, artifact.LabelNeedsReverification); err != nil {
			return fmt.Errorf("label %s: %w", id, err)
		}
		slog.Debug("marked for re-verification", "artifact", id, "parent", event.ArtifactID)
	}
	return nil
}

func commentBody(event Event) string {
	var b strings.Builder
	b.WriteString(event.Message)
	b.WriteString(".")
	if len(event.Related) > 0 {
		ids := make([]string, len(event.Related))
		for i, id := range event.Related {
			ids[i] = id.String()
		}
		fmt.Fprintf(&b, "\n\nPlease ensure one of these resolves the updated version: %s", strings.Join(ids, ", "))
	}
	return b.String()
}
