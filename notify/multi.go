package notify

import (
	"context"
	"errors"
	"log/slog"
)

// MultiNotifier delivers every event to each of its notifiers in order.
type MultiNotifier struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

// NewMultiNotifier combines notifiers. One failing notifier does not keep
// the event from the others.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		Notifiers: notifiers,
		Logger:    slog.Default(),
	}
}

// Notify implements Notifier. The returned error joins every failure.
func (n *MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, notifier := range n.Notifiers {
		err := notifier.Notify(ctx, event)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if n.Logger != nil {
			n.Logger.Warn("notifier failed", "error", err, "event_type", event.Type, "artifact", event.ArtifactID)
		}
	}
	return errors.Join(errs...)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error {
	return nil
}
