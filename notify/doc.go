// Package notify delivers check and freeze events.
//
// Core types:
//   - Notifier: Interface for sending notifications
//   - Event: A run summary, a finding, a version bump or a removed item
//
// Implementations:
//   - CommentNotifier: Comments on bumped artifacts and labels stale children
//   - LogNotifier: Logs events through slog, severity mapped to level
//   - SlackNotifier: Posts to a Slack incoming webhook
//   - WebhookNotifier: Posts JSON events to a generic webhook
//   - MultiNotifier: Combines multiple notifiers
//   - NopNotifier: No-op notifier (for testing)
//
// Example usage:
//
//	n := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(nil),
//	    notify.NewCommentNotifier(provider, snap.IsPR),
//	)
//	err := notify.NotifyAll(ctx, n, notify.FreezeEvents(report, snap.IsPR))
package notify
