// Package notify delivers user-facing session notifications. Delivery is
// fire-and-forget from the caller's point of view: a sink failure is reported
// but never blocks the flow that raised the notification.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	id "portalgate/pkg/domain"
)

// Severity is how a client should present a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a toast addressed to every live tab of one subject.
type Notification struct {
	SubjectID   id.SubjectID `json:"subject_id"`
	Namespace   portal.ID    `json:"namespace"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Reason      string       `json:"reason,omitempty"`
	Redirect    string       `json:"redirect,omitempty"`
	At          time.Time    `json:"at"`
}

// Notifier is a notification sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Fanout delivers to every sink and joins their errors.
type Fanout struct {
	sinks   []Notifier
	metrics *metrics.Metrics
}

// NewFanout ignores nil sinks so optional ones can be passed unconditionally.
func NewFanout(m *metrics.Metrics, sinks ...Notifier) *Fanout {
	f := &Fanout{metrics: m}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Notify(ctx, n)
		f.record(sinkName(s), err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) record(sink string, err error) {
	if f.metrics == nil {
		return
	}
	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}
	f.metrics.IncrementNotification(sink, outcome)
}

type named interface{ Name() string }

func sinkName(n Notifier) string {
	if s, ok := n.(named); ok {
		return s.Name()
	}
	return "unknown"
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, "session notification",
		"subject_id", n.SubjectID.String(),
		"namespace", n.Namespace,
		"title", n.Title,
		"severity", string(n.Severity),
		"reason", n.Reason,
	)
	return nil
}
