package compose

import "log/slog"

// Notifier surfaces the outcome of a tracking attempt to the user. The
// embedder renders it as a transient, auto-dismissing notice.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// LogNotifier writes notifications to the diagnostic log
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

// Success logs a success notification
func (n *LogNotifier) Success(message string) {
	n.log.Info("tracking notification", slog.String("kind", "success"), slog.String("message", message))
}

// Failure logs a failure notification
func (n *LogNotifier) Failure(message string) {
	n.log.Warn("tracking notification", slog.String("kind", "failure"), slog.String("message", message))
}

// NopNotifier drops notifications
type NopNotifier struct{}

// Success implements Notifier
func (NopNotifier) Success(string) {}

// Failure implements Notifier
func (NopNotifier) Failure(string) {}
