// Package progress provides the capability-object observer contract the
// fetch engine reports download progress through, plus a couple of
// built-in sinks.
package progress

import (
	"log/slog"

	"github.com/dashfetch/dashfetch/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Observer receives progress updates. percent is monotonically
// non-decreasing across one download; message is a short human-readable
// status line.
type Observer interface {
	Update(percent int, message string)
}

// NoOp discards every update; the zero value is ready to use.
type NoOp struct{}

// Update implements Observer.
func (NoOp) Update(int, string) {}

// Logging reports progress through a structured logger. The percent is
// rendered with format.Percentage; the status message is logged as given.
type Logging struct {
	logger  *slog.Logger
	printer *message.Printer
}

// NewLogging builds a Logging observer. A nil logger falls back to
// slog.Default().
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// Update implements Observer.
func (l *Logging) Update(percent int, msg string) {
	l.logger.Info(l.printer.Sprintf("download progress"),
		slog.String("percent", format.Percentage(float64(percent), 0)),
		slog.String("status", msg),
	)
}

// Multi fans one update out to several observers, in order.
type Multi []Observer

// Update implements Observer.
func (m Multi) Update(percent int, message string) {
	for _, o := range m {
		o.Update(percent, message)
	}
}
