package present

import (
	"github.com/rs/zerolog"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/observability"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("notify").Zerolog()}
}

// Notify implements domain.Notifier.
func (n *LogNotifier) Notify(title, message string, severity domain.Severity) {
	level := zerolog.InfoLevel
	switch severity {
	case domain.SeverityError:
		level = zerolog.ErrorLevel
	case domain.SeverityWarning:
		level = zerolog.WarnLevel
	}
	n.logger.WithLevel(level).Str("title", title).Str("severity", string(severity)).Msg(message)
}
