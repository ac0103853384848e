package dispatch

import (
	"log/slog"
	"time"

	"github.com/tabulario/datalens/internal/domain/errs"
)

// EventType represents lifecycle phases of an invocation
type EventType string

const (
	EventInvokeStart EventType = "invoke_start"
	EventInvokeEnd   EventType = "invoke_end"
)

// Event represents a lifecycle event in operation dispatch
type Event struct {
	Type      EventType
	Operation string
	Timestamp time.Time
	Duration  time.Duration // set on invoke_end
	Err       *errs.Error   // set on invoke_end when the invocation failed
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}

// LoggingObserver logs all dispatch events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{logger: slog.Default()}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	attrs := []any{
		"event", event.Type,
		"operation", event.Operation,
	}
	if event.Type == EventInvokeEnd {
		attrs = append(attrs, "duration_ms", event.Duration.Milliseconds())
		if event.Err != nil {
			attrs = append(attrs, "error_kind", event.Err.Kind, "error", event.Err.Message)
			lo.logger.Warn("operation_lifecycle", attrs...)
			return
		}
	}
	lo.logger.Info("operation_lifecycle", attrs...)
}
