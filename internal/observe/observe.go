// Package observe is the fire-and-forget observability side channel.
// Business logic reports structured operation events at defined points in
// the orchestrator; failure to record must never fail the triggering
// operation, so Record has no error return and swallows panics.
package observe

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Event is one structured operation record.
type Event struct {
	Component     string
	Operation     string
	CorrelationID string
	Duration      time.Duration
	Success       bool
	Error         string
}

// Recorder receives operation events.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// New returns the default recorder, which emits a zerolog event and
// attaches the event to the active trace span when one exists.
func New() Recorder {
	return &logRecorder{}
}

type logRecorder struct{}

func (r *logRecorder) Record(ctx context.Context, ev Event) {
	defer func() {
		_ = recover()
	}()

	evt := log.Info()
	if !ev.Success {
		evt = log.Warn()
	}
	evt.
		Str("component", ev.Component).
		Str("operation", ev.Operation).
		Str("correlation_id", ev.CorrelationID).
		Dur("duration", ev.Duration).
		Bool("success", ev.Success)
	if ev.Error != "" {
		evt = evt.Str("error", ev.Error)
	}
	evt.Msg("operation")

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(ev.Component+"."+ev.Operation, trace.WithAttributes(
			attribute.Bool("success", ev.Success),
			attribute.Int64("duration_ms", ev.Duration.Milliseconds()),
			attribute.String("correlation_id", ev.CorrelationID),
		))
	}
}

// Nop returns a recorder that drops all events. Used in tests.
func Nop() Recorder { return nopRecorder{} }

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) {}
