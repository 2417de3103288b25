// Package observability records what every pipeline stage did: an
// OpenTelemetry span per stage, a structured log line per interaction or
// error, and an event pushed into the Sink.
package observability

import (
	"context"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "sql-agent-be/pipeline"

type Tracer struct {
	tracer trace.Tracer
	log    logger.ILogger
	sink   *Sink
}

// NewTracer uses the global tracer provider. sink may be nil.
func NewTracer(log logger.ILogger, sink *Sink) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(instrumentationName),
		log:    log,
		sink:   sink,
	}
}

// StartStage opens a span named after the stage.
func (t *Tracer) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, stage, trace.WithAttributes(attrs...))
}

func (t *Tracer) LogInteraction(stage string, data map[string]interface{}) {
	t.log.Info("PIPELINE", stage, data)
	t.emit(events.NewInteraction(stage, data))
}

// LogError marks the span in ctx as failed and reports the error.
func (t *Tracer) LogError(ctx context.Context, stage, category, message string) {
	span := trace.SpanFromContext(ctx)
	span.SetStatus(codes.Error, message)
	span.SetAttributes(attribute.String("error.category", category))

	t.log.Error("PIPELINE", message, map[string]interface{}{
		"stage":    stage,
		"category": category,
	})
	t.emit(events.NewStageError(stage, category, message))
}

func (t *Tracer) emit(e events.Event) {
	if t.sink == nil {
		return
	}
	if !t.sink.Emit(e) {
		t.log.Debug("OBSERVABILITY", "Event dropped", map[string]interface{}{
			"type": e.EventType(),
		})
	}
}
