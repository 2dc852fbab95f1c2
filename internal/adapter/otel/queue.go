package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// TracingQueue wraps a domain.JobQueue with OpenTelemetry tracing.
type TracingQueue struct {
	next   domain.JobQueue
	tracer trace.Tracer
}

// Compile-time check: TracingQueue implements domain.JobQueue.
var _ domain.JobQueue = (*TracingQueue)(nil)

// NewTracingQueue creates a tracing decorator around the given queue.
func NewTracingQueue(next domain.JobQueue) *TracingQueue {
	return &TracingQueue{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (q *TracingQueue) Enqueue(ctx context.Context, run domain.Run) error {
	ctx, span := q.tracer.Start(ctx, "JobQueue.Enqueue",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.kind", string(run.Kind)),
		),
	)
	defer span.End()

	return endSpan(span, q.next.Enqueue(ctx, run))
}
