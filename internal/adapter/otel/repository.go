package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/hexgen/internal/domain"
)

const instrumentationName = "github.com/neomorfeo/hexgen/internal/adapter/otel"

// TracingRunRepository wraps a domain.RunRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRunRepository struct {
	next   domain.RunRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRunRepository implements domain.RunRepository.
var _ domain.RunRepository = (*TracingRunRepository)(nil)

// NewTracingRunRepository creates a tracing decorator around the given repository.
func NewTracingRunRepository(next domain.RunRepository) *TracingRunRepository {
	return &TracingRunRepository{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (r *TracingRunRepository) Create(ctx context.Context, run domain.Run) error {
	ctx, span := r.tracer.Start(ctx, "RunRepository.Create",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.kind", string(run.Kind)),
		),
	)
	defer span.End()

	return endSpan(span, r.next.Create(ctx, run))
}

func (r *TracingRunRepository) GetByID(ctx context.Context, id string) (domain.Run, error) {
	ctx, span := r.tracer.Start(ctx, "RunRepository.GetByID",
		trace.WithAttributes(attribute.String("run.id", id)),
	)
	defer span.End()

	run, err := r.next.GetByID(ctx, id)
	return run, endSpan(span, err)
}

func (r *TracingRunRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Run, error) {
	ctx, span := r.tracer.Start(ctx, "RunRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.Kind != nil {
		span.SetAttributes(attribute.String("filter.kind", string(*filter.Kind)))
	}

	runs, err := r.next.List(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(runs)))
	}
	return runs, endSpan(span, err)
}

func (r *TracingRunRepository) Update(ctx context.Context, run domain.Run) error {
	ctx, span := r.tracer.Start(ctx, "RunRepository.Update",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.status", string(run.Status)),
		),
	)
	defer span.End()

	return endSpan(span, r.next.Update(ctx, run))
}

// endSpan records err on span, if any, and returns it unchanged.
func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
