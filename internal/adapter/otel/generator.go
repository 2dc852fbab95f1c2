package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// InstrumentedGenerator wraps a domain.Generator with a span per generation
// and a counter of records written.
type InstrumentedGenerator struct {
	next    domain.Generator
	tracer  trace.Tracer
	records metric.Int64Counter
}

// Compile-time check: InstrumentedGenerator implements domain.Generator.
var _ domain.Generator = (*InstrumentedGenerator)(nil)

// NewInstrumentedGenerator uses the global tracer and meter providers.
func NewInstrumentedGenerator(next domain.Generator) (*InstrumentedGenerator, error) {
	records, err := otel.Meter(instrumentationName).Int64Counter("hexgen.records.generated",
		metric.WithDescription("Records written by successful generations"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating records counter: %w", err)
	}

	return &InstrumentedGenerator{
		next:    next,
		tracer:  otel.Tracer(instrumentationName),
		records: records,
	}, nil
}

func (g *InstrumentedGenerator) Generate(ctx context.Context, req domain.GenerateRequest) error {
	ctx, span := g.tracer.Start(ctx, "Generator.Generate",
		trace.WithAttributes(
			attribute.Int("generate.count", req.Count),
			attribute.String("generate.path", req.OutputPath),
			attribute.Bool("generate.seeded", req.Seed != nil),
		),
	)
	defer span.End()

	if err := g.next.Generate(ctx, req); err != nil {
		return endSpan(span, err)
	}

	g.records.Add(ctx, int64(max(req.Count, 0)))
	return nil
}

// InstrumentedSummer wraps a domain.Summer with a span per benchmark and
// histograms of both timings.
type InstrumentedSummer struct {
	next     domain.Summer
	tracer   trace.Tracer
	duration metric.Int64Histogram
}

// Compile-time check: InstrumentedSummer implements domain.Summer.
var _ domain.Summer = (*InstrumentedSummer)(nil)

// NewInstrumentedSummer uses the global tracer and meter providers.
func NewInstrumentedSummer(next domain.Summer) (*InstrumentedSummer, error) {
	duration, err := otel.Meter(instrumentationName).Int64Histogram("hexgen.sum.duration",
		metric.WithDescription("Wall time of a summing pass"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sum duration histogram: %w", err)
	}

	return &InstrumentedSummer{
		next:     next,
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
	}, nil
}

func (s *InstrumentedSummer) Sum(ctx context.Context, req domain.SumRequest) (domain.BenchmarkResult, error) {
	ctx, span := s.tracer.Start(ctx, "Summer.Sum",
		trace.WithAttributes(
			attribute.String("sum.path", req.InputPath),
			attribute.Int("sum.workers", req.Workers),
			attribute.Int64("sum.memory", req.Memory),
		),
	)
	defer span.End()

	res, err := s.next.Sum(ctx, req)
	if err != nil {
		return res, endSpan(span, err)
	}

	span.SetAttributes(
		attribute.Int("result.count", res.Result.Count),
		attribute.Float64("result.speed_up", res.SpeedUp),
	)
	s.duration.Record(ctx, res.ParallelMS, metric.WithAttributes(attribute.String("mode", "parallel")))
	s.duration.Record(ctx, res.SerialMS, metric.WithAttributes(attribute.String("mode", "serial")))
	return res, nil
}
