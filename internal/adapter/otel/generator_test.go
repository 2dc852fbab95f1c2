package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	adapter "github.com/neomorfeo/hexgen/internal/adapter/otel"
	"github.com/neomorfeo/hexgen/internal/domain"
)

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader
}

// findMetric collects from reader and returns the named metric.
func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Metrics{}
}

type stubGenerator struct{ err error }

func (g stubGenerator) Generate(context.Context, domain.GenerateRequest) error { return g.err }

type stubSummer struct {
	res domain.BenchmarkResult
	err error
}

func (s stubSummer) Sum(context.Context, domain.SumRequest) (domain.BenchmarkResult, error) {
	return s.res, s.err
}

func TestInstrumentedGenerator_CountsRecords(t *testing.T) {
	exporter := setupTestTracer(t)
	reader := setupTestMeter(t)

	gen, err := adapter.NewInstrumentedGenerator(stubGenerator{})
	if err != nil {
		t.Fatalf("NewInstrumentedGenerator: %v", err)
	}

	ctx := context.Background()
	for _, n := range []int{3, 4} {
		if err := gen.Generate(ctx, domain.GenerateRequest{Count: n, OutputPath: "numbers.txt"}); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}

	sum, ok := findMetric(t, reader, "hexgen.records.generated").Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("records counter is not an int64 sum")
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 7 {
		t.Errorf("records counter = %+v, want a single point of 7", sum.DataPoints)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	assertAttribute(t, spans[0], "generate.count", "3")
	assertAttribute(t, spans[0], "generate.seeded", "false")
}

func TestInstrumentedGenerator_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	setupTestMeter(t)

	gen, err := adapter.NewInstrumentedGenerator(stubGenerator{err: errors.New("disk full")})
	if err != nil {
		t.Fatalf("NewInstrumentedGenerator: %v", err)
	}

	if err := gen.Generate(context.Background(), domain.GenerateRequest{Count: 1, OutputPath: "x"}); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestInstrumentedSummer_RecordsDurations(t *testing.T) {
	exporter := setupTestTracer(t)
	reader := setupTestMeter(t)

	summer, err := adapter.NewInstrumentedSummer(stubSummer{res: domain.BenchmarkResult{
		Threads:    2,
		Result:     domain.SumResult{Count: 5},
		ParallelMS: 10,
		SerialMS:   20,
		SpeedUp:    2,
	}})
	if err != nil {
		t.Fatalf("NewInstrumentedSummer: %v", err)
	}

	if _, err := summer.Sum(context.Background(), domain.SumRequest{InputPath: "numbers.txt", Workers: 2}); err != nil {
		t.Fatalf("Sum failed: %v", err)
	}

	hist, ok := findMetric(t, reader, "hexgen.sum.duration").Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatal("sum duration is not an int64 histogram")
	}
	if len(hist.DataPoints) != 2 {
		t.Errorf("got %d histogram points, want 2 (parallel and serial)", len(hist.DataPoints))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "sum.workers", "2")
	assertAttribute(t, spans[0], "result.count", "5")
}
