package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/hexgen/internal/adapter/otel"
	"github.com/neomorfeo/hexgen/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	runs map[string]domain.Run
}

func newMockRepo() *mockRepo {
	return &mockRepo{runs: make(map[string]domain.Run)}
}

func (m *mockRepo) Create(_ context.Context, r domain.Run) error {
	m.runs[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Run, error) {
	r, ok := m.runs[id]
	if !ok {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return r, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Run, error) {
	out := make([]domain.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, r domain.Run) error {
	if _, ok := m.runs[r.ID]; !ok {
		return domain.ErrRunNotFound
	}
	m.runs[r.ID] = r
	return nil
}

func newRun(id string) domain.Run {
	return domain.NewRun(id, domain.RunRequest{Kind: domain.KindGenerate, Count: 3, Path: "numbers.txt"})
}

// --- Tests ---

func TestTracingRunRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRunRepository(newMockRepo())

	if err := repo.Create(context.Background(), newRun("r-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "RunRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RunRepository.Create")
	}

	assertAttribute(t, spans[0], "run.id", "r-1")
	assertAttribute(t, spans[0], "run.kind", "generate")
}

func TestTracingRunRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRunRepository(newMockRepo())

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRunRepository_List_RecordsFiltersAndCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRunRepository(inner)

	inner.runs["r-1"] = newRun("r-1")
	inner.runs["r-2"] = newRun("r-2")

	status := domain.StatusPending
	kind := domain.KindGenerate
	runs, err := repo.List(context.Background(), domain.ListFilter{Status: &status, Kind: &kind})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "filter.status", "pending")
	assertAttribute(t, spans[0], "filter.kind", "generate")
	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingRunRepository_Update_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRunRepository(inner)

	run := newRun("r-1")
	inner.runs["r-1"] = run

	run.Status = domain.StatusRunning
	if err := repo.Update(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "RunRepository.Update" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RunRepository.Update")
	}

	assertAttribute(t, spans[0], "run.status", "running")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
