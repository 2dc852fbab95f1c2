package domain

import "context"

// RandomSource yields independent, uniformly distributed 64-bit values.
type RandomSource interface {
	Uint64() uint64
}

// GenerateRequest holds the parameters of one generation.
type GenerateRequest struct {
	Count      int
	OutputPath string
	Seed       *uint64
}

// Generator writes random records to a file.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) error
}

// SumRequest holds the parameters of one summing benchmark.
type SumRequest struct {
	InputPath string
	Workers   int
	Memory    int64
}

// Summer loads a records file and benchmarks parallel against sequential summing.
type Summer interface {
	Sum(ctx context.Context, req SumRequest) (BenchmarkResult, error)
}

// ResultSink persists benchmark results outside the run store.
type ResultSink interface {
	Record(ctx context.Context, result BenchmarkResult) error
}

// RunRepository defines the persistence contract for runs.
type RunRepository interface {
	Create(ctx context.Context, run Run) error
	GetByID(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, filter ListFilter) ([]Run, error)
	Update(ctx context.Context, run Run) error
}

// ListFilter holds optional criteria for listing runs.
type ListFilter struct {
	Status *Status
	Kind   *Kind
	Limit  int
	Offset int
}

// JobQueue hands a submitted run to asynchronous execution.
type JobQueue interface {
	Enqueue(ctx context.Context, run Run) error
}

// TransitionValidator applies a lifecycle event to a status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
