package summer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// Compile-time check: Summer implements domain.Summer.
var _ domain.Summer = (*Summer)(nil)

// Benchmark runs Parallel then Sequential over records and reports both
// timings in milliseconds. SpeedUp is zero when the parallel pass took
// under a millisecond.
func Benchmark(ctx context.Context, records []domain.Record, workers int, memory int64) (domain.BenchmarkResult, error) {
	start := time.Now()
	par, err := Parallel(ctx, records, workers)
	if err != nil {
		return domain.BenchmarkResult{}, err
	}
	parallelMS := time.Since(start).Milliseconds()

	start = time.Now()
	seq := Sequential(records)
	serialMS := time.Since(start).Milliseconds()

	if par != seq {
		return domain.BenchmarkResult{}, fmt.Errorf("%w: parallel %s, sequential %s", domain.ErrSumMismatch, par.Sum, seq.Sum)
	}

	res := domain.BenchmarkResult{
		Threads:    workers,
		Memory:     memory,
		Result:     par,
		ParallelMS: parallelMS,
		SerialMS:   serialMS,
	}
	if parallelMS > 0 {
		res.SpeedUp = float64(serialMS) / float64(parallelMS)
		res.Efficiency = res.SpeedUp / float64(workers)
	}
	return res, nil
}

// Summer implements domain.Summer over files on disk. Results are also
// handed to the optional sink.
type Summer struct {
	sink domain.ResultSink
}

// New creates a Summer. sink may be nil.
func New(sink domain.ResultSink) *Summer {
	return &Summer{sink: sink}
}

// Sum loads req.InputPath and benchmarks it with req.Workers workers.
func (s *Summer) Sum(ctx context.Context, req domain.SumRequest) (domain.BenchmarkResult, error) {
	if req.Workers < 1 {
		return domain.BenchmarkResult{}, domain.ErrInvalidWorkers
	}

	records, err := Load(req.InputPath, req.Memory)
	if err != nil {
		return domain.BenchmarkResult{}, err
	}
	slog.DebugContext(ctx, "records loaded", "path", req.InputPath, "count", len(records))

	res, err := Benchmark(ctx, records, req.Workers, req.Memory)
	if err != nil {
		return domain.BenchmarkResult{}, err
	}

	if s.sink != nil {
		if err := s.sink.Record(ctx, res); err != nil {
			return domain.BenchmarkResult{}, fmt.Errorf("recording benchmark: %w", err)
		}
	}
	return res, nil
}
