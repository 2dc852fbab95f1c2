package summer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// Span is a half-open index range [Start, End) of records.
type Span struct {
	Start int
	End   int
}

// Partition splits n records into workers contiguous spans. Every span gets
// n/workers records and the first n%workers spans get one more.
func Partition(n, workers int) []Span {
	if workers <= 0 {
		return nil
	}

	chunk, rem := n/workers, n%workers
	spans := make([]Span, workers)
	start := 0
	for i := range spans {
		end := start + chunk
		if i < rem {
			end++
		}
		spans[i] = Span{Start: start, End: end}
		start = end
	}
	return spans
}

// Sequential sums records on the calling goroutine.
func Sequential(records []domain.Record) domain.SumResult {
	return result(len(records), total(records))
}

// Parallel sums records across workers goroutines, one span each.
func Parallel(ctx context.Context, records []domain.Record, workers int) (domain.SumResult, error) {
	if workers < 1 {
		return domain.SumResult{}, domain.ErrInvalidWorkers
	}

	spans := Partition(len(records), workers)
	partial := make([]domain.Uint128, len(spans))

	g, ctx := errgroup.WithContext(ctx)
	for i, sp := range spans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partial[i] = total(records[sp.Start:sp.End])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SumResult{}, err
	}

	var sum domain.Uint128
	for _, p := range partial {
		sum = sum.Add(p)
	}
	return result(len(records), sum), nil
}

func total(records []domain.Record) domain.Uint128 {
	var sum domain.Uint128
	for _, r := range records {
		sum = sum.Add(r.Value())
	}
	return sum
}

func result(count int, sum domain.Uint128) domain.SumResult {
	res := domain.SumResult{Count: count, Sum: sum}
	if count > 0 {
		res.Avg = sum.Div64(uint64(count))
	}
	return res
}
