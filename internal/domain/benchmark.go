package domain

// SumResult is the count, wrapping 128-bit sum and truncated average of a
// set of records.
type SumResult struct {
	Count int
	Sum   Uint128
	Avg   Uint128
}

// BenchmarkResult compares a parallel and a sequential sum over the same records.
type BenchmarkResult struct {
	Threads    int
	Memory     int64
	Result     SumResult
	ParallelMS int64
	SerialMS   int64
	SpeedUp    float64
	Efficiency float64
}
