package csvsink

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// DefaultPath is where benchmark rows are appended unless configured otherwise.
const DefaultPath = "result.csv"

// Header is written once, when the file is first created.
var Header = []string{"threads", "memory", "parallel_ms", "serial_ms", "speed_up", "efficiency"}

// Compile-time check: Sink implements domain.ResultSink.
var _ domain.ResultSink = (*Sink)(nil)

// Sink appends benchmark results to a CSV file.
type Sink struct {
	path string
}

// New creates a sink writing to path.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Record appends one row for result.
func (s *Sink) Record(_ context.Context, result domain.BenchmarkResult) error {
	_, err := os.Stat(s.path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.IOError{Op: "stat", Path: s.path, Err: err}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.IOError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(Header); err != nil {
			return &domain.IOError{Op: "write", Path: s.path, Err: err}
		}
	}
	if err := w.Write(row(result)); err != nil {
		return &domain.IOError{Op: "write", Path: s.path, Err: err}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &domain.IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func row(r domain.BenchmarkResult) []string {
	return []string{
		strconv.Itoa(r.Threads),
		strconv.FormatInt(r.Memory, 10),
		strconv.FormatInt(r.ParallelMS, 10),
		strconv.FormatInt(r.SerialMS, 10),
		strconv.FormatFloat(r.SpeedUp, 'f', 6, 64),
		strconv.FormatFloat(r.Efficiency, 'f', 6, 64),
	}
}
