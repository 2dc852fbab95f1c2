// Package generator writes files of random 128-bit records, one
// 32-character lower-case hex value per line.
package generator

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/neomorfeo/hexgen/internal/adapter/random"
	"github.com/neomorfeo/hexgen/internal/domain"
)

const (
	defaultBufferSize = 1 << 20
	// ctxCheckInterval is how many records are written between context checks.
	ctxCheckInterval = 1 << 16
)

// Compile-time check: Generator implements domain.Generator.
var _ domain.Generator = (*Generator)(nil)

// SourceFunc builds the random source for one generation.
type SourceFunc func(seed *uint64) domain.RandomSource

// Generator implements domain.Generator on the local filesystem.
type Generator struct {
	newSource  SourceFunc
	bufferSize int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource overrides how the random source is built for each request.
func WithSource(fn SourceFunc) Option {
	return func(g *Generator) { g.newSource = fn }
}

// WithBufferSize sets the write buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.bufferSize = n
		}
	}
}

// New creates a Generator. By default a seeded request uses a PCG source
// and an unseeded one uses the process-wide generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		newSource:  random.FromSeed,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes req.Count records to req.OutputPath.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) error {
	return generate(ctx, g.newSource(req.Seed), req.Count, req.OutputPath, g.bufferSize)
}

// Generate creates or truncates path and writes n records drawn from src.
// A non-positive n leaves an empty file. Any file system failure is
// returned as a *domain.IOError.
func Generate(ctx context.Context, src domain.RandomSource, n int, path string) error {
	return generate(ctx, src, n, path, defaultBufferSize)
}

func generate(ctx context.Context, src domain.RandomSource, n int, path string, bufferSize int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &domain.IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &domain.IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	if werr := write(ctx, f, src, n, bufferSize); werr != nil {
		if errors.Is(werr, context.Canceled) || errors.Is(werr, context.DeadlineExceeded) {
			return werr
		}
		return &domain.IOError{Op: "write", Path: path, Err: werr}
	}
	return nil
}

// Write emits n records drawn from src to w and flushes. Each record draws
// hi then lo.
func Write(ctx context.Context, w io.Writer, src domain.RandomSource, n int) error {
	return write(ctx, w, src, n, defaultBufferSize)
}

func write(ctx context.Context, w io.Writer, src domain.RandomSource, n int, bufferSize int) error {
	bw := bufio.NewWriterSize(w, bufferSize)
	line := make([]byte, 0, domain.LineWidth)

	for i := 0; i < n; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		hi := src.Uint64()
		lo := src.Uint64()
		line = domain.AppendLine(line[:0], hi, lo)
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}

	return bw.Flush()
}
