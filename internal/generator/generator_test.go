package generator_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/neomorfeo/hexgen/internal/adapter/random"
	"github.com/neomorfeo/hexgen/internal/domain"
	"github.com/neomorfeo/hexgen/internal/generator"
)

// sequenceSource returns the given values in order, then repeats the last one.
type sequenceSource struct {
	vals []uint64
	i    int
}

func (s *sequenceSource) Uint64() uint64 {
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v
}

// readLines returns the file's lines and fails if it does not end in a newline.
func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if data[len(data)-1] != '\n' {
		t.Fatalf("file does not end with a newline")
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func assertShape(t *testing.T, lines []string, n int) {
	t.Helper()

	if len(lines) != n {
		t.Fatalf("got %d lines, want %d", len(lines), n)
	}
	for i, line := range lines {
		if !domain.IsRecordLine(line) {
			t.Fatalf("line %d = %q, want 32 lower-case hex characters", i, line)
		}
		if _, err := strconv.ParseUint(line[:16], 16, 64); err != nil {
			t.Fatalf("line %d hi half: %v", i, err)
		}
		if _, err := strconv.ParseUint(line[16:], 16, 64); err != nil {
			t.Fatalf("line %d lo half: %v", i, err)
		}
	}
}

func TestGenerate_ThreeLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")

	if err := generator.Generate(context.Background(), random.NewDefault(), 3, path); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	assertShape(t, readLines(t, path), 3)
}

func TestGenerate_ZeroCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")

	if err := generator.Generate(context.Background(), random.NewDefault(), 0, path); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestGenerate_NegativeCountIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")

	if err := generator.Generate(context.Background(), random.NewDefault(), -5, path); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if lines := readLines(t, path); len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestGenerate_OverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("stale\n"), 100), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	for range 2 {
		if err := generator.Generate(context.Background(), random.NewDefault(), 5, path); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}

	assertShape(t, readLines(t, path), 5)
}

func TestGenerate_HiIsDrawnFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	src := &sequenceSource{vals: []uint64{0x1, 0x2, 0xdeadbeef, 0xffffffffffffffff}}

	if err := generator.Generate(context.Background(), src, 2, path); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := []string{
		"00000000000000010000000000000002",
		"00000000deadbeefffffffffffffffff",
	}
	got := readLines(t, path)
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerate_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "numbers.txt")

	err := generator.Generate(context.Background(), random.NewDefault(), 1, path)

	var ioErr *domain.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if ioErr.Op != "create" {
		t.Errorf("op = %q, want %q", ioErr.Op, "create")
	}
	if ioErr.Path != path {
		t.Errorf("path = %q, want %q", ioErr.Path, path)
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := generator.Generate(ctx, random.NewDefault(), 10, path)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerator_SeededIsReproducible(t *testing.T) {
	dir := t.TempDir()
	seed := uint64(1234)
	g := generator.New()

	for _, name := range []string{"a.txt", "b.txt"} {
		req := domain.GenerateRequest{Count: 50, OutputPath: filepath.Join(dir, name), Seed: &seed}
		if err := g.Generate(context.Background(), req); err != nil {
			t.Fatalf("Generate(%s) failed: %v", name, err)
		}
	}

	a := readLines(t, filepath.Join(dir, "a.txt"))
	b := readLines(t, filepath.Join(dir, "b.txt"))
	assertShape(t, a, 50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("line %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestGenerator_WithSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	g := generator.New(
		generator.WithSource(func(*uint64) domain.RandomSource {
			return &sequenceSource{vals: []uint64{0}}
		}),
		generator.WithBufferSize(64),
	)

	if err := g.Generate(context.Background(), domain.GenerateRequest{Count: 4, OutputPath: path}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i, line := range readLines(t, path) {
		if line != strings.Repeat("0", domain.RecordWidth) {
			t.Errorf("line %d = %q, want all zeros", i, line)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	err := generator.Write(context.Background(), failingWriter{}, random.NewDefault(), 1)
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestWrite_LineCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 500).Draw(t, "n")
		seed := rapid.Uint64().Draw(t, "seed")

		var buf bytes.Buffer
		if err := generator.Write(context.Background(), &buf, random.NewSeeded(seed), n); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if buf.Len() != n*domain.LineWidth {
			t.Fatalf("wrote %d bytes, want %d", buf.Len(), n*domain.LineWidth)
		}

		sc := bufio.NewScanner(&buf)
		lines := 0
		for sc.Scan() {
			if !domain.IsRecordLine(sc.Text()) {
				t.Fatalf("line %d = %q is not a record line", lines, sc.Text())
			}
			lines++
		}
		if lines != n {
			t.Fatalf("got %d lines, want %d", lines, n)
		}
	})
}
