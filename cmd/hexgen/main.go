package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/hexgen/internal/adapter/csvsink"
	"github.com/neomorfeo/hexgen/internal/adapter/fsm"
	handler "github.com/neomorfeo/hexgen/internal/adapter/http"
	"github.com/neomorfeo/hexgen/internal/adapter/otel"
	"github.com/neomorfeo/hexgen/internal/adapter/random"
	"github.com/neomorfeo/hexgen/internal/adapter/river"
	"github.com/neomorfeo/hexgen/internal/adapter/sqlite"
	"github.com/neomorfeo/hexgen/internal/app"
	"github.com/neomorfeo/hexgen/internal/domain"
	"github.com/neomorfeo/hexgen/internal/generator"
	"github.com/neomorfeo/hexgen/internal/logging"
	"github.com/neomorfeo/hexgen/internal/summer"
)

func main() {
	logging.New(os.Stderr, os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("hexgen failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run dispatches to a subcommand. No subcommand means generate.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := "generate"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "generate":
		return runGenerate(ctx, args)
	case "sum":
		return runSum(ctx, args, stdout)
	case "serve":
		return runServe(ctx)
	default:
		return fmt.Errorf("unknown command %q (use generate, sum or serve)", cmd)
	}
}

func runGenerate(ctx context.Context, args []string) (err error) {
	count, err := envInt("HEXGEN_COUNT", domain.DefaultCount)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	n := fs.Int("n", count, "number of records to write")
	out := fs.String("o", envOrDefault("HEXGEN_OUTPUT", domain.DefaultOutputPath), "output file")
	seedFlag := fs.String("seed", os.Getenv("HEXGEN_SEED"), "seed for a reproducible file (empty for random)")
	source := fs.String("source", os.Getenv("HEXGEN_SOURCE"), "random source: default or crypto")
	if err := fs.Parse(args); err != nil {
		return err
	}

	seed, err := parseSeed(*seedFlag)
	if err != nil {
		return err
	}
	src, err := random.ByName(*source, seed)
	if err != nil {
		return err
	}

	providers, err := otel.Setup(ctx, cliTelemetry())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	gen, err := otel.NewInstrumentedGenerator(generator.New(generator.WithSource(
		func(*uint64) domain.RandomSource { return src },
	)))
	if err != nil {
		return err
	}

	start := time.Now()
	if err := gen.Generate(ctx, domain.GenerateRequest{Count: *n, OutputPath: *out, Seed: seed}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "records generated",
		"count", *n,
		"path", *out,
		"seeded", seed != nil,
		"elapsed", time.Since(start),
	)
	return nil
}

func runSum(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("sum", flag.ContinueOnError)
	threads := fs.Int("threads", 0, "number of parallel workers (required)")
	memory := fs.Int64("memory", 0, "bytes of records to load, 0 for the whole file")
	in := fs.String("i", envOrDefault("HEXGEN_OUTPUT", domain.DefaultOutputPath), "input file")
	csvPath := fs.String("csv", csvsink.DefaultPath, "results file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *threads < 1 {
		return domain.ErrInvalidWorkers
	}
	if *memory < 0 {
		return &domain.ValidationError{Field: "memory", Reason: "must not be negative"}
	}

	providers, err := otel.Setup(ctx, cliTelemetry())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	s, err := otel.NewInstrumentedSummer(summer.New(csvsink.New(*csvPath)))
	if err != nil {
		return err
	}

	res, err := s.Sum(ctx, domain.SumRequest{InputPath: *in, Workers: *threads, Memory: *memory})
	if err != nil {
		return err
	}

	printBenchmark(stdout, res)
	return nil
}

func printBenchmark(w io.Writer, res domain.BenchmarkResult) {
	r := res.Result
	fmt.Fprintf(w, "Records read: %d\n", r.Count)
	fmt.Fprintf(w, "\n[parallel] Count = %d, Sum = %s, Avg = %s\n", r.Count, r.Sum, r.Avg)
	fmt.Fprintf(w, "Time: %d ms\n", res.ParallelMS)
	fmt.Fprintf(w, "\n[sequential] Count = %d, Sum = %s, Avg = %s\n", r.Count, r.Sum, r.Avg)
	fmt.Fprintf(w, "Time: %d ms\n", res.SerialMS)
	fmt.Fprintf(w, "\nSpeed-Up = %.4f\n", res.SpeedUp)
	fmt.Fprintf(w, "Efficiency = %.4f\n", res.Efficiency)
}

func runServe(ctx context.Context) error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "hexgen.db")
	dataDir := envOrDefault("HEXGEN_DATA_DIR", "data")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}

	// --- OpenTelemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv(otel.ExporterStdout))
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	sqliteRepo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	repo := otel.NewTracingRunRepository(sqliteRepo)

	gen, err := otel.NewInstrumentedGenerator(generator.New())
	if err != nil {
		return err
	}
	sum, err := otel.NewInstrumentedSummer(summer.New(csvsink.New(filepath.Join(dataDir, csvsink.DefaultPath))))
	if err != nil {
		return err
	}

	worker := &river.RunWorker{}
	client, err := river.Setup(ctx, db, worker)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	queue := otel.NewTracingQueue(river.NewQueue(client))

	// --- Application ---
	svc := app.NewRunService(repo, queue, fsm.New(), gen, sum)
	worker.Executor = svc

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware("hexgen", otelchi.WithChiRoutes(router)))
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	api := humachi.New(router, huma.DefaultConfig("hexgen", "0.1.0"))
	handler.Register(api, svc, dataDir)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hexgen listening", "port", port, "docs", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	if err := client.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

// cliTelemetry keeps telemetry off unless OTEL_EXPORTER asks for it, and
// then writes it to stderr.
func cliTelemetry() otel.Config {
	cfg := otel.ConfigFromEnv(otel.ExporterNone)
	cfg.Output = os.Stderr
	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

// parseSeed returns nil for an empty string.
func parseSeed(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: "seed", Reason: err.Error()}
	}
	return &seed, nil
}
