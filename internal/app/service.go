package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// RunService orchestrates the generate and sum run lifecycle.
type RunService struct {
	repo      domain.RunRepository
	queue     domain.JobQueue
	validator domain.TransitionValidator
	generator domain.Generator
	summer    domain.Summer
}

// NewRunService creates a service with the given adapters.
func NewRunService(
	repo domain.RunRepository,
	queue domain.JobQueue,
	validator domain.TransitionValidator,
	generator domain.Generator,
	summer domain.Summer,
) *RunService {
	return &RunService{
		repo:      repo,
		queue:     queue,
		validator: validator,
		generator: generator,
		summer:    summer,
	}
}

// Submit validates and persists a new run, then queues it for execution.
func (s *RunService) Submit(ctx context.Context, req domain.RunRequest) (domain.Run, error) {
	if err := req.Validate(); err != nil {
		return domain.Run{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Run{}, fmt.Errorf("generating run id: %w", err)
	}

	run := domain.NewRun(id, req)

	if err := s.repo.Create(ctx, run); err != nil {
		return domain.Run{}, fmt.Errorf("creating run: %w", err)
	}

	if err := s.queue.Enqueue(ctx, run); err != nil {
		return domain.Run{}, fmt.Errorf("enqueuing run: %w", err)
	}

	return run, nil
}

// Execute performs a pending run. The run ends "succeeded" with its results
// recorded, or "failed" with the error message recorded; in the latter case
// the operation error is also returned.
func (s *RunService) Execute(ctx context.Context, id string) (domain.Run, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}

	if run, err = s.transition(ctx, run, domain.EventStart); err != nil {
		return run, err
	}
	slog.InfoContext(ctx, "run started", "run_id", run.ID, "kind", run.Kind, "path", run.Path)

	opErr := s.perform(ctx, &run)

	// The outcome is recorded even when ctx was cancelled mid-run.
	done := context.WithoutCancel(ctx)
	if opErr != nil {
		run.Error = opErr.Error()
		if run, err = s.transition(done, run, domain.EventFail); err != nil {
			return run, err
		}
		slog.WarnContext(ctx, "run failed", "run_id", run.ID, "error", opErr)
		return run, opErr
	}

	if run, err = s.transition(done, run, domain.EventSucceed); err != nil {
		return run, err
	}
	slog.InfoContext(ctx, "run succeeded", "run_id", run.ID, "lines", run.Lines)
	return run, nil
}

func (s *RunService) perform(ctx context.Context, run *domain.Run) error {
	switch run.Kind {
	case domain.KindGenerate:
		err := s.generator.Generate(ctx, domain.GenerateRequest{
			Count:      run.Count,
			OutputPath: run.Path,
			Seed:       run.Seed,
		})
		if err != nil {
			return err
		}
		run.Lines = max(run.Count, 0)
		return nil

	case domain.KindSum:
		res, err := s.summer.Sum(ctx, domain.SumRequest{
			InputPath: run.Path,
			Workers:   run.Workers,
			Memory:    run.Memory,
		})
		if err != nil {
			return err
		}
		run.Lines = res.Result.Count
		run.Sum = res.Result.Sum
		run.Avg = res.Result.Avg
		run.ParallelMS = res.ParallelMS
		run.SerialMS = res.SerialMS
		return nil

	default:
		return &domain.ValidationError{Field: "kind", Reason: "unknown kind " + string(run.Kind)}
	}
}

func (s *RunService) transition(ctx context.Context, run domain.Run, event domain.Event) (domain.Run, error) {
	status, err := s.validator.Apply(ctx, run.Status, event)
	if err != nil {
		return run, err
	}

	run.Status = status
	if err := s.repo.Update(ctx, run); err != nil {
		return run, fmt.Errorf("recording %s: %w", event, err)
	}
	return run, nil
}

// Get returns a run by its unique identifier.
func (s *RunService) Get(ctx context.Context, id string) (domain.Run, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns runs matching the given filter.
func (s *RunService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Run, error) {
	return s.repo.List(ctx, filter)
}
