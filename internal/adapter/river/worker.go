package river

import (
	"context"
	"errors"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// Executor runs a persisted run to completion. app.RunService implements it.
type Executor interface {
	Execute(ctx context.Context, id string) (domain.Run, error)
}

// RunWorker executes run jobs from the River queue. Executor must be set
// before the client is started.
type RunWorker struct {
	river.WorkerDefaults[RunJobArgs]

	Executor Executor
}

// Work executes a single run. A run that failed has already been recorded
// as failed, so its job is cancelled rather than retried.
func (w *RunWorker) Work(ctx context.Context, job *river.Job[RunJobArgs]) error {
	slog.InfoContext(ctx, "processing run",
		"run_id", job.Args.RunID,
		"kind", job.Args.RunKind,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if w.Executor == nil {
		return errors.New("run worker has no executor")
	}

	run, err := w.Executor.Execute(ctx, job.Args.RunID)
	if err != nil {
		if run.Status == domain.StatusFailed {
			return river.JobCancel(err)
		}
		return err
	}
	return nil
}
