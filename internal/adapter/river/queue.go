package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// Compile-time check: Queue implements domain.JobQueue.
var _ domain.JobQueue = (*Queue)(nil)

// RunJobArgs identifies a run to execute. River serializes this as JSON
// into its job queue table; the worker loads the rest from the run store.
type RunJobArgs struct {
	RunID   string `json:"run_id"`
	RunKind string `json:"kind"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (RunJobArgs) Kind() string { return "run.execute" }

// InsertOpts disables retries: a failed run is recorded as failed, not replayed.
func (RunJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 1}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Queue implements domain.JobQueue by enqueuing River jobs.
type Queue struct {
	client *Client
}

// NewQueue creates a queue backed by the given River client.
func NewQueue(client *Client) *Queue {
	return &Queue{client: client}
}

// Enqueue inserts a job that executes the run asynchronously.
func (q *Queue) Enqueue(ctx context.Context, run domain.Run) error {
	_, err := q.client.Insert(ctx, RunJobArgs{
		RunID:   run.ID,
		RunKind: string(run.Kind),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing run job: %w", err)
	}
	return nil
}
