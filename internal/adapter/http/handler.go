package http

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/hexgen/internal/app"
	"github.com/neomorfeo/hexgen/internal/domain"
)

// RunResponse is the API representation of a run.
type RunResponse struct {
	ID         string  `json:"id" doc:"Unique identifier (ULID)"`
	Kind       string  `json:"kind" doc:"generate or sum"`
	Count      int     `json:"count" doc:"Records requested (generate runs)"`
	Path       string  `json:"path" doc:"Output file (generate) or input file (sum)"`
	Seed       *uint64 `json:"seed,omitempty" doc:"Seed of a reproducible generate run"`
	Workers    int     `json:"workers" doc:"Parallel summing workers (sum runs)"`
	Memory     int64   `json:"memory" doc:"Byte budget for loaded records, 0 for unbounded (sum runs)"`
	Status     string  `json:"status" doc:"Lifecycle state"`
	Error      string  `json:"error,omitempty" doc:"Failure message of a failed run"`
	Lines      int     `json:"lines" doc:"Records written or summed"`
	Sum        string  `json:"sum" doc:"Decimal 128-bit sum (sum runs)"`
	Avg        string  `json:"avg" doc:"Decimal truncated average (sum runs)"`
	ParallelMS int64   `json:"parallel_ms" doc:"Parallel pass wall time (sum runs)"`
	SerialMS   int64   `json:"serial_ms" doc:"Sequential pass wall time (sum runs)"`
	CreatedAt  string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt  string  `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRunResponse(r domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		Kind:       string(r.Kind),
		Count:      r.Count,
		Path:       r.Path,
		Seed:       r.Seed,
		Workers:    r.Workers,
		Memory:     r.Memory,
		Status:     string(r.Status),
		Error:      r.Error,
		Lines:      r.Lines,
		Sum:        r.Sum.String(),
		Avg:        r.Avg.String(),
		ParallelMS: r.ParallelMS,
		SerialMS:   r.SerialMS,
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// --- Submit Run ---

type SubmitRunInput struct {
	Body struct {
		Kind    string  `json:"kind,omitempty" default:"generate" enum:"generate,sum" doc:"What the run does"`
		Count   *int    `json:"count,omitempty" minimum:"0" doc:"Records to generate (default 10000000)"`
		Path    string  `json:"path,omitempty" default:"numbers.txt" minLength:"1" doc:"Output file (generate) or input file (sum), relative to the data directory"`
		Seed    *uint64 `json:"seed,omitempty" doc:"Makes a generate run reproducible"`
		Workers int     `json:"workers,omitempty" default:"1" minimum:"1" maximum:"1024" doc:"Parallel summing workers"`
		Memory  int64   `json:"memory,omitempty" minimum:"0" doc:"Byte budget for loaded records, 0 for unbounded"`
	}
}

type SubmitRunOutput struct {
	Body RunResponse
}

// --- Get Run ---

type GetRunInput struct {
	ID string `path:"id" doc:"Run ID"`
}

type GetRunOutput struct {
	Body RunResponse
}

// --- List Runs ---

type ListRunsInput struct {
	Status string `query:"status" required:"false" enum:"pending,running,succeeded,failed" doc:"Filter by status"`
	Kind   string `query:"kind" required:"false" enum:"generate,sum" doc:"Filter by kind"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"1" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListRunsOutput struct {
	Body []RunResponse
}

// Register adds all run API routes to the Huma API. Run paths submitted
// through the API are resolved inside dataDir.
func Register(api huma.API, svc *app.RunService, dataDir string) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-run",
		Method:        http.MethodPost,
		Path:          "/api/v1/runs",
		Summary:       "Submit a generate or sum run",
		Tags:          []string{"Runs"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *SubmitRunInput) (*SubmitRunOutput, error) {
		count := domain.DefaultCount
		if input.Body.Count != nil {
			count = *input.Body.Count
		}

		path, err := resolvePath(dataDir, input.Body.Path)
		if err != nil {
			return nil, toHumaError(err)
		}

		run, err := svc.Submit(ctx, domain.RunRequest{
			Kind:    domain.Kind(input.Body.Kind),
			Count:   count,
			Path:    path,
			Seed:    input.Body.Seed,
			Workers: input.Body.Workers,
			Memory:  input.Body.Memory,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubmitRunOutput{Body: toRunResponse(run)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs/{id}",
		Summary:     "Get a run by ID",
		Tags:        []string{"Runs"},
	}, func(ctx context.Context, input *GetRunInput) (*GetRunOutput, error) {
		run, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetRunOutput{Body: toRunResponse(run)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs",
		Summary:     "List runs, newest first",
		Tags:        []string{"Runs"},
	}, func(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}
		if input.Kind != "" {
			k := domain.Kind(input.Kind)
			filter.Kind = &k
		}

		runs, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RunResponse, len(runs))
		for i, r := range runs {
			resp[i] = toRunResponse(r)
		}
		return &ListRunsOutput{Body: resp}, nil
	})
}

// resolvePath joins a client-supplied path onto dataDir. Absolute paths and
// paths climbing out of dataDir are rejected.
func resolvePath(dataDir, path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", &domain.ValidationError{Field: "path", Reason: "must be relative to the data directory"}
	}
	return filepath.Join(dataDir, path), nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrRunNotFound) {
		return huma.Error404NotFound("run not found")
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error422UnprocessableEntity(vErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
