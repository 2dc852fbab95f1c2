package domain

import "time"

// Kind identifies what a run does.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindSum      Kind = "sum"
)

// Status represents the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event represents an action that triggers a state transition.
type Event string

const (
	EventStart   Event = "start"
	EventSucceed Event = "succeed"
	EventFail    Event = "fail"
)

// Transition defines a valid state change: an event moves a run from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the run lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventStart, Src: StatusPending, Dst: StatusRunning},
	{Event: EventSucceed, Src: StatusRunning, Dst: StatusSucceeded},
	{Event: EventFail, Src: StatusPending, Dst: StatusFailed},
	{Event: EventFail, Src: StatusRunning, Dst: StatusFailed},
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// RunRequest describes a run to be submitted.
type RunRequest struct {
	Kind Kind
	// Count is the number of records to generate. Ignored for sum runs.
	Count int
	// Path is the output file for generate runs and the input file for sum runs.
	Path string
	// Seed makes a generate run reproducible. Nil draws from an unseeded source.
	Seed *uint64
	// Workers is the number of parallel summing workers. Ignored for generate runs.
	Workers int
	// Memory bounds how many bytes of records a sum run loads. Zero is unbounded.
	Memory int64
}

// Validate checks the request fields that apply to its kind.
func (r RunRequest) Validate() error {
	switch r.Kind {
	case KindGenerate:
		if r.Count < 0 {
			return &ValidationError{Field: "count", Reason: "must not be negative"}
		}
	case KindSum:
		if r.Workers < 1 {
			return &ValidationError{Field: "workers", Reason: "must be at least 1"}
		}
		if r.Memory < 0 {
			return &ValidationError{Field: "memory", Reason: "must not be negative"}
		}
	default:
		return &ValidationError{Field: "kind", Reason: "unknown kind " + string(r.Kind)}
	}

	if r.Path == "" {
		return &ValidationError{Field: "path", Reason: "must not be empty"}
	}
	return nil
}

// Run is a tracked generate or sum job and its outcome.
type Run struct {
	ID      string
	Kind    Kind
	Count   int
	Path    string
	Seed    *uint64
	Workers int
	Memory  int64
	Status  Status
	Error   string

	// Results. Lines is set by both kinds; the rest only by sum runs.
	Lines      int
	Sum        Uint128
	Avg        Uint128
	ParallelMS int64
	SerialMS   int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRun creates a run in the initial "pending" state.
func NewRun(id string, req RunRequest) Run {
	now := time.Now().UTC()
	return Run{
		ID:        id,
		Kind:      req.Kind,
		Count:     req.Count,
		Path:      req.Path,
		Seed:      req.Seed,
		Workers:   req.Workers,
		Memory:    req.Memory,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
