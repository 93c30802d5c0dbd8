package workflow

import (
	"maps"

	"github.com/google/uuid"
	"github.com/poiesic/lexgraph/core"
)

// Status tracks the lifecycle of a pipeline run.
type Status int

const (
	StatusRunning Status = iota + 1
	StatusCompleted
	StatusFailed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State carries the inputs, intermediate results, and outcome of a single
// pipeline run. It is owned exclusively by that run: steps receive it,
// transform it, and return it, but never share it across runs.
type State struct {
	RunID           string
	Query           string
	DocumentContent string
	Filters         core.Filters
	Limit           int
	Scope           core.Scope

	// Intermediate is per-step scratch space, keyed by step name or a
	// step-chosen key (e.g. raw structured hits before fusion).
	Intermediate map[string]any

	Results  []core.RetrievalRecord
	Analysis *core.AnalysisResult

	Status Status
	Err    *core.ErrorInfo
}

// NewState creates a running state with a fresh run ID.
func NewState() *State {
	return &State{
		RunID:        uuid.NewString(),
		Intermediate: make(map[string]any),
		Status:       StatusRunning,
	}
}

// Fail records a fatal fault. Results and Analysis computed so far are
// retained; after this only the failure step may act on the state.
func (s *State) Fail(info core.ErrorInfo) *State {
	s.Status = StatusFailed
	s.Err = &info
	return s
}

// Warn records an advisory fault (Partial or Parse class) without
// stopping the run. An earlier fatal error is never overwritten.
func (s *State) Warn(info core.ErrorInfo) *State {
	if s.Status == StatusFailed {
		return s
	}
	s.Err = &info
	return s
}

// branch creates a copy of the state for one arm of a parallel group.
// The copy sees a snapshot of Intermediate and writes to its own map.
func (s *State) branch() *State {
	b := *s
	b.Intermediate = make(map[string]any, len(s.Intermediate))
	maps.Copy(b.Intermediate, s.Intermediate)
	b.Err = nil
	return &b
}

// merge folds a finished branch back into the joined state. Intermediate
// keys written by the branch win; the first fatal branch failure makes the
// joined state fail, and an advisory branch error is kept if none is set.
func (s *State) merge(b *State) {
	maps.Copy(s.Intermediate, b.Intermediate)
	if b.Status == StatusFailed && s.Status != StatusFailed {
		s.Status = StatusFailed
		s.Err = b.Err
		return
	}
	if b.Err != nil && s.Err == nil {
		s.Err = b.Err
	}
}
