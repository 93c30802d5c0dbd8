// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexgraph/core"
	"golang.org/x/sync/errgroup"
)

// StepFn transforms the state. A returned error marks the run failed: the
// engine captures it into the state and routes to the failure step instead
// of letting it cross the engine boundary.
type StepFn func(ctx context.Context, s *State) (*State, error)

const defaultMaxSteps = 64

// Engine executes a named sequence of steps connected by static or
// conditional edges, starting at the entry step and stopping at End.
// Exactly one step (or parallel group) executes per iteration.
type Engine struct {
	name     string
	entry    string
	steps    map[string]StepFn
	groups   map[string][]string
	edges    map[string]Edge
	failure  string
	maxSteps int
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFailureStep names the step the engine routes to after capturing a
// fault. The failure step always runs, even on a cancelled context.
func WithFailureStep(name string) Option {
	return func(e *Engine) {
		e.failure = name
	}
}

// WithPool bounds parallel-group execution with a shared worker pool.
// Without a pool each group member runs on its own goroutine.
func WithPool(pool *ants.Pool) Option {
	return func(e *Engine) {
		e.pool = pool
	}
}

// WithMaxSteps overrides the iteration budget guarding against wiring cycles.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEngine creates an engine that starts at the named entry step.
func NewEngine(name, entry string, opts ...Option) *Engine {
	e := &Engine{
		name:     name,
		entry:    entry,
		steps:    make(map[string]StepFn),
		groups:   make(map[string][]string),
		edges:    make(map[string]Edge),
		maxSteps: defaultMaxSteps,
		logger:   slog.Default().With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddStep registers a named step.
func (e *Engine) AddStep(name string, fn StepFn) {
	e.steps[name] = fn
}

// AddParallel registers a group that runs the named member steps
// concurrently on branch states and joins them before the next edge.
func (e *Engine) AddParallel(name string, members ...string) {
	e.groups[name] = members
}

// AddEdge connects a step (or group) to its successor. A step without an
// edge terminates the run.
func (e *Engine) AddEdge(from string, edge Edge) {
	e.edges[from] = edge
}

// Run executes the workflow on the given state and returns the final state.
// Step faults never escape: they are captured into the state and handled by
// the failure step. A non-nil error indicates engine misconfiguration.
func (e *Engine) Run(ctx context.Context, s *State) (*State, error) {
	if s == nil {
		return nil, ErrStateRequired
	}
	if e.entry == "" {
		return s, ErrNoEntryStep
	}
	if !e.has(e.entry) {
		return s, fmt.Errorf("%w: entry %q", ErrUnknownStep, e.entry)
	}

	cur := e.entry
	for i := 0; cur != End; i++ {
		if i >= e.maxSteps {
			return s, fmt.Errorf("%w: engine %q after %d steps", ErrStepBudgetExceeded, e.name, i)
		}

		// The failure step still runs when the caller cancelled, so the
		// run can report partial results.
		if err := ctx.Err(); err != nil && cur != e.failure {
			s.Fail(cancelInfo(cur, err))
			if e.failure != "" {
				cur = e.failure
				continue
			}
			break
		}

		e.logger.Debug("executing step", "engine", e.name, "step", cur, "run", s.RunID)
		ns, err := e.invoke(ctx, cur, s)
		if ns != nil {
			s = ns
		}
		if err != nil {
			e.logger.Error("step fault captured", "engine", e.name, "step", cur, "err", err)
			s.Fail(classify(cur, err))
			if e.failure != "" && cur != e.failure {
				cur = e.failure
				continue
			}
			break
		}

		edge, ok := e.edges[cur]
		if !ok {
			break
		}
		next := edge.next(s)
		if next != End && !e.has(next) {
			return s, fmt.Errorf("%w: %q", ErrUnknownStep, next)
		}
		cur = next
	}

	if s.Status == StatusRunning {
		s.Status = StatusCompleted
	}
	return s, nil
}

func (e *Engine) has(name string) bool {
	if _, ok := e.steps[name]; ok {
		return true
	}
	_, ok := e.groups[name]
	return ok
}

func (e *Engine) invoke(ctx context.Context, name string, s *State) (*State, error) {
	if members, ok := e.groups[name]; ok {
		return e.runGroup(ctx, s, members)
	}
	fn, ok := e.steps[name]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	return fn(ctx, s)
}

// runGroup fans the state out to each member step, runs them concurrently,
// and joins the branches back into one state.
func (e *Engine) runGroup(ctx context.Context, s *State, members []string) (*State, error) {
	branches := make([]*State, len(members))
	g, gctx := errgroup.WithContext(ctx)

	for i, name := range members {
		fn, ok := e.steps[name]
		if !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownStep, name)
		}
		b := s.branch()
		branches[i] = b
		run := func() {
			ns, err := fn(gctx, b)
			if ns != nil {
				branches[i] = ns
			}
			if err != nil {
				branches[i].Fail(classify(name, err))
			}
		}
		g.Go(func() error {
			if e.pool == nil {
				run()
				return nil
			}
			done := make(chan struct{})
			if err := e.pool.Submit(func() {
				defer close(done)
				run()
			}); err != nil {
				// Pool released or overloaded, fall back to running inline.
				run()
				return nil
			}
			<-done
			return nil
		})
	}

	_ = g.Wait()
	for _, b := range branches {
		s.merge(b)
	}
	return s, nil
}

func classify(step string, err error) core.ErrorInfo {
	var perr *core.PipelineError
	if errors.As(err, &perr) {
		info := perr.Info
		if info.SourceStep == "" {
			info.SourceStep = step
		}
		return info
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return cancelInfo(step, err)
	}
	return core.ErrorInfo{
		Kind:       core.ErrorExternalService,
		Message:    err.Error(),
		SourceStep: step,
	}
}

func cancelInfo(step string, err error) core.ErrorInfo {
	return core.ErrorInfo{
		Kind:       core.ErrorExternalService,
		Message:    fmt.Sprintf("run cancelled: %v", err),
		SourceStep: step,
	}
}
