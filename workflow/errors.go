package workflow

import "errors"

var (
	// ErrUnknownStep is returned when an edge resolves to an unregistered step.
	ErrUnknownStep = errors.New("unknown step")

	// ErrNoEntryStep is returned when an engine is run without an entry step.
	ErrNoEntryStep = errors.New("no entry step configured")

	// ErrStepBudgetExceeded is returned when a run exceeds the iteration
	// budget, which indicates a wiring cycle.
	ErrStepBudgetExceeded = errors.New("step budget exceeded")

	// ErrStateRequired is returned when Run is called with a nil state.
	ErrStateRequired = errors.New("state required")
)
