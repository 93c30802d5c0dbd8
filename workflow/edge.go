package workflow

// End is the terminal marker. Resolving an edge to End stops the run.
const End = "__end__"

// Edge resolves the name of the next step from the state after a step ran.
// There are two variants: a static edge always returns the same name, a
// conditional edge inspects the state.
type Edge interface {
	next(s *State) string
}

type staticEdge struct {
	to string
}

func (e staticEdge) next(_ *State) string { return e.to }

// To creates a static edge to the named step.
func To(name string) Edge {
	return staticEdge{to: name}
}

type conditionalEdge struct {
	fn func(s *State) string
}

func (e conditionalEdge) next(s *State) string { return e.fn(s) }

// When creates a conditional edge evaluated against the state.
func When(fn func(s *State) string) Edge {
	return conditionalEdge{fn: fn}
}

// RouteOnFailure creates the shared error-routing edge: a failed state is
// diverted to the failure step, otherwise control continues to next.
func RouteOnFailure(failure, next string) Edge {
	return When(func(s *State) string {
		if s.Status == StatusFailed {
			return failure
		}
		return next
	})
}
