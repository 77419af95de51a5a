package status

import "fmt"

// InvalidTransitionError: both states are defined but the transition is
// forbidden by the table.
type InvalidTransitionError struct {
	Kind EntityKind
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition: %s -> %s", e.Kind, e.From, e.To)
}

// UnknownStateError: the entity kind or a state value is not defined at
// all. This indicates bad data or a programming mistake, never user
// input to be tolerated.
type UnknownStateError struct {
	Kind  EntityKind
	State State
	// context carries the from-state when a table references an
	// undefined target during construction.
	context string
}

func (e *UnknownStateError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("unknown entity kind %q", e.Kind)
	}
	if e.context != "" {
		return fmt.Sprintf("transition table for %s references undefined state %q (from %q)", e.Kind, e.State, e.context)
	}
	return fmt.Sprintf("unknown %s status %q", e.Kind, e.State)
}
