// Package status validates lifecycle transitions for the entities the
// scheduling core touches. Each entity kind has a closed state set and
// a transition table; the guard is consulted before any status change
// is persisted.
package status

type EntityKind string

const (
	KindAppointment  EntityKind = "appointment"
	KindConsultation EntityKind = "consultation"
	KindPrescription EntityKind = "prescription"
	KindRating       EntityKind = "rating"
)

type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateRejected  State = "rejected"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateNoShow    State = "no_show"
	StateActive    State = "active"
	StateExpired   State = "expired"
	StateArchived  State = "archived"
)

// Table maps each entity kind's states to their allowed successors.
// Every state of a kind must key its map; terminal states map to an
// empty set.
type Table map[EntityKind]map[State][]State

// DefaultTable is the production transition topology. Ratings are the
// one place archived is reversible: an archived rating can be restored.
func DefaultTable() Table {
	return Table{
		KindAppointment: {
			StatePending:   {StateConfirmed, StateRejected, StateCancelled},
			StateConfirmed: {StateCompleted, StateCancelled, StateNoShow},
			StateRejected:  {},
			StateCompleted: {},
			StateCancelled: {},
			StateNoShow:    {},
		},
		KindConsultation: {
			StatePending:   {StateActive, StateCancelled},
			StateActive:    {StateCompleted, StateCancelled},
			StateCompleted: {},
			StateCancelled: {},
		},
		KindPrescription: {
			StateActive:    {StateExpired, StateCompleted, StateArchived},
			StateExpired:   {StateArchived},
			StateCompleted: {StateArchived},
			StateArchived:  {},
		},
		KindRating: {
			StateActive:   {StateArchived},
			StateArchived: {StateActive},
		},
	}
}

type Guard struct {
	table Table
}

// NewGuard validates the table before use: a transition target that is
// not itself a defined state of the same kind is a construction error,
// caught at startup rather than on the first transition.
func NewGuard(table Table) (*Guard, error) {
	for kind, states := range table {
		for from, targets := range states {
			for _, to := range targets {
				if _, ok := states[to]; !ok {
					return nil, &UnknownStateError{Kind: kind, State: to, context: string(from)}
				}
			}
		}
	}
	return &Guard{table: table}, nil
}

// MustDefaultGuard builds a guard over DefaultTable. The default table
// is static, so a failure here is a programming error.
func MustDefaultGuard() *Guard {
	g, err := NewGuard(DefaultTable())
	if err != nil {
		panic(err)
	}
	return g
}

// KnownState reports whether state is defined for kind.
func (g *Guard) KnownState(kind EntityKind, state State) bool {
	states, ok := g.table[kind]
	if !ok {
		return false
	}
	_, ok = states[state]
	return ok
}

// CanTransition reports whether from→to is allowed for kind. An unknown
// kind or state is an error, distinct from a merely forbidden
// transition.
func (g *Guard) CanTransition(kind EntityKind, from, to State) (bool, error) {
	states, ok := g.table[kind]
	if !ok {
		return false, &UnknownStateError{Kind: kind}
	}
	targets, ok := states[from]
	if !ok {
		return false, &UnknownStateError{Kind: kind, State: from}
	}
	if _, ok := states[to]; !ok {
		return false, &UnknownStateError{Kind: kind, State: to}
	}
	for _, t := range targets {
		if t == to {
			return true, nil
		}
	}
	return false, nil
}

// AssertTransition fails with InvalidTransitionError when from→to is
// forbidden, or UnknownStateError when kind or either state is not
// defined. It never coerces to a nearest valid state.
func (g *Guard) AssertTransition(kind EntityKind, from, to State) error {
	ok, err := g.CanTransition(kind, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidTransitionError{Kind: kind, From: from, To: to}
	}
	return nil
}
