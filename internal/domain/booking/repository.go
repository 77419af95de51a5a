package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommitOutcome is what a commit attempt observed inside its
// transaction. The store must serialize concurrent attempts on the same
// doctor/day/start so that at most one observes Inserted.
type CommitOutcome int

const (
	// CommitInserted: the slot was free and the booking is now persisted.
	CommitInserted CommitOutcome = iota
	// CommitAlreadyExists: a live booking already occupies the slot.
	CommitAlreadyExists
	// CommitTransientConflict: the store aborted on a concurrency signal
	// (deadlock, serialization failure); the attempt may be retried.
	CommitTransientConflict
)

// CommitFunc is the atomic check-and-insert capability the conflict
// resolver retries. A non-nil error means infrastructure failure, not a
// business outcome.
type CommitFunc func(ctx context.Context) (CommitOutcome, *Booking, error)

type Repository interface {
	// FindBookedStartTimes returns the start times of live bookings for
	// the doctor on the given day.
	FindBookedStartTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error)

	// CommitBooking re-checks slot occupancy and inserts inside a single
	// transaction with row-level locking.
	CommitBooking(ctx context.Context, cmd CreateBookingCommand) (CommitOutcome, *Booking, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, b *Booking) error
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Booking, error)
}
