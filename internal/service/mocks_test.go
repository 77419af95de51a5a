package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/schedule"
)

func slotKey(doctorID uuid.UUID, start time.Time) string {
	return fmt.Sprintf("%s|%d", doctorID, start.Unix())
}

// fakeRepo is an in-memory booking.Repository. Its CommitBooking
// serializes claimants with a mutex, which models the store-side
// guarantee that at most one concurrent commit observes a free slot.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
	byID     map[uuid.UUID]*booking.Booking

	// transientLeft forces the next N commits to report a transient
	// conflict before behaving normally.
	transientLeft int
	commitErr     error

	findCalls   int
	commitCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[string]*booking.Booking),
		byID:     make(map[uuid.UUID]*booking.Booking),
	}
}

func (r *fakeRepo) FindBookedStartTimes(_ context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++

	var starts []time.Time
	for _, b := range r.bookings {
		if b.DoctorID == doctorID && b.Day.Equal(day) && b.Status.IsLive() {
			starts = append(starts, b.StartTime)
		}
	}
	return starts, nil
}

func (r *fakeRepo) CommitBooking(_ context.Context, cmd booking.CreateBookingCommand) (booking.CommitOutcome, *booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitCalls++

	if r.commitErr != nil {
		return 0, nil, r.commitErr
	}
	if r.transientLeft > 0 {
		r.transientLeft--
		return booking.CommitTransientConflict, nil, nil
	}

	key := slotKey(cmd.DoctorID, cmd.StartTime)
	if existing, ok := r.bookings[key]; ok && existing.Status.IsLive() {
		return booking.CommitAlreadyExists, nil, nil
	}

	b := &booking.Booking{
		ID:        uuid.New(),
		DoctorID:  cmd.DoctorID,
		PatientID: cmd.PatientID,
		Day:       cmd.Day,
		StartTime: cmd.StartTime,
		Status:    booking.StatusPending,
	}
	r.bookings[key] = b
	r.byID[b.ID] = b
	return booking.CommitInserted, b, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[b.ID]
	if !ok {
		return booking.ErrBookingNotFound
	}
	stored.Status = b.Status
	return nil
}

func (r *fakeRepo) ListForDoctorDay(_ context.Context, doctorID uuid.UUID, day time.Time) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.byID {
		if b.DoctorID == doctorID && b.Day.Equal(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

var errStoreDown = errors.New("cache store unreachable")

// failingStore always errors, for the fail-open path.
type failingStore struct {
	getCalls int
}

func (s *failingStore) Get(context.Context, string) ([]schedule.Slot, bool, error) {
	s.getCalls++
	return nil, false, errStoreDown
}

func (s *failingStore) Set(context.Context, string, []schedule.Slot, []string) error {
	return errStoreDown
}

func (s *failingStore) Invalidate(context.Context, string) error {
	return errStoreDown
}

func (s *failingStore) InvalidateByTag(context.Context, string) error {
	return errStoreDown
}
