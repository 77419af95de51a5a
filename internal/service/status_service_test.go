package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/status"
)

func seedBooking(t *testing.T, svc testServices) *booking.Booking {
	t.Helper()
	result, err := svc.booking.BookSlot(context.Background(), uuid.New(), uuid.New(), tenAM)
	if err != nil || result.Kind != booking.ResultBooked {
		t.Fatalf("seeding booking: %v, %v", result.Kind, err)
	}
	return result.Booking
}

func TestTransitionStatusPersistsAppointment(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()
	b := seedBooking(t, svc)

	err := svc.statuses.TransitionStatus(ctx, status.KindAppointment, b.ID, status.StatePending, status.StateConfirmed)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	stored, err := svc.repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != booking.StatusConfirmed {
		t.Errorf("stored status = %s, want confirmed", stored.Status)
	}
}

func TestTransitionStatusRejectsForbidden(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	b := seedBooking(t, svc)

	var invalid *status.InvalidTransitionError
	err := svc.statuses.TransitionStatus(context.Background(), status.KindAppointment, b.ID, status.StatePending, status.StateCompleted)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	stored, _ := svc.repo.GetByID(context.Background(), b.ID)
	if stored.Status != booking.StatusPending {
		t.Errorf("forbidden transition mutated status to %s", stored.Status)
	}
}

func TestTransitionStatusStaleFrom(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()
	b := seedBooking(t, svc)

	if err := svc.statuses.TransitionStatus(ctx, status.KindAppointment, b.ID, status.StatePending, status.StateConfirmed); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// A second caller still believing the booking is pending must not win.
	err := svc.statuses.TransitionStatus(ctx, status.KindAppointment, b.ID, status.StatePending, status.StateCancelled)
	if !errors.Is(err, ErrStaleStatus) {
		t.Errorf("expected ErrStaleStatus, got %v", err)
	}
}

func TestTransitionStatusUnknownState(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	b := seedBooking(t, svc)

	var unknown *status.UnknownStateError
	err := svc.statuses.TransitionStatus(context.Background(), status.KindAppointment, b.ID, "limbo", status.StateConfirmed)
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownStateError, got %v", err)
	}
}

// Non-appointment kinds are validated here but persisted by their
// owning services.
func TestTransitionStatusGuardOnlyKinds(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()

	if err := svc.statuses.TransitionStatus(ctx, status.KindRating, uuid.New(), status.StateArchived, status.StateActive); err != nil {
		t.Errorf("rating archived -> active should validate: %v", err)
	}

	var invalid *status.InvalidTransitionError
	err := svc.statuses.TransitionStatus(ctx, status.KindPrescription, uuid.New(), status.StateArchived, status.StateActive)
	if !errors.As(err, &invalid) {
		t.Errorf("prescription archived -> active should be rejected, got %v", err)
	}
}
