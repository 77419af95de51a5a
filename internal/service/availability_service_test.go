package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduling/internal/domain/booking"
)

func TestGetAvailableSlotsCachesRecomputation(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()
	doctorID := uuid.New()

	first, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	if len(first) != 16 {
		t.Fatalf("expected 16 free slots on an empty day, got %d", len(first))
	}
	reads := svc.repo.findCalls

	second, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday)
	if err != nil {
		t.Fatalf("GetAvailableSlots (cached): %v", err)
	}
	if len(second) != 16 {
		t.Errorf("cached read returned %d slots, want 16", len(second))
	}
	if svc.repo.findCalls != reads {
		t.Errorf("cached read hit the repository (%d -> %d calls)", reads, svc.repo.findCalls)
	}
}

// Read-your-writes: the booking path invalidates synchronously, so the
// very next availability read must not offer the just-booked slot.
func TestReadYourWritesAfterBooking(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()
	doctorID := uuid.New()

	// Prime the cache before booking.
	if _, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday); err != nil {
		t.Fatalf("priming read: %v", err)
	}

	result, err := svc.booking.BookSlot(ctx, doctorID, uuid.New(), tenAM)
	if err != nil || result.Kind != booking.ResultBooked {
		t.Fatalf("BookSlot = %v, %v", result.Kind, err)
	}

	slots, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	for _, s := range slots {
		if s.Start.Equal(tenAM) {
			t.Fatal("just-booked slot still listed as available")
		}
	}
	if len(slots) != 15 {
		t.Errorf("available slots = %d, want 15", len(slots))
	}
}

func TestGetAvailableSlotsNonWorkingDay(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))

	saturday := time.Date(2025, time.January, 4, 0, 0, 0, 0, time.UTC)
	slots, err := svc.availability.GetAvailableSlots(context.Background(), uuid.New(), saturday)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots on a weekend day, got %d", len(slots))
	}
}

// A broken cache store must degrade to recomputation, not fail reads.
func TestGetAvailableSlotsFailsOpen(t *testing.T) {
	store := &failingStore{}
	svc := newTestServices(t, store)
	ctx := context.Background()
	doctorID := uuid.New()

	for i := 0; i < 5; i++ {
		slots, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday)
		if err != nil {
			t.Fatalf("read %d failed instead of failing open: %v", i, err)
		}
		if len(slots) != 16 {
			t.Errorf("read %d returned %d slots, want 16", i, len(slots))
		}
	}

	// After enough consecutive faults the breaker opens and reads stop
	// touching the store at all.
	callsWhenOpen := store.getCalls
	if _, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday); err != nil {
		t.Fatalf("read with open breaker: %v", err)
	}
	if store.getCalls != callsWhenOpen {
		t.Errorf("open breaker still called the store (%d -> %d)", callsWhenOpen, store.getCalls)
	}
}

func TestNoteScheduleChangedFlushesDoctor(t *testing.T) {
	svc := newTestServices(t, newTestStore(t))
	ctx := context.Background()
	doctorID := uuid.New()

	if _, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday); err != nil {
		t.Fatalf("priming read: %v", err)
	}
	reads := svc.repo.findCalls

	svc.availability.NoteScheduleChanged(ctx, doctorID)

	if _, err := svc.availability.GetAvailableSlots(ctx, doctorID, monday); err != nil {
		t.Fatalf("read after schedule change: %v", err)
	}
	if svc.repo.findCalls == reads {
		t.Error("read after schedule change was served from cache, expected recomputation")
	}
}
