package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/domain/schedule"
)

func testSlots(n int) []schedule.Slot {
	base := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	slots := make([]schedule.Slot, n)
	for i := range slots {
		start := base.Add(time.Duration(i) * 30 * time.Minute)
		slots[i] = schedule.Slot{Start: start, End: start.Add(30 * time.Minute)}
	}
	return slots
}

func TestLRUStoreRoundTrip(t *testing.T) {
	s := NewLRUStore(16, time.Minute, zap.NewNop())
	ctx := context.Background()

	key := Key(uuid.New(), time.Now())
	want := testSlots(3)
	if err := s.Set(ctx, key, want, []string{TagAppointments}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v, want hit", ok, err)
	}
	if len(got) != len(want) {
		t.Errorf("got %d slots, want %d", len(got), len(want))
	}
}

func TestLRUStoreMiss(t *testing.T) {
	s := NewLRUStore(16, time.Minute, zap.NewNop())

	_, ok, err := s.Get(context.Background(), "slots:nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLRUStoreInvalidate(t *testing.T) {
	s := NewLRUStore(16, time.Minute, zap.NewNop())
	ctx := context.Background()

	key := Key(uuid.New(), time.Now())
	if err := s.Set(ctx, key, testSlots(1), nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if _, ok, _ := s.Get(ctx, key); ok {
		t.Error("entry still present after Invalidate")
	}
}

func TestLRUStoreInvalidateByTag(t *testing.T) {
	s := NewLRUStore(16, time.Minute, zap.NewNop())
	ctx := context.Background()

	docA, docB := uuid.New(), uuid.New()
	day := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	keyA1 := Key(docA, day)
	keyA2 := Key(docA, day.AddDate(0, 0, 1))
	keyB := Key(docB, day)

	for _, k := range []struct {
		key string
		doc uuid.UUID
	}{{keyA1, docA}, {keyA2, docA}, {keyB, docB}} {
		if err := s.Set(ctx, k.key, testSlots(2), []string{TagAppointments, TagDoctor(k.doc)}); err != nil {
			t.Fatalf("Set(%s): %v", k.key, err)
		}
	}

	if err := s.InvalidateByTag(ctx, TagDoctor(docA)); err != nil {
		t.Fatalf("InvalidateByTag: %v", err)
	}

	if _, ok, _ := s.Get(ctx, keyA1); ok {
		t.Error("doctor A entry survived tag invalidation")
	}
	if _, ok, _ := s.Get(ctx, keyA2); ok {
		t.Error("doctor A second-day entry survived tag invalidation")
	}
	if _, ok, _ := s.Get(ctx, keyB); !ok {
		t.Error("doctor B entry was wrongly invalidated")
	}
}

func TestLRUStoreGlobalTag(t *testing.T) {
	s := NewLRUStore(16, time.Minute, zap.NewNop())
	ctx := context.Background()

	day := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		doc := uuid.New()
		if err := s.Set(ctx, Key(doc, day), testSlots(1), []string{TagAppointments, TagDoctor(doc)}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if err := s.InvalidateByTag(ctx, TagAppointments); err != nil {
		t.Fatalf("InvalidateByTag: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty cache after global tag invalidation, got %d entries", s.Len())
	}
}

func TestLRUStoreExpiry(t *testing.T) {
	s := NewLRUStore(16, 20*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	key := Key(uuid.New(), time.Now())
	if err := s.Set(ctx, key, testSlots(1), []string{TagAppointments}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, key); ok {
		t.Error("entry still served after TTL expiry")
	}
}
