package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/cache"
	"github.com/medibook/scheduling/internal/config"
	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/schedule"
	"github.com/medibook/scheduling/pkg/metrics"
)

type cacheLookup struct {
	slots []schedule.Slot
	ok    bool
}

// AvailabilityService serves free-slot listings, cached per doctor/day.
// The cache is an accelerator: a stale entry can offer a slot that
// turns out taken (resolved as SlotTaken at commit time), but it can
// never cause a double booking. Store faults trip a circuit breaker
// and degrade reads to recomputation instead of failing them.
type AvailabilityService struct {
	repo    booking.Repository
	gen     *schedule.Generator
	policy  *schedule.Policy
	store   cache.Store
	breaker *gobreaker.CircuitBreaker[cacheLookup]
	events  *EventDispatcher

	log     *zap.Logger
	metrics *metrics.Collector
}

func NewAvailabilityService(
	repo booking.Repository,
	gen *schedule.Generator,
	policy *schedule.Policy,
	store cache.Store,
	cfg config.CacheConfig,
	events *EventDispatcher,
	log *zap.Logger,
	collector *metrics.Collector,
) *AvailabilityService {
	var breaker *gobreaker.CircuitBreaker[cacheLookup]
	if store != nil {
		breaker = gobreaker.NewCircuitBreaker[cacheLookup](gobreaker.Settings{
			Name:    "availability-cache",
			Timeout: cfg.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(cfg.BreakerFailureThreshold)
			},
		})
	}

	return &AvailabilityService{
		repo:    repo,
		gen:     gen,
		policy:  policy,
		store:   store,
		breaker: breaker,
		events:  events,
		log:     log,
		metrics: collector,
	}
}

// GetAvailableSlots returns the free slots for the doctor on the given
// day, in start-time order. Cache hits are served directly; misses
// recompute against a fresh read of live bookings and repopulate the
// cache tagged for both global and per-doctor invalidation.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]schedule.Slot, error) {
	day = schedule.DayOf(day)

	if s.store == nil {
		return s.recompute(ctx, doctorID, day)
	}

	key := cache.Key(doctorID, day)

	lookup, err := s.breaker.Execute(func() (cacheLookup, error) {
		slots, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return cacheLookup{}, err
		}
		return cacheLookup{slots: slots, ok: ok}, nil
	})
	if err != nil {
		// Breaker open or store fault: the read path stays up on
		// recomputation, we only lose the speedup.
		s.log.Warn("cache store unavailable, recomputing availability",
			zap.String("key", key),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.CacheFailOpen.Inc()
		}
		return s.recompute(ctx, doctorID, day)
	}

	if lookup.ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return lookup.slots, nil
	}

	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	slots, err := s.recompute(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	tags := []string{cache.TagAppointments, cache.TagDoctor(doctorID)}
	if err := s.store.Set(ctx, key, slots, tags); err != nil {
		s.log.Warn("caching availability failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return slots, nil
}

func (s *AvailabilityService) recompute(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]schedule.Slot, error) {
	candidates := s.gen.GenerateCandidates(day)
	if len(candidates) == 0 {
		return []schedule.Slot{}, nil
	}

	bookedStarts, err := s.repo.FindBookedStartTimes(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	return s.gen.FilterAvailable(candidates, bookedStarts), nil
}

// Invalidate drops the doctor/day entry. The booking commit path calls
// this synchronously before acknowledging the caller, which is what
// gives the booking path read-your-writes.
func (s *AvailabilityService) Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time, trigger string) {
	if s.store == nil {
		return
	}
	key := cache.Key(doctorID, schedule.DayOf(day))
	if err := s.store.Invalidate(ctx, key); err != nil {
		s.log.Error("cache invalidation failed",
			zap.String("key", key),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.CacheInvalidations.WithLabelValues(trigger).Inc()
	}
}

// InvalidateDoctor drops every cached day for the doctor, used when a
// whole schedule changes rather than a single slot.
func (s *AvailabilityService) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID, trigger string) {
	if s.store == nil {
		return
	}
	if err := s.store.InvalidateByTag(ctx, cache.TagDoctor(doctorID)); err != nil {
		s.log.Error("cache tag invalidation failed",
			zap.String("doctor_id", doctorID.String()),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.CacheInvalidations.WithLabelValues(trigger).Inc()
	}
}

// NoteScheduleChanged handles a doctor schedule change: the cached
// availability is stale wholesale, so it is flushed and the change is
// announced to subscribers.
func (s *AvailabilityService) NoteScheduleChanged(ctx context.Context, doctorID uuid.UUID) {
	s.InvalidateDoctor(ctx, doctorID, "schedule_change")
	if s.events != nil {
		s.events.Emit(ScheduleChanged{DoctorID: doctorID})
	}
}
