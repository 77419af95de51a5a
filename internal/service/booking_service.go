package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/schedule"
	"github.com/medibook/scheduling/internal/domain/status"
	"github.com/medibook/scheduling/pkg/metrics"
)

// BookingService owns the booking flow: validate the requested slot
// against the generated candidates, claim it through the conflict
// resolver, then invalidate the availability cache before the caller is
// acknowledged so their next read reflects the booking.
type BookingService struct {
	repo         booking.Repository
	gen          *schedule.Generator
	policy       *schedule.Policy
	availability *AvailabilityService
	guard        *status.Guard
	resolver     *ConflictResolver
	events       *EventDispatcher

	tracer  trace.Tracer
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewBookingService(
	repo booking.Repository,
	gen *schedule.Generator,
	policy *schedule.Policy,
	availability *AvailabilityService,
	guard *status.Guard,
	resolver *ConflictResolver,
	events *EventDispatcher,
	log *zap.Logger,
	collector *metrics.Collector,
) *BookingService {
	return &BookingService{
		repo:         repo,
		gen:          gen,
		policy:       policy,
		availability: availability,
		guard:        guard,
		resolver:     resolver,
		events:       events,
		tracer:       otel.Tracer("booking"),
		log:          log,
		metrics:      collector,
	}
}

// BookSlot attempts to reserve the slot starting at startTime for the
// doctor. SlotTaken and ConflictExhausted come back as result values;
// an error means the request itself was invalid or infrastructure
// failed.
func (s *BookingService) BookSlot(ctx context.Context, doctorID, patientID uuid.UUID, startTime time.Time) (booking.Result, error) {
	ctx, span := s.tracer.Start(ctx, "BookSlot", trace.WithAttributes(
		attribute.String("doctor_id", doctorID.String()),
		attribute.String("start_time", startTime.Format(time.RFC3339)),
	))
	defer span.End()

	day := schedule.DayOf(startTime)

	candidates := s.gen.GenerateCandidates(day)
	if len(candidates) == 0 {
		if !s.policy.IsWorkingDay(day) {
			return booking.Result{}, booking.ErrNonWorkingDay
		}
		return booking.Result{}, booking.ErrSlotOutsideSchedule
	}
	if !slotIsCandidate(candidates, startTime) {
		return booking.Result{}, booking.ErrSlotOutsideSchedule
	}

	// New bookings enter the lifecycle as pending; the guard knowing the
	// state is a data-integrity check, not a formality.
	if !s.guard.KnownState(status.KindAppointment, status.State(booking.StatusPending)) {
		return booking.Result{}, &status.UnknownStateError{
			Kind:  status.KindAppointment,
			State: status.State(booking.StatusPending),
		}
	}

	cmd := booking.CreateBookingCommand{
		DoctorID:  doctorID,
		PatientID: patientID,
		Day:       day,
		StartTime: startTime,
	}
	result, err := s.resolver.Attempt(ctx, func(ctx context.Context) (booking.CommitOutcome, *booking.Booking, error) {
		return s.repo.CommitBooking(ctx, cmd)
	})
	if err != nil {
		s.log.Error("booking commit failed",
			zap.String("doctor_id", doctorID.String()),
			zap.Time("start_time", startTime),
			zap.Error(err),
		)
		return booking.Result{}, err
	}

	if s.metrics != nil {
		s.metrics.BookingOutcomes.WithLabelValues(string(result.Kind)).Inc()
		s.metrics.CommitAttempts.Observe(float64(result.Attempts))
	}

	switch result.Kind {
	case booking.ResultBooked:
		// Synchronous invalidation before we return: the caller's next
		// availability read must not list the slot they just booked.
		s.availability.Invalidate(ctx, doctorID, day, "booking")
		s.events.Emit(SlotBooked{
			BookingID: result.Booking.ID,
			DoctorID:  doctorID,
			Day:       day,
			StartTime: startTime,
		})
		s.log.Info("slot booked",
			zap.String("booking_id", result.Booking.ID.String()),
			zap.String("doctor_id", doctorID.String()),
			zap.Time("start_time", startTime),
			zap.Int("attempts", result.Attempts),
		)

	case booking.ResultConflictExhausted:
		// Logged for capacity monitoring: sustained exhaustion means the
		// store is thrashing under contention.
		s.log.Warn("booking retries exhausted",
			zap.String("doctor_id", doctorID.String()),
			zap.Time("start_time", startTime),
			zap.Int("attempts", result.Attempts),
		)
	}

	return result, nil
}

func slotIsCandidate(candidates []schedule.Slot, startTime time.Time) bool {
	for _, c := range candidates {
		if c.Start.Equal(startTime) {
			return true
		}
	}
	return false
}

// CancelBooking transitions a booking to cancelled and frees its slot
// in the availability cache.
func (s *BookingService) CancelBooking(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.guard.AssertTransition(status.KindAppointment, status.State(b.Status), status.StateCancelled); err != nil {
		return err
	}

	b.Status = booking.StatusCancelled
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return err
	}

	s.availability.Invalidate(ctx, b.DoctorID, b.Day, "cancellation")
	s.log.Info("booking cancelled",
		zap.String("booking_id", id.String()),
		zap.String("doctor_id", b.DoctorID.String()),
	)
	return nil
}

// ListBookings returns all bookings for a doctor on a day, live or not.
func (s *BookingService) ListBookings(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*booking.Booking, error) {
	return s.repo.ListForDoctorDay(ctx, doctorID, schedule.DayOf(day))
}
