package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/status"
)

// ErrStaleStatus: the entity's persisted status no longer matches the
// from-status the caller based their transition on.
var ErrStaleStatus = errors.New("entity status changed concurrently, re-read and retry")

// StatusService applies guarded lifecycle transitions. Appointment
// transitions are persisted here; consultations, prescriptions and
// ratings are owned by their own services, which call in for the guard
// verdict before persisting on their side.
type StatusService struct {
	guard *status.Guard
	repo  booking.Repository
	log   *zap.Logger
}

func NewStatusService(guard *status.Guard, repo booking.Repository, log *zap.Logger) *StatusService {
	return &StatusService{guard: guard, repo: repo, log: log}
}

func (s *StatusService) CanTransition(kind status.EntityKind, from, to status.State) (bool, error) {
	return s.guard.CanTransition(kind, from, to)
}

// TransitionStatus validates from→to for the entity kind and, for
// appointments, persists the change. The persisted status must still
// equal from at write time; anything else means a concurrent writer got
// there first.
func (s *StatusService) TransitionStatus(ctx context.Context, kind status.EntityKind, entityID uuid.UUID, from, to status.State) error {
	if err := s.guard.AssertTransition(kind, from, to); err != nil {
		return err
	}

	if kind != status.KindAppointment {
		s.log.Debug("status transition validated",
			zap.String("kind", string(kind)),
			zap.String("entity_id", entityID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil
	}

	b, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return err
	}
	if b.Status != booking.Status(from) {
		return ErrStaleStatus
	}

	b.Status = booking.Status(to)
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return err
	}

	s.log.Info("booking status changed",
		zap.String("booking_id", entityID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}
