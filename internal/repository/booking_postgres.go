package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medibook/scheduling/internal/domain/booking"
)

var liveStatuses = []booking.Status{booking.StatusPending, booking.StatusConfirmed}

type BookingRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewBookingRepository(db *gorm.DB, log *zap.Logger) *BookingRepository {
	return &BookingRepository{db: db, log: log}
}

func (r *BookingRepository) FindBookedStartTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error) {
	var starts []time.Time
	err := r.db.WithContext(ctx).
		Model(&booking.Booking{}).
		Where("doctor_id = ? AND day = ? AND status IN ? AND deleted_at IS NULL",
			doctorID, day.Format("2006-01-02"), liveStatuses).
		Order("start_time").
		Pluck("start_time", &starts).Error
	if err != nil {
		return nil, fmt.Errorf("finding booked start times: %w", err)
	}
	return starts, nil
}

// CommitBooking re-checks occupancy and inserts in one transaction.
// The SELECT ... FOR UPDATE serializes concurrent claimants on the same
// slot row; the partial unique index catches the insert/insert race
// where neither claimant saw an existing row to lock.
func (r *BookingRepository) CommitBooking(ctx context.Context, cmd booking.CreateBookingCommand) (booking.CommitOutcome, *booking.Booking, error) {
	var created *booking.Booking
	occupied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []booking.Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND day = ? AND start_time = ? AND status IN ? AND deleted_at IS NULL",
				cmd.DoctorID, cmd.Day.Format("2006-01-02"), cmd.StartTime, liveStatuses).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			occupied = true
			return nil
		}

		b := &booking.Booking{
			DoctorID:  cmd.DoctorID,
			PatientID: cmd.PatientID,
			Day:       cmd.Day,
			StartTime: cmd.StartTime,
			Status:    booking.StatusPending,
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		created = b
		return nil
	})

	if err != nil {
		if outcome, ok := classifyCommitError(err); ok {
			r.log.Debug("booking commit resolved by store signal",
				zap.String("doctor_id", cmd.DoctorID.String()),
				zap.Time("start_time", cmd.StartTime),
				zap.Int("outcome", int(outcome)),
				zap.Error(err),
			)
			return outcome, nil, nil
		}
		return 0, nil, fmt.Errorf("committing booking: %w", err)
	}

	if occupied {
		return booking.CommitAlreadyExists, nil, nil
	}
	return booking.CommitInserted, created, nil
}

// classifyCommitError maps Postgres concurrency signals to commit
// outcomes: serialization failures and deadlocks are transient,
// a unique violation on the live-slot index means someone else won.
func classifyCommitError(err error) (booking.CommitOutcome, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return booking.CommitTransientConflict, true
	case "23505":
		return booking.CommitAlreadyExists, true
	}
	return 0, false
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("getting booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	result := r.db.WithContext(ctx).
		Model(&booking.Booking{}).
		Where("id = ? AND deleted_at IS NULL", b.ID).
		Update("status", b.Status)
	if result.Error != nil {
		return fmt.Errorf("updating booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND day = ? AND deleted_at IS NULL", doctorID, day.Format("2006-01-02")).
		Order("start_time").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	return bookings, nil
}
