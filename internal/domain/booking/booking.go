package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsLive reports whether the booking occupies its slot. Only live
// bookings count toward the no-double-booking invariant; a cancelled or
// rejected booking frees its start time.
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index:idx_bookings_doctor_day"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	Day       time.Time `gorm:"column:day;type:date;not null;index:idx_bookings_doctor_day"`
	StartTime time.Time `gorm:"column:start_time;not null"`
	Status    Status    `gorm:"column:status;type:varchar(30);not null;default:'pending';index"`
}

func (Booking) TableName() string {
	return "scheduling.bookings"
}

type CreateBookingCommand struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Day       time.Time
	StartTime time.Time
}
