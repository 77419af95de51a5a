package schedule

import "errors"

var (
	ErrInvalidWorkingHours = errors.New("working-hours configuration is invalid")
	ErrInvalidSlotDuration = errors.New("slot duration must be positive")
	ErrNoWorkingDays       = errors.New("weekend configuration leaves no working days")
	ErrNoWorkingDayInRange = errors.New("no working day found within the scan horizon")
)
