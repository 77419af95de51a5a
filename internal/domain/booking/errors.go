package booking

import "errors"

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrSlotOutsideSchedule = errors.New("requested time is not a bookable slot")
	ErrNonWorkingDay       = errors.New("requested day is not a working day")
)
