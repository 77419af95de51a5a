package schedule

import (
	"time"
)

// HolidayCalendar reports clinic-wide holidays. Implementations live
// outside this package; NoHolidays is used when none is supplied.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

// NoHolidays is the default calendar: every date is a regular day.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(time.Time) bool { return false }

// WorkingHours is the immutable working-day window slots are cut from.
// StartHour and EndHour are whole clock hours; StartHour == EndHour is a
// legal zero-length window that simply yields no slots.
type WorkingHours struct {
	StartHour    int
	EndHour      int
	SlotDuration time.Duration
	WeekendDays  []time.Weekday
}

// nextWorkingDayHorizon bounds the NextWorkingDay scan. Two weeks is
// enough to step over any weekend plus a holiday block; running past it
// means the calendar is misconfigured.
const nextWorkingDayHorizon = 14

// Policy answers calendar questions for a single fixed-timezone clinic.
// All day windows are computed in the location of the input date; DST
// shifts are not compensated for.
type Policy struct {
	hours    WorkingHours
	weekend  map[time.Weekday]bool
	holidays HolidayCalendar
}

func NewPolicy(hours WorkingHours, holidays HolidayCalendar) (*Policy, error) {
	if hours.StartHour < 0 || hours.StartHour > 23 || hours.EndHour < 0 || hours.EndHour > 23 {
		return nil, ErrInvalidWorkingHours
	}
	if hours.EndHour < hours.StartHour {
		return nil, ErrInvalidWorkingHours
	}
	if hours.SlotDuration <= 0 {
		return nil, ErrInvalidSlotDuration
	}

	weekend := make(map[time.Weekday]bool, len(hours.WeekendDays))
	for _, d := range hours.WeekendDays {
		weekend[d] = true
	}
	if len(weekend) >= 7 {
		return nil, ErrNoWorkingDays
	}

	if holidays == nil {
		holidays = NoHolidays{}
	}

	return &Policy{hours: hours, weekend: weekend, holidays: holidays}, nil
}

func (p *Policy) IsWorkingDay(date time.Time) bool {
	if p.weekend[date.Weekday()] {
		return false
	}
	return !p.holidays.IsHoliday(date)
}

// NextWorkingDay returns the first working day strictly after date.
// The scan is bounded; exhausting it means every scanned day is marked
// a holiday, which is a configuration problem, not a scheduling one.
func (p *Policy) NextWorkingDay(date time.Time) (time.Time, error) {
	d := date
	for i := 0; i < nextWorkingDayHorizon; i++ {
		d = d.AddDate(0, 0, 1)
		if p.IsWorkingDay(d) {
			return d, nil
		}
	}
	return time.Time{}, ErrNoWorkingDayInRange
}

// DayWindow returns the bookable window for date, from StartHour to
// EndHour on that calendar day in date's location.
func (p *Policy) DayWindow(date time.Time) (start, end time.Time) {
	y, m, d := date.Date()
	start = time.Date(y, m, d, p.hours.StartHour, 0, 0, 0, date.Location())
	end = time.Date(y, m, d, p.hours.EndHour, 0, 0, 0, date.Location())
	return start, end
}

func (p *Policy) SlotDuration() time.Duration {
	return p.hours.SlotDuration
}
