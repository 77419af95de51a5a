package schedule

import "time"

// Slot is a candidate appointment opportunity. Slots are computation
// results, never persisted; two slots are the same slot iff they start
// at the same instant.
type Slot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func (s Slot) Equal(o Slot) bool {
	return s.Start.Equal(o.Start)
}

// Day returns the slot's calendar day at midnight in its own location.
func (s Slot) Day() time.Time {
	return DayOf(s.Start)
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
