package schedule

import "time"

// Generator produces candidate slot sequences from the working-hours
// policy. It knows nothing about bookings; callers supply booked start
// times to FilterAvailable.
type Generator struct {
	policy *Policy
}

func NewGenerator(policy *Policy) *Generator {
	return &Generator{policy: policy}
}

// GenerateCandidates returns every slot of the configured duration that
// fits fully inside the day window, in start-time order. Non-working
// days yield an empty sequence; so does a window shorter than one slot.
// The sequence is a pure function of policy and date.
func (g *Generator) GenerateCandidates(date time.Time) []Slot {
	if !g.policy.IsWorkingDay(date) {
		return nil
	}

	start, end := g.policy.DayWindow(date)
	step := g.policy.SlotDuration()

	var slots []Slot
	for cur := start; !cur.Add(step).After(end); cur = cur.Add(step) {
		slots = append(slots, Slot{Start: cur, End: cur.Add(step)})
	}
	return slots
}

// FilterAvailable drops candidates whose start time appears in
// bookedStarts, preserving order.
func (g *Generator) FilterAvailable(candidates []Slot, bookedStarts []time.Time) []Slot {
	if len(bookedStarts) == 0 {
		return candidates
	}

	booked := make(map[int64]bool, len(bookedStarts))
	for _, t := range bookedStarts {
		booked[t.Unix()] = true
	}

	available := make([]Slot, 0, len(candidates))
	for _, s := range candidates {
		if !booked[s.Start.Unix()] {
			available = append(available, s)
		}
	}
	return available
}
