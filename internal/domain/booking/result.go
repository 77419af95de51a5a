package booking

// ResultKind classifies the outcome of a booking attempt. SlotTaken and
// ConflictExhausted are expected business outcomes carried as values,
// not errors; callers branch on them to tell the user what happened.
type ResultKind string

const (
	ResultBooked            ResultKind = "booked"
	ResultSlotTaken         ResultKind = "slot_taken"
	ResultConflictExhausted ResultKind = "conflict_exhausted"
	ResultCancelled         ResultKind = "cancelled"
)

type Result struct {
	Kind    ResultKind
	Booking *Booking
	// Attempts is how many commit attempts were made, for monitoring.
	Attempts int
}

func Booked(b *Booking, attempts int) Result {
	return Result{Kind: ResultBooked, Booking: b, Attempts: attempts}
}

func SlotTaken(attempts int) Result {
	return Result{Kind: ResultSlotTaken, Attempts: attempts}
}

func ConflictExhausted(attempts int) Result {
	return Result{Kind: ResultConflictExhausted, Attempts: attempts}
}

func Cancelled(attempts int) Result {
	return Result{Kind: ResultCancelled, Attempts: attempts}
}
