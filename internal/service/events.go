package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/pkg/metrics"
)

type Event interface {
	EventName() string
}

// SlotBooked is published after a booking commit has been persisted and
// the availability cache invalidated.
type SlotBooked struct {
	BookingID uuid.UUID
	DoctorID  uuid.UUID
	Day       time.Time
	StartTime time.Time
}

func (SlotBooked) EventName() string { return "slot_booked" }

// ScheduleChanged is published when a doctor's working schedule changes
// in a way that invalidates previously computed availability.
type ScheduleChanged struct {
	DoctorID uuid.UUID
}

func (ScheduleChanged) EventName() string { return "schedule_changed" }

type Subscriber func(Event)

const eventBufferSize = 10_000

// EventDispatcher fans events out to subscribers asynchronously.
// Publication never blocks the booking path; if the buffer is full the
// event is dropped with a warning rather than stalling a request.
type EventDispatcher struct {
	events  chan Event
	subs    []Subscriber
	done    chan struct{}
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewEventDispatcher(log *zap.Logger, collector *metrics.Collector) *EventDispatcher {
	d := &EventDispatcher{
		events:  make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
		log:     log,
		metrics: collector,
	}
	go d.worker()
	return d
}

// Subscribe registers a subscriber. Must be called before any Emit;
// the subscriber list is not synchronized after startup.
func (d *EventDispatcher) Subscribe(fn Subscriber) {
	d.subs = append(d.subs, fn)
}

func (d *EventDispatcher) Emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.log.Warn("event buffer full, dropping event",
			zap.String("event", ev.EventName()),
		)
		if d.metrics != nil {
			d.metrics.EventsDropped.Inc()
		}
	}
}

func (d *EventDispatcher) Shutdown() {
	close(d.events)
	select {
	case <-d.done:
	case <-time.After(10 * time.Second):
		d.log.Warn("event dispatcher shutdown timed out; some events may be lost")
	}
}

func (d *EventDispatcher) worker() {
	defer close(d.done)
	for ev := range d.events {
		for _, fn := range d.subs {
			fn(ev)
		}
	}
}
