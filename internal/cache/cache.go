// Package cache holds the availability-cache store port and its
// in-process implementation. The store is an accelerator only: booking
// commits never trust it, so a lost or stale entry can cost a
// recomputation but never a double booking.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduling/internal/domain/schedule"
)

// TagAppointments marks every availability entry; invalidating it
// flushes the whole slot cache.
const TagAppointments = "appointments"

// TagDoctor scopes entries to one doctor across all days.
func TagDoctor(doctorID uuid.UUID) string {
	return "doctor:" + doctorID.String()
}

// Key identifies one doctor/day availability entry.
func Key(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("slots:%s:%s", doctorID, day.Format("2006-01-02"))
}

// Store is a TTL'd key/value cache with tag-based bulk eviction.
// Implementations must provide read-after-write consistency for
// Invalidate, or the booking path's read-your-writes guarantee breaks.
type Store interface {
	Get(ctx context.Context, key string) ([]schedule.Slot, bool, error)
	Set(ctx context.Context, key string, slots []schedule.Slot, tags []string) error
	Invalidate(ctx context.Context, key string) error
	InvalidateByTag(ctx context.Context, tag string) error
}
