// Package availability answers whether a set of rooms is free for a time
// range. It is read-only; the write-time exclusion constraint on bookings is
// what actually serializes concurrent reservations.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conflict is one occupied interval on one requested room, or a blocked
// property range (RoomTypeID zero).
type Conflict struct {
	RoomTypeID uuid.UUID `json:"room_type_id,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type Result struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

type Repository interface {
	// OverlappingBookings returns intervals of non-cancelled,
	// non-failed-payment bookings on the given rooms that overlap
	// [start, end) under half-open semantics.
	OverlappingBookings(ctx context.Context, roomTypeIDs []uuid.UUID, start, end time.Time) ([]Conflict, error)
	// BlockedRanges returns owner-blocked property windows overlapping
	// [start, end).
	BlockedRanges(ctx context.Context, propertyID uuid.UUID, start, end time.Time) ([]Conflict, error)
}

type Checker struct {
	repo Repository
}

func NewChecker(repo Repository) *Checker {
	return &Checker{repo: repo}
}

// Check reports whether every requested room is free for [start, end). A
// conflict on any one room makes the whole request unavailable. Hourly and
// daily bookings share the same timestamp comparison, so they cannot
// silently overlap on date granularity.
func (c *Checker) Check(ctx context.Context, propertyID uuid.UUID, roomTypeIDs []uuid.UUID, start, end time.Time) (*Result, error) {
	blocked, err := c.repo.BlockedRanges(ctx, propertyID, start, end)
	if err != nil {
		return nil, err
	}

	overlapping, err := c.repo.OverlappingBookings(ctx, roomTypeIDs, start, end)
	if err != nil {
		return nil, err
	}

	conflicts := append(blocked, overlapping...)

	return &Result{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
