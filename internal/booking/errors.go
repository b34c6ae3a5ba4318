package booking

import (
	"errors"
	"fmt"

	"github.com/ekuatta/villapay/internal/availability"
)

var (
	// ErrRoomNotFound means a requested room type does not belong to the
	// property.
	ErrRoomNotFound = errors.New("room type not found on property")
	// ErrBookingNotFound is returned when loading a booking by id fails.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrAlreadyTerminal means a cancellation hit a completed or already
	// cancelled booking.
	ErrAlreadyTerminal = errors.New("booking is in a terminal state")
	// ErrCouponNotFound means the supplied coupon code does not exist.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrPropertyBusy means another request holds the property booking
	// lock. The caller can safely retry.
	ErrPropertyBusy = errors.New("property is being booked by another request")
	// ErrRequestInProgress means an earlier request with the same
	// idempotency key has not finished yet.
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
)

// ConflictError reports the occupied intervals that made the request
// unavailable. Callers surface the ranges so the user can pick other dates.
type ConflictError struct {
	Conflicts []availability.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requested range conflicts with %d existing interval(s)", len(e.Conflicts))
}

func IsConflictError(err error) *ConflictError {
	if err == nil {
		return nil
	}

	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr
	}
	return nil
}
