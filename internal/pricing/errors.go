package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrCouponInvalid = errors.New("coupon invalid")

// RateError reports a room that cannot be priced for the requested duration
// type, e.g. an hourly booking of a room with no hourly rate.
type RateError struct {
	RoomTypeID   uuid.UUID
	DurationType string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("room %s has no %sly rate", e.RoomTypeID, e.DurationType)
}

func IsRateError(err error) *RateError {
	if err == nil {
		return nil
	}

	var rateErr *RateError
	if errors.As(err, &rateErr) {
		return rateErr
	}
	return nil
}

// CouponError wraps ErrCouponInvalid with the reason the coupon was refused.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

func (e *CouponError) Unwrap() error {
	return ErrCouponInvalid
}

func newCouponError(code, reason string) *CouponError {
	return &CouponError{Code: code, Reason: reason}
}
