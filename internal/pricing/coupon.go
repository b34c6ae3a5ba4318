package pricing

import (
	"time"

	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

// validateCoupon checks every applicability rule and returns a CouponError
// naming the first one that fails. A coupon is never silently ignored.
func validateCoupon(c *model.Coupon, subtotal int64, propertyID uuid.UUID, brokerID *uuid.UUID, now time.Time) error {
	if now.Before(c.ValidFrom) {
		return newCouponError(c.Code, "not yet valid")
	}
	if now.After(c.ValidTo) {
		return newCouponError(c.Code, "expired")
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return newCouponError(c.Code, "usage limit reached")
	}
	if subtotal < c.MinBookingAmount {
		return newCouponError(c.Code, "booking amount below minimum")
	}

	switch c.Scope {
	case constants.CouponScopeAll:
	case constants.CouponScopeProperties:
		found := false
		for _, id := range c.PropertyIDs {
			if id == propertyID {
				found = true
				break
			}
		}
		if !found {
			return newCouponError(c.Code, "not applicable to this property")
		}
	case constants.CouponScopeBroker:
		if c.BrokerID == nil || brokerID == nil || *c.BrokerID != *brokerID {
			return newCouponError(c.Code, "not applicable to this broker")
		}
	default:
		return newCouponError(c.Code, "unknown scope")
	}

	return nil
}

// discountFor computes the discount in minor units, clamped so the total
// never goes negative.
func discountFor(c *model.Coupon, subtotal int64) int64 {
	var discount int64
	switch c.Type {
	case constants.CouponPercentage:
		discount = subtotal * c.Value / 10000
	case constants.CouponFixed:
		discount = c.Value
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
