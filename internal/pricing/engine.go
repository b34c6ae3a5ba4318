// Package pricing computes the authoritative money breakdown for a booking:
// subtotal, coupon discount, total, and the platform/broker/owner split. All
// arithmetic is in integer minor units; decimal formatting is a caller concern.
package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

// RoomSelection is the rate snapshot for one selected room type.
type RoomSelection struct {
	RoomTypeID        uuid.UUID
	Capacity          int
	PricePerNight     int64
	PricePerHour      *int64
	ExtraPersonCharge int64
}

type QuoteInput struct {
	PropertyID   uuid.UUID
	Rooms        []RoomSelection
	DurationType string
	Start        time.Time
	End          time.Time
	Guests       int
	Coupon       *model.Coupon
	BrokerID     *uuid.UUID
	Now          time.Time
}

// Quote is the full breakdown. Invariant: PlatformCommission +
// BrokerCommission + NetToOwner == Total, exactly.
type Quote struct {
	Units              int   `json:"units"`
	Subtotal           int64 `json:"subtotal"`
	Discount           int64 `json:"discount"`
	Total              int64 `json:"total"`
	PlatformCommission int64 `json:"platform_commission"`
	BrokerCommission   int64 `json:"broker_commission"`
	NetToOwner         int64 `json:"net_to_owner"`
}

type Engine struct {
	platformRateBps int64
	brokerShareBps  int64
}

func NewEngine(platformRateBps, brokerShareBps int64) *Engine {
	return &Engine{
		platformRateBps: platformRateBps,
		brokerShareBps:  brokerShareBps,
	}
}

// Price computes the quote for the given selection. The broker's cut is
// carved out of the platform's share, so NetToOwner does not depend on
// whether a broker referred the booking.
func (e *Engine) Price(in *QuoteInput) (*Quote, error) {
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("end must be after start")
	}
	if len(in.Rooms) == 0 {
		return nil, fmt.Errorf("at least one room must be selected")
	}
	if in.Guests < 1 {
		return nil, fmt.Errorf("guests must be at least 1")
	}

	units, err := billableUnits(in.DurationType, in.Start, in.End)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	var totalCapacity int
	var extraChargePerGuest int64

	for _, room := range in.Rooms {
		switch in.DurationType {
		case constants.DurationDay:
			subtotal += room.PricePerNight * int64(units)
		case constants.DurationHour:
			if room.PricePerHour == nil {
				return nil, &RateError{RoomTypeID: room.RoomTypeID, DurationType: in.DurationType}
			}
			subtotal += *room.PricePerHour * int64(units)
		}
		totalCapacity += room.Capacity
		extraChargePerGuest += room.ExtraPersonCharge
	}

	if in.Guests > totalCapacity {
		subtotal += int64(in.Guests-totalCapacity) * extraChargePerGuest
	}

	var discount int64
	if in.Coupon != nil {
		now := in.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		if err := validateCoupon(in.Coupon, subtotal, in.PropertyID, in.BrokerID, now); err != nil {
			return nil, err
		}
		discount = discountFor(in.Coupon, subtotal)
	}

	total := subtotal - discount

	platform := total * e.platformRateBps / 10000

	var broker int64
	if in.BrokerID != nil {
		broker = platform * e.brokerShareBps / 10000
	}

	return &Quote{
		Units:              units,
		Subtotal:           subtotal,
		Discount:           discount,
		Total:              total,
		PlatformCommission: platform - broker,
		BrokerCommission:   broker,
		NetToOwner:         total - platform,
	}, nil
}

// billableUnits counts nights or hours, rounding partial units up.
func billableUnits(durationType string, start, end time.Time) (int, error) {
	seconds := int64(end.Sub(start) / time.Second)

	switch durationType {
	case constants.DurationDay:
		return int((seconds + 86399) / 86400), nil
	case constants.DurationHour:
		return int((seconds + 3599) / 3600), nil
	default:
		return 0, fmt.Errorf("unknown duration type %q", durationType)
	}
}
