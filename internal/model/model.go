package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Model struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Property struct {
	ID              uuid.UUID `json:"id" validate:"required"`
	OwnerID         uuid.UUID `json:"owner_id" validate:"required"`
	Name            string    `json:"name" validate:"required,min=2,max=200"`
	VillaDailyRate  int64     `json:"villa_daily_rate" validate:"gte=0"`
	VillaHourlyRate int64     `json:"villa_hourly_rate" validate:"gte=0"`
	CheckInTime     string    `json:"check_in_time"`
	CheckOutTime    string    `json:"check_out_time"`
	Model
}

type RoomType struct {
	ID                uuid.UUID `json:"id" validate:"required"`
	PropertyID        uuid.UUID `json:"property_id" validate:"required"`
	Name              string    `json:"name" validate:"required,min=1,max=200"`
	Capacity          int       `json:"capacity" validate:"required,gte=1"`
	PricePerNight     int64     `json:"price_per_night" validate:"gte=0"`
	PricePerHour      *int64    `json:"price_per_hour,omitempty"`
	ExtraPersonCharge int64     `json:"extra_person_charge" validate:"gte=0"`
	Model
}

// BlockedRange is an owner-declared window during which a property cannot
// be booked regardless of existing bookings.
type BlockedRange struct {
	ID         uuid.UUID `json:"id" validate:"required"`
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Reason     string    `json:"reason,omitempty"`
	Model
}

// Booking snapshots the money split computed at creation time. The split is
// never recomputed from room rates afterwards, and owner_id is denormalized
// from the property at creation so later ownership changes cannot move money.
type Booking struct {
	ID                 uuid.UUID   `json:"id" validate:"required"`
	PropertyID         uuid.UUID   `json:"property_id" validate:"required"`
	RoomTypeIDs        []uuid.UUID `json:"room_type_ids" validate:"required,min=1"`
	CustomerID         uuid.UUID   `json:"customer_id" validate:"required"`
	BrokerID           *uuid.UUID  `json:"broker_id,omitempty"`
	OwnerID            uuid.UUID   `json:"owner_id" validate:"required"`
	StartAt            time.Time   `json:"start_at" validate:"required"`
	EndAt              time.Time   `json:"end_at" validate:"required"`
	DurationType       string      `json:"duration_type" validate:"required,oneof=day hour"`
	Guests             int         `json:"guests" validate:"required,gte=1"`
	CouponCode         string      `json:"coupon_code,omitempty"`
	TotalAmount        int64       `json:"total_amount" validate:"gte=0"`
	PlatformCommission int64       `json:"platform_commission" validate:"gte=0"`
	BrokerCommission   int64       `json:"broker_commission" validate:"gte=0"`
	NetToOwner         int64       `json:"net_to_owner" validate:"gte=0"`
	Status             string      `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentStatus      string      `json:"payment_status" validate:"required,oneof=pending success failed refunded"`
	Model
}

type Coupon struct {
	ID               uuid.UUID   `json:"id" validate:"required"`
	Code             string      `json:"code" validate:"required,min=2,max=50"`
	Type             string      `json:"type" validate:"required,oneof=percentage fixed"`
	// Value is basis points for percentage coupons and minor units for fixed ones.
	Value            int64       `json:"value" validate:"required,gte=0"`
	ValidFrom        time.Time   `json:"valid_from" validate:"required"`
	ValidTo          time.Time   `json:"valid_to" validate:"required"`
	UsageLimit       int         `json:"usage_limit" validate:"gte=0"`
	UsedCount        int         `json:"used_count" validate:"gte=0"`
	MinBookingAmount int64       `json:"min_booking_amount" validate:"gte=0"`
	Scope            string      `json:"scope" validate:"required,oneof=all properties broker"`
	PropertyIDs      []uuid.UUID `json:"property_ids,omitempty"`
	BrokerID         *uuid.UUID  `json:"broker_id,omitempty"`
	Model
}

// Commission is created exactly once per (booking, broker) pair, enforced by
// a unique index rather than application checks.
type Commission struct {
	ID             uuid.UUID       `json:"id" validate:"required"`
	BookingID      uuid.UUID       `json:"booking_id" validate:"required"`
	PropertyID     uuid.UUID       `json:"property_id" validate:"required"`
	BrokerID       uuid.UUID       `json:"broker_id" validate:"required"`
	Amount         int64           `json:"amount" validate:"required,gte=0"`
	RateBps        int64           `json:"rate_bps" validate:"required,gte=0"`
	Status         string          `json:"status" validate:"required,oneof=pending paid"`
	DueDate        time.Time       `json:"due_date" validate:"required"`
	GatewayRef     string          `json:"gateway_ref,omitempty"`
	PaymentDetails json.RawMessage `json:"payment_details,omitempty"`
	Model
}

// GatewayConfig holds one payer's credentials for one gateway type. The
// credential blob is opaque here; internal/gateway validates it per type.
type GatewayConfig struct {
	ID            uuid.UUID       `json:"id" validate:"required"`
	UserID        uuid.UUID       `json:"user_id" validate:"required"`
	Role          string          `json:"role" validate:"required,oneof=owner broker admin"`
	GatewayType   string          `json:"gateway_type" validate:"required,oneof=razorpay stripe paypal"`
	Credentials   json.RawMessage `json:"credentials" validate:"required"`
	IsDefault     bool            `json:"is_default"`
	IsActive      bool            `json:"is_active"`
	CommissionBps int64           `json:"commission_bps" validate:"gte=0"`
	Model
}

// Payment is the per-order transaction record. Mutated only by the webhook
// handler or the synchronous verification path.
type Payment struct {
	ID               uuid.UUID       `json:"id" validate:"required"`
	BookingID        uuid.UUID       `json:"booking_id" validate:"required"`
	GatewayConfigID  uuid.UUID       `json:"gateway_config_id" validate:"required"`
	GatewayType      string          `json:"gateway_type" validate:"required,oneof=razorpay stripe paypal"`
	Amount           int64           `json:"amount" validate:"required,gte=0"`
	Status           string          `json:"status" validate:"required,oneof=pending success failed"`
	GatewayOrderID   string          `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	RawResponse      json.RawMessage `json:"raw_response,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	Model
}

// GatewayWebhook is the audit row for every delivered provider event,
// unique on (gateway_type, event_id) so replays are first-class.
type GatewayWebhook struct {
	ID          uuid.UUID       `json:"id" validate:"required"`
	GatewayType string          `json:"gateway_type" validate:"required"`
	EventID     string          `json:"event_id" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
	Status      string          `json:"status" validate:"required,oneof=received error processed"`
	Model
}

type SettlementOutbox struct {
	ID            int64           `json:"id" validate:"required"`
	EventType     string          `json:"event_type" validate:"required"`
	Payload       json.RawMessage `json:"payload" validate:"required"`
	PartitionKey  string          `json:"partition_key" validate:"required"`
	Status        string          `json:"status" validate:"required,oneof=pending processed failed"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	RetryCount    int             `json:"retry_count" validate:"gte=0"`
	LastError     string          `json:"last_error,omitempty"`
	Model
}
