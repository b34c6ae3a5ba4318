package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	PropertyID   uuid.UUID   `json:"property_id" validate:"required"`
	RoomTypeIDs  []uuid.UUID `json:"room_type_ids" validate:"required,min=1"`
	CustomerID   uuid.UUID   `json:"customer_id" validate:"required"`
	BrokerID     *uuid.UUID  `json:"broker_id,omitempty"`
	StartDate    time.Time   `json:"start_date" validate:"required"`
	EndDate      time.Time   `json:"end_date" validate:"required"`
	DurationType string      `json:"duration_type" validate:"required,oneof=day hour"`
	Guests       int         `json:"guests" validate:"required,gte=1"`
	CouponCode   string      `json:"coupon_code,omitempty"`
}

type CheckAvailabilityRequest struct {
	PropertyID  uuid.UUID   `json:"property_id" validate:"required"`
	RoomTypeIDs []uuid.UUID `json:"room_type_ids" validate:"required,min=1"`
	StartDate   time.Time   `json:"start_date" validate:"required"`
	EndDate     time.Time   `json:"end_date" validate:"required"`
}

type VerifyPaymentRequest struct {
	GatewayType      string `json:"gateway_type" validate:"required,oneof=razorpay stripe paypal"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type UpsertGatewayConfigRequest struct {
	UserID        uuid.UUID       `json:"user_id" validate:"required"`
	Role          string          `json:"role" validate:"required,oneof=owner broker admin"`
	GatewayType   string          `json:"gateway_type" validate:"required,oneof=razorpay stripe paypal"`
	Credentials   json.RawMessage `json:"credentials" validate:"required"`
	IsDefault     bool            `json:"is_default"`
	IsActive      bool            `json:"is_active"`
	CommissionBps int64           `json:"commission_bps" validate:"gte=0"`
}

// CreateOrderRequest is the provider-facing order creation payload.
type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Notes    struct {
		BookingID string `json:"booking_id"`
	} `json:"notes"`
}

// ProviderOrder is the normalized order-creation response.
type ProviderOrder struct {
	GatewayType string          `json:"gateway_type"`
	OrderID     string          `json:"id"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Raw         json.RawMessage `json:"-"`
}
