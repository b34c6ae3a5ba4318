package constants

// Booking lifecycle
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Payment lifecycle (both the booking payment_status and payment rows)
const (
	PaymentPending  = "pending"
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Commission lifecycle
const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// Payer roles
const (
	RoleOwner  = "owner"
	RoleBroker = "broker"
	RoleAdmin  = "admin"
)

// Gateway types
const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
	GatewayPaypal   = "paypal"
)

// Duration types
const (
	DurationDay  = "day"
	DurationHour = "hour"
)

// Coupon
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"

	CouponScopeAll        = "all"
	CouponScopeProperties = "properties"
	CouponScopeBroker     = "broker"
)
