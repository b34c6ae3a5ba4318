package types

import "encoding/json"

type RazorpayWebhookEvent struct {
	Entity    string `json:"entity"`
	AccountID string `json:"account_id"`
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity RazorpayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type RazorpayPayment struct {
	ID               string `json:"id"`
	Entity           string `json:"entity"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	OrderID          string `json:"order_id"`
	Method           string `json:"method"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type StripeWebhookEvent struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object StripePaymentIntent `json:"object"`
	} `json:"data"`
}

type StripePaymentIntent struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	LatestCharge     string `json:"latest_charge"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type PaypalWebhookEvent struct {
	ID           string `json:"id"`
	EventType    string `json:"event_type"`
	ResourceType string `json:"resource_type"`
	CreateTime   string `json:"create_time"`
	Resource     struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		// Orders API nests the order id under supplementary_data.
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		Amount struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	} `json:"resource"`
}

// SettlementEvent is the normalized shape every gateway adapter produces and
// the settlement ledger consumes. Raw keeps the provider payload for audit.
type SettlementEvent struct {
	GatewayType      string          `json:"gateway_type" validate:"required,oneof=razorpay stripe paypal"`
	GatewayEventID   string          `json:"gateway_event_id" validate:"required"`
	GatewayOrderID   string          `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Status           string          `json:"status" validate:"required,oneof=success failed"`
	Amount           int64           `json:"amount"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}
