package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

// ParseEvent adapts a raw provider webhook payload into the normalized
// settlement event. Events the settlement ledger has no transition for
// (refund initiations, disputes and so on) return errUnhandledEvent.
func ParseEvent(gatewayType string, payload []byte) (*types.SettlementEvent, error) {
	switch gatewayType {
	case constants.GatewayRazorpay:
		return parseRazorpayEvent(payload)
	case constants.GatewayStripe:
		return parseStripeEvent(payload)
	case constants.GatewayPaypal:
		return parsePaypalEvent(payload)
	default:
		return nil, fmt.Errorf("unknown gateway type %q", gatewayType)
	}
}

type unhandledEventError struct {
	gatewayType string
	eventType   string
}

func (e *unhandledEventError) Error() string {
	return fmt.Sprintf("no settlement transition for %s event %q", e.gatewayType, e.eventType)
}

// IsUnhandledEvent reports whether err means the event type carries no
// settlement transition and should be acknowledged without processing.
func IsUnhandledEvent(err error) bool {
	var uErr *unhandledEventError
	return errors.As(err, &uErr)
}

func parseRazorpayEvent(payload []byte) (*types.SettlementEvent, error) {
	var event types.RazorpayWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay event: %w", err)
	}

	payment := event.Payload.Payment.Entity

	var status string
	switch event.Event {
	case "payment.captured":
		status = constants.PaymentSuccess
	case "payment.failed":
		status = constants.PaymentFailed
	default:
		return nil, &unhandledEventError{gatewayType: constants.GatewayRazorpay, eventType: event.Event}
	}

	return &types.SettlementEvent{
		GatewayType:      constants.GatewayRazorpay,
		GatewayEventID:   fmt.Sprintf("%s:%d", payment.ID, event.CreatedAt),
		GatewayOrderID:   payment.OrderID,
		GatewayPaymentID: payment.ID,
		Status:           status,
		Amount:           payment.Amount,
		FailureReason:    payment.ErrorDescription,
		Raw:              payload,
	}, nil
}

func parseStripeEvent(payload []byte) (*types.SettlementEvent, error) {
	var event types.StripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode stripe event: %w", err)
	}

	intent := event.Data.Object

	var status, reason string
	switch event.Type {
	case "payment_intent.succeeded":
		status = constants.PaymentSuccess
	case "payment_intent.payment_failed":
		status = constants.PaymentFailed
		if intent.LastPaymentError != nil {
			reason = intent.LastPaymentError.Message
		}
	default:
		return nil, &unhandledEventError{gatewayType: constants.GatewayStripe, eventType: event.Type}
	}

	return &types.SettlementEvent{
		GatewayType:      constants.GatewayStripe,
		GatewayEventID:   event.ID,
		GatewayOrderID:   intent.ID,
		GatewayPaymentID: intent.LatestCharge,
		Status:           status,
		Amount:           intent.Amount,
		FailureReason:    reason,
		Raw:              payload,
	}, nil
}

func parsePaypalEvent(payload []byte) (*types.SettlementEvent, error) {
	var event types.PaypalWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode paypal event: %w", err)
	}

	var status string
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		status = constants.PaymentSuccess
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		status = constants.PaymentFailed
	default:
		return nil, &unhandledEventError{gatewayType: constants.GatewayPaypal, eventType: event.EventType}
	}

	orderID := event.Resource.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = event.Resource.ID
	}

	return &types.SettlementEvent{
		GatewayType:      constants.GatewayPaypal,
		GatewayEventID:   event.ID,
		GatewayOrderID:   orderID,
		GatewayPaymentID: event.Resource.ID,
		Status:           status,
		Raw:              payload,
	}, nil
}
