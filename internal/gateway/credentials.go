package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

// Credentials is the tagged union of per-gateway credential shapes. Exactly
// one variant matching Type must be populated.
type Credentials struct {
	Type     string               `json:"type" validate:"required,oneof=razorpay stripe paypal"`
	Razorpay *RazorpayCredentials `json:"razorpay,omitempty"`
	Stripe   *StripeCredentials   `json:"stripe,omitempty"`
	Paypal   *PaypalCredentials   `json:"paypal,omitempty"`
}

type RazorpayCredentials struct {
	KeyID         string `json:"key_id"`
	KeySecret     string `json:"key_secret"`
	WebhookSecret string `json:"webhook_secret"`
}

type StripeCredentials struct {
	PublishableKey string `json:"publishable_key"`
	SecretKey      string `json:"secret_key"`
	WebhookSecret  string `json:"webhook_secret"`
}

type PaypalCredentials struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	WebhookSecret string `json:"webhook_secret"`
	Environment   string `json:"environment"`
}

// PublicCredentials is the outward-facing view. It never carries secrets.
type PublicCredentials struct {
	Type           string `json:"type"`
	KeyID          string `json:"key_id,omitempty"`
	PublishableKey string `json:"publishable_key,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
}

// Validate checks the variant matching the declared type exhaustively.
func (c *Credentials) Validate() error {
	switch c.Type {
	case constants.GatewayRazorpay:
		if c.Razorpay == nil {
			return fmt.Errorf("razorpay credentials missing")
		}
		if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" || c.Razorpay.WebhookSecret == "" {
			return fmt.Errorf("razorpay requires key_id, key_secret and webhook_secret")
		}
	case constants.GatewayStripe:
		if c.Stripe == nil {
			return fmt.Errorf("stripe credentials missing")
		}
		if c.Stripe.PublishableKey == "" || c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe requires publishable_key, secret_key and webhook_secret")
		}
	case constants.GatewayPaypal:
		if c.Paypal == nil {
			return fmt.Errorf("paypal credentials missing")
		}
		if c.Paypal.ClientID == "" || c.Paypal.ClientSecret == "" || c.Paypal.WebhookSecret == "" {
			return fmt.Errorf("paypal requires client_id, client_secret and webhook_secret")
		}
		if c.Paypal.Environment != "sandbox" && c.Paypal.Environment != "production" {
			return fmt.Errorf("paypal environment must be sandbox or production")
		}
	default:
		return fmt.Errorf("unknown gateway type %q", c.Type)
	}
	return nil
}

// Public returns the redacted view for API responses and client-side use.
func (c *Credentials) Public() *PublicCredentials {
	pub := &PublicCredentials{Type: c.Type}
	switch c.Type {
	case constants.GatewayRazorpay:
		if c.Razorpay != nil {
			pub.KeyID = c.Razorpay.KeyID
		}
	case constants.GatewayStripe:
		if c.Stripe != nil {
			pub.PublishableKey = c.Stripe.PublishableKey
		}
	case constants.GatewayPaypal:
		if c.Paypal != nil {
			pub.ClientID = c.Paypal.ClientID
			pub.Environment = c.Paypal.Environment
		}
	}
	return pub
}

// WebhookSecret returns the secret used to verify provider webhook
// signatures for this credential set.
func (c *Credentials) WebhookSecret() string {
	switch c.Type {
	case constants.GatewayRazorpay:
		if c.Razorpay != nil {
			return c.Razorpay.WebhookSecret
		}
	case constants.GatewayStripe:
		if c.Stripe != nil {
			return c.Stripe.WebhookSecret
		}
	case constants.GatewayPaypal:
		if c.Paypal != nil {
			return c.Paypal.WebhookSecret
		}
	}
	return ""
}

// SecretKey returns the server-side API secret for outbound provider calls.
func (c *Credentials) SecretKey() string {
	switch c.Type {
	case constants.GatewayRazorpay:
		if c.Razorpay != nil {
			return c.Razorpay.KeySecret
		}
	case constants.GatewayStripe:
		if c.Stripe != nil {
			return c.Stripe.SecretKey
		}
	case constants.GatewayPaypal:
		if c.Paypal != nil {
			return c.Paypal.ClientSecret
		}
	}
	return ""
}

// ParseCredentials decodes and validates the credential blob stored on a
// gateway config row.
func ParseCredentials(cfg *model.GatewayConfig) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(cfg.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode gateway credentials: %w", err)
	}
	if creds.Type == "" {
		creds.Type = cfg.GatewayType
	}
	if creds.Type != cfg.GatewayType {
		return nil, fmt.Errorf("credential type %q does not match config type %q", creds.Type, cfg.GatewayType)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}
