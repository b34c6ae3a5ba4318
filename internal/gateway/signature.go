package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ekuatta/villapay/pkg/constants"
)

// SignatureHeader returns the header each provider delivers its webhook
// signature in.
func SignatureHeader(gatewayType string) string {
	switch gatewayType {
	case constants.GatewayRazorpay:
		return "x-razorpay-signature"
	case constants.GatewayStripe:
		return "stripe-signature"
	case constants.GatewayPaypal:
		return "paypal-transmission-sig"
	default:
		return ""
	}
}

// VerifyWebhookSignature checks the provider's HMAC over the raw payload.
// payload: raw request body bytes
// signature: value from the provider's signature header
// secret: the resolved gateway config's webhook secret
func VerifyWebhookSignature(gatewayType string, payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	switch gatewayType {
	case constants.GatewayStripe:
		// Stripe packs timestamp and digest into one header:
		// t=<ts>,v1=<hex digest over "<ts>.<payload>">
		ts, sig := parseStripeHeader(signature)
		if ts == "" || sig == "" {
			return false
		}
		signed := append([]byte(ts+"."), payload...)
		return hmacEqual(signed, sig, secret)
	default:
		return hmacEqual(payload, signature, secret)
	}
}

// VerifyPaymentSignature checks the synchronous client-side verification
// signature: HMAC over "<orderID>|<paymentID>".
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmacEqual([]byte(orderID+"|"+paymentID), signature, secret)
}

func hmacEqual(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write(payload); err != nil {
		return false
	}

	expectedSig := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func parseStripeHeader(header string) (timestamp, signature string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signature = kv[1]
		}
	}
	return timestamp, signature
}
