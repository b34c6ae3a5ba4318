package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/pkg/constants"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_RawBodyProviders(t *testing.T) {
	payload := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"

	for _, gw := range []string{constants.GatewayRazorpay, constants.GatewayPaypal} {
		assert.True(t, VerifyWebhookSignature(gw, payload, sign(secret, payload), secret), gw)
		assert.False(t, VerifyWebhookSignature(gw, payload, sign("other_secret", payload), secret), gw)
		assert.False(t, VerifyWebhookSignature(gw, []byte(`{"tampered":true}`), sign(secret, payload), secret), gw)
	}
}

func TestVerifyWebhookSignature_Stripe(t *testing.T) {
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	secret := "whsec_stripe"
	ts := "1756700000"

	signed := sign(secret, []byte(ts+"."+string(payload)))
	header := fmt.Sprintf("t=%s,v1=%s", ts, signed)

	assert.True(t, VerifyWebhookSignature(constants.GatewayStripe, payload, header, secret))

	// Digest over the bare payload without the timestamp prefix must fail
	bare := fmt.Sprintf("t=%s,v1=%s", ts, sign(secret, payload))
	assert.False(t, VerifyWebhookSignature(constants.GatewayStripe, payload, bare, secret))

	assert.False(t, VerifyWebhookSignature(constants.GatewayStripe, payload, "v1=only_digest", secret))
	assert.False(t, VerifyWebhookSignature(constants.GatewayStripe, payload, "malformed", secret))
}

func TestVerifyWebhookSignature_EmptyInputs(t *testing.T) {
	payload := []byte(`{}`)
	assert.False(t, VerifyWebhookSignature(constants.GatewayRazorpay, payload, "", "secret"))
	assert.False(t, VerifyWebhookSignature(constants.GatewayRazorpay, payload, sign("secret", payload), ""))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "rzp_secret"
	orderID := "order_abc"
	paymentID := "pay_xyz"

	signature := sign(secret, []byte(orderID+"|"+paymentID))

	assert.True(t, VerifyPaymentSignature(orderID, paymentID, signature, secret))
	assert.False(t, VerifyPaymentSignature(orderID, "pay_other", signature, secret))
	assert.False(t, VerifyPaymentSignature(orderID, paymentID, signature, "wrong_secret"))
	assert.False(t, VerifyPaymentSignature(orderID, paymentID, "", secret))
}

func TestSignatureHeader(t *testing.T) {
	require.Equal(t, "x-razorpay-signature", SignatureHeader(constants.GatewayRazorpay))
	require.Equal(t, "stripe-signature", SignatureHeader(constants.GatewayStripe))
	require.Equal(t, "paypal-transmission-sig", SignatureHeader(constants.GatewayPaypal))
	require.Equal(t, "", SignatureHeader("square"))
}
