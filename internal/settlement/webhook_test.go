package settlement

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

const testWebhookSecret = "rzp_webhook_secret"

type fakeConfigs struct {
	config *model.GatewayConfig
}

func (f *fakeConfigs) FindByID(_ context.Context, id uuid.UUID) (*model.GatewayConfig, error) {
	if f.config == nil || f.config.ID != id {
		return nil, gateway.ErrConfigNotFound
	}
	return f.config, nil
}

func razorpayConfig(t *testing.T) *model.GatewayConfig {
	t.Helper()
	blob, err := json.Marshal(&gateway.Credentials{
		Type: constants.GatewayRazorpay,
		Razorpay: &gateway.RazorpayCredentials{
			KeyID: "rzp_key", KeySecret: "rzp_secret", WebhookSecret: testWebhookSecret,
		},
	})
	require.NoError(t, err)
	return &model.GatewayConfig{ID: uuid.New(), GatewayType: constants.GatewayRazorpay, Credentials: blob, IsActive: true}
}

func capturedPayload(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "payment.captured",
		"created_at": 1756700000,
		"payload": {"payment": {"entity": {
			"id": "pay_abc", "amount": 2550000, "order_id": %q, "status": "captured"
		}}}
	}`, orderID))
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func deliverWebhook(handler *WebhookHandler, gatewayType string, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+gatewayType, bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(gateway.SignatureHeader(gatewayType), signature)
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gateway", gatewayType)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)
	return rec
}

func newWebhookFixture(t *testing.T) (*fakeRepo, *WebhookHandler) {
	repo := newFakeRepo()
	cfg := razorpayConfig(t)
	repo.payment.GatewayConfigID = cfg.ID
	return repo, NewWebhookHandler(repo, &fakeConfigs{config: cfg})
}

func TestWebhookHandler_ValidDeliveryReachesOutbox(t *testing.T) {
	repo, handler := newWebhookFixture(t)

	payload := capturedPayload("order_xyz")
	rec := deliverWebhook(handler, constants.GatewayRazorpay, payload, signPayload(testWebhookSecret, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.outboxEvents, 1)
	assert.Equal(t, kafka.EventWebhookReceived, repo.outboxEvents[0])
	// The webhook row exists for audit
	assert.True(t, repo.webhooks[constants.GatewayRazorpay+":pay_abc:1756700000"])
}

func TestWebhookHandler_InvalidSignatureRejected(t *testing.T) {
	repo, handler := newWebhookFixture(t)

	payload := capturedPayload("order_xyz")
	rec := deliverWebhook(handler, constants.GatewayRazorpay, payload, signPayload("attacker_secret", payload))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.outboxEvents)
}

func TestWebhookHandler_MissingSignatureRejected(t *testing.T) {
	_, handler := newWebhookFixture(t)

	rec := deliverWebhook(handler, constants.GatewayRazorpay, capturedPayload("order_xyz"), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_ReplayAcknowledgedOnce(t *testing.T) {
	repo, handler := newWebhookFixture(t)

	payload := capturedPayload("order_xyz")
	signature := signPayload(testWebhookSecret, payload)

	first := deliverWebhook(handler, constants.GatewayRazorpay, payload, signature)
	second := deliverWebhook(handler, constants.GatewayRazorpay, payload, signature)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	// Only the first delivery is forwarded
	assert.Len(t, repo.outboxEvents, 1)
}

func TestWebhookHandler_UnknownOrder(t *testing.T) {
	_, handler := newWebhookFixture(t)

	payload := capturedPayload("order_unknown")
	rec := deliverWebhook(handler, constants.GatewayRazorpay, payload, signPayload(testWebhookSecret, payload))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookHandler_UnhandledEventAcknowledged(t *testing.T) {
	repo, handler := newWebhookFixture(t)

	payload := []byte(`{"event": "refund.created", "payload": {"payment": {"entity": {}}}}`)
	rec := deliverWebhook(handler, constants.GatewayRazorpay, payload, signPayload(testWebhookSecret, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.outboxEvents)
}

func TestWebhookHandler_UnknownGatewayRejected(t *testing.T) {
	_, handler := newWebhookFixture(t)

	rec := deliverWebhook(handler, "square", []byte(`{}`), "sig")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
