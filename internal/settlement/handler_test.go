package settlement

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

func verifyPayment(t *testing.T, handler *Handler, req *types.VerifyPaymentRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.VerifyPayment(rec, httpReq)
	return rec
}

func newVerifyFixture(t *testing.T) (*fakeRepo, *Handler) {
	repo := newFakeRepo()
	cfg := razorpayConfig(t)
	repo.payment.GatewayConfigID = cfg.ID
	service := newService(repo)
	return repo, NewHandler(service, repo, &fakeConfigs{config: cfg})
}

func TestHandler_VerifyPayment_ConfirmsBooking(t *testing.T) {
	repo, handler := newVerifyFixture(t)

	rec := verifyPayment(t, handler, &types.VerifyPaymentRequest{
		GatewayType:      constants.GatewayRazorpay,
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		Signature:        signPayload("rzp_secret", []byte("order_xyz|pay_abc")),
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result ApplyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Replay)
	assert.Equal(t, constants.PaymentSuccess, result.Payment.Status)
	assert.Equal(t, constants.BookingConfirmed, repo.booking.Status)
}

func TestHandler_VerifyPayment_InvalidSignature(t *testing.T) {
	repo, handler := newVerifyFixture(t)

	rec := verifyPayment(t, handler, &types.VerifyPaymentRequest{
		GatewayType:      constants.GatewayRazorpay,
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		Signature:        signPayload("wrong_secret", []byte("order_xyz|pay_abc")),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, constants.PaymentPending, repo.payment.Status)
}

func TestHandler_VerifyPayment_UnknownOrder(t *testing.T) {
	_, handler := newVerifyFixture(t)

	rec := verifyPayment(t, handler, &types.VerifyPaymentRequest{
		GatewayType:      constants.GatewayRazorpay,
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_abc",
		Signature:        "deadbeef",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_VerifyPayment_ReplayReturnsStoredState(t *testing.T) {
	_, handler := newVerifyFixture(t)

	req := &types.VerifyPaymentRequest{
		GatewayType:      constants.GatewayRazorpay,
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		Signature:        signPayload("rzp_secret", []byte("order_xyz|pay_abc")),
	}

	first := verifyPayment(t, handler, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := verifyPayment(t, handler, req)
	require.Equal(t, http.StatusOK, second.Code)

	var result ApplyResult
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	assert.True(t, result.Replay)
}

func TestHandler_VerifyPayment_ValidationFailure(t *testing.T) {
	_, handler := newVerifyFixture(t)

	rec := verifyPayment(t, handler, &types.VerifyPaymentRequest{
		GatewayType:    "square",
		GatewayOrderID: "order_xyz",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
