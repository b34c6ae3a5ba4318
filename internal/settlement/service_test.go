package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

type fakeRepo struct {
	payment  *model.Payment
	booking  *model.Booking
	webhooks map[string]bool

	commissions  []*model.Commission
	settleCalls  int
	casLoses     bool
	failSettle   bool
	paidBookings []uuid.UUID
	outboxEvents []string
}

func newFakeRepo() *fakeRepo {
	brokerID := uuid.New()
	bookingID := uuid.New()
	return &fakeRepo{
		payment: &model.Payment{
			ID:             uuid.New(),
			BookingID:      bookingID,
			GatewayType:    constants.GatewayRazorpay,
			Amount:         2550000,
			Status:         constants.PaymentPending,
			GatewayOrderID: "order_xyz",
		},
		booking: &model.Booking{
			ID:                 bookingID,
			PropertyID:         uuid.New(),
			BrokerID:           &brokerID,
			StartAt:            time.Now().UTC(),
			EndAt:              time.Now().UTC().Add(72 * time.Hour),
			Status:             constants.BookingPending,
			PaymentStatus:      constants.PaymentPending,
			TotalAmount:        2550000,
			PlatformCommission: 204000,
			BrokerCommission:   51000,
			NetToOwner:         2295000,
		},
		webhooks: map[string]bool{},
	}
}

func (r *fakeRepo) PaymentByOrderID(_ context.Context, gatewayType, orderID string) (*model.Payment, error) {
	if r.payment.GatewayType != gatewayType || r.payment.GatewayOrderID != orderID {
		return nil, ErrPaymentNotFound
	}
	p := *r.payment
	return &p, nil
}

func (r *fakeRepo) BookingByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	b := *r.booking
	return &b, nil
}

// Settle mirrors the production transaction: either every write lands or
// none do. failSettle simulates one transient failure with a full rollback.
func (r *fakeRepo) Settle(_ context.Context, p SettleParams) (*SettleOutcome, error) {
	r.settleCalls++
	if r.failSettle {
		r.failSettle = false
		return nil, errors.New("connection reset during settlement")
	}
	if r.casLoses || r.payment.Status != constants.PaymentPending {
		return &SettleOutcome{}, nil
	}

	r.payment.Status = p.PaymentStatus
	r.payment.GatewayPaymentID = p.GatewayPaymentID
	r.payment.FailureReason = p.FailureReason
	r.booking.PaymentStatus = p.PaymentStatus
	r.booking.Status = p.BookingStatus

	outcome := &SettleOutcome{Applied: true}
	if p.Commission != nil {
		duplicate := false
		for _, existing := range r.commissions {
			if existing.BookingID == p.Commission.BookingID && existing.BrokerID == p.Commission.BrokerID {
				duplicate = true
			}
		}
		if !duplicate {
			r.commissions = append(r.commissions, p.Commission)
			outcome.CommissionCreated = true
		}
	}
	return outcome, nil
}

func (r *fakeRepo) RecordWebhook(_ context.Context, gatewayType, eventID string, _ []byte) (bool, error) {
	key := gatewayType + ":" + eventID
	if r.webhooks[key] {
		return false, nil
	}
	r.webhooks[key] = true
	return true, nil
}

func (r *fakeRepo) EnqueueOutbox(_ context.Context, eventType string, _ []byte, _, _ string) error {
	r.outboxEvents = append(r.outboxEvents, eventType)
	return nil
}

func (r *fakeRepo) MarkCommissionPaid(_ context.Context, bookingID uuid.UUID, gatewayRef string, details []byte) error {
	r.paidBookings = append(r.paidBookings, bookingID)
	for _, c := range r.commissions {
		if c.BookingID == bookingID && c.Status == constants.CommissionPending {
			c.Status = constants.CommissionPaid
			c.GatewayRef = gatewayRef
			c.PaymentDetails = details
		}
	}
	return nil
}

func successEvent() *types.SettlementEvent {
	return &types.SettlementEvent{
		GatewayType:      constants.GatewayRazorpay,
		GatewayEventID:   "pay_abc:1756700000",
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		Status:           constants.PaymentSuccess,
		Amount:           2550000,
	}
}

func newService(repo *fakeRepo) *Service {
	return NewService(repo, config.CommissionConfig{
		PlatformRateBps:   1000,
		BrokerShareBps:    2000,
		CommissionDueDays: 30,
	})
}

func TestService_Apply_SuccessConfirmsBookingAndCreatesCommission(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	result, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)

	assert.False(t, result.Replay)
	assert.Equal(t, constants.PaymentSuccess, result.Payment.Status)
	assert.Equal(t, "pay_abc", result.Payment.GatewayPaymentID)
	assert.Equal(t, constants.BookingConfirmed, repo.booking.Status)
	assert.Equal(t, constants.PaymentSuccess, repo.booking.PaymentStatus)

	assert.True(t, result.CommissionCreated)
	require.Len(t, repo.commissions, 1)
	assert.Equal(t, int64(51000), repo.commissions[0].Amount)
	assert.Equal(t, constants.CommissionPending, repo.commissions[0].Status)
}

func TestService_Apply_ReplayIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	first, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)
	require.False(t, first.Replay)

	second, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)

	assert.True(t, second.Replay)
	assert.Equal(t, constants.PaymentSuccess, second.Payment.Status)
	// Commission count unchanged
	assert.Len(t, repo.commissions, 1)
	// Replay never reaches the settlement transaction
	assert.Equal(t, 1, repo.settleCalls)
}

func TestService_Apply_TransientFailureKeepsEventRetryable(t *testing.T) {
	repo := newFakeRepo()
	repo.failSettle = true
	service := newService(repo)

	_, err := service.Apply(context.Background(), successEvent())
	require.Error(t, err)

	// The transaction rolled back as a unit: payment still pending, so the
	// delivery is retryable rather than a lost settlement.
	assert.Equal(t, constants.PaymentPending, repo.payment.Status)
	assert.Equal(t, constants.BookingPending, repo.booking.Status)
	assert.Equal(t, constants.PaymentPending, repo.booking.PaymentStatus)
	assert.Empty(t, repo.commissions)

	result, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)

	assert.False(t, result.Replay)
	assert.Equal(t, constants.PaymentSuccess, repo.payment.Status)
	assert.Equal(t, constants.BookingConfirmed, repo.booking.Status)
	require.Len(t, repo.commissions, 1)
	assert.Equal(t, int64(51000), repo.commissions[0].Amount)
}

func TestService_Apply_ConcurrentDeliveryLosesCAS(t *testing.T) {
	repo := newFakeRepo()
	repo.casLoses = true
	service := newService(repo)

	result, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)

	assert.True(t, result.Replay)
	assert.Empty(t, repo.commissions)
}

func TestService_Apply_FailureKeepsBookingRetryable(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	ev := successEvent()
	ev.Status = constants.PaymentFailed
	ev.FailureReason = "Payment declined by bank"

	result, err := service.Apply(context.Background(), ev)
	require.NoError(t, err)

	assert.False(t, result.Replay)
	assert.Equal(t, constants.PaymentFailed, result.Payment.Status)
	assert.Equal(t, "Payment declined by bank", result.Payment.FailureReason)
	assert.Equal(t, constants.PaymentFailed, repo.booking.PaymentStatus)
	// Status stays pending so a fresh order can be attached
	assert.Equal(t, constants.BookingPending, repo.booking.Status)
	assert.Empty(t, repo.commissions)
}

func TestService_Apply_NoCommissionWithoutBroker(t *testing.T) {
	repo := newFakeRepo()
	repo.booking.BrokerID = nil
	repo.booking.BrokerCommission = 0
	service := newService(repo)

	result, err := service.Apply(context.Background(), successEvent())
	require.NoError(t, err)

	assert.False(t, result.CommissionCreated)
	assert.Empty(t, repo.commissions)
}

func TestService_Apply_RejectsNonTransitionStatus(t *testing.T) {
	service := newService(newFakeRepo())

	ev := successEvent()
	ev.Status = "authorized"

	_, err := service.Apply(context.Background(), ev)
	assert.Error(t, err)
}

func TestService_Apply_UnknownOrder(t *testing.T) {
	service := newService(newFakeRepo())

	ev := successEvent()
	ev.GatewayOrderID = "order_unknown"

	_, err := service.Apply(context.Background(), ev)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
