package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/internal/settlement"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

type fakeSettlementRepo struct {
	payment *model.Payment
	booking *model.Booking

	commissions  []*model.Commission
	paidBookings []uuid.UUID
	outboxEvents []string
	failPayout   bool
}

func newWorkerRepo() *fakeSettlementRepo {
	brokerID := uuid.New()
	bookingID := uuid.New()
	return &fakeSettlementRepo{
		payment: &model.Payment{
			ID:             uuid.New(),
			BookingID:      bookingID,
			GatewayType:    constants.GatewayRazorpay,
			Amount:         2550000,
			Status:         constants.PaymentPending,
			GatewayOrderID: "order_xyz",
		},
		booking: &model.Booking{
			ID:               bookingID,
			PropertyID:       uuid.New(),
			BrokerID:         &brokerID,
			StartAt:          time.Now().UTC(),
			EndAt:            time.Now().UTC().Add(72 * time.Hour),
			Status:           constants.BookingPending,
			PaymentStatus:    constants.PaymentPending,
			TotalAmount:      2550000,
			BrokerCommission: 51000,
		},
	}
}

func (r *fakeSettlementRepo) PaymentByOrderID(_ context.Context, gatewayType, orderID string) (*model.Payment, error) {
	if r.payment.GatewayType != gatewayType || r.payment.GatewayOrderID != orderID {
		return nil, settlement.ErrPaymentNotFound
	}
	p := *r.payment
	return &p, nil
}

func (r *fakeSettlementRepo) BookingByID(_ context.Context, _ uuid.UUID) (*model.Booking, error) {
	b := *r.booking
	return &b, nil
}

func (r *fakeSettlementRepo) Settle(_ context.Context, p settlement.SettleParams) (*settlement.SettleOutcome, error) {
	if r.payment.Status != constants.PaymentPending {
		return &settlement.SettleOutcome{}, nil
	}
	r.payment.Status = p.PaymentStatus
	r.payment.GatewayPaymentID = p.GatewayPaymentID
	r.booking.PaymentStatus = p.PaymentStatus
	r.booking.Status = p.BookingStatus

	outcome := &settlement.SettleOutcome{Applied: true}
	if p.Commission != nil {
		r.commissions = append(r.commissions, p.Commission)
		outcome.CommissionCreated = true
	}
	return outcome, nil
}

func (r *fakeSettlementRepo) RecordWebhook(_ context.Context, _, _ string, _ []byte) (bool, error) {
	return true, nil
}

func (r *fakeSettlementRepo) EnqueueOutbox(_ context.Context, eventType string, _ []byte, _, _ string) error {
	r.outboxEvents = append(r.outboxEvents, eventType)
	return nil
}

func (r *fakeSettlementRepo) MarkCommissionPaid(_ context.Context, bookingID uuid.UUID, gatewayRef string, details []byte) error {
	if r.failPayout {
		r.failPayout = false
		return errors.New("connection reset")
	}
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

func settlementMessage(t *testing.T) *kafka.Message {
	t.Helper()
	value, err := json.Marshal(&types.SettlementEvent{
		GatewayType:      constants.GatewayRazorpay,
		GatewayEventID:   "pay_abc:1756700000",
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		Status:           constants.PaymentSuccess,
		Amount:           2550000,
	})
	require.NoError(t, err)
	return &kafka.Message{
		Topic:   kafka.TopicWebhookReceived,
		Value:   value,
		Headers: map[string]string{"correlation_id": "req-123"},
	}
}

func newWorkerHandler(repo *fakeSettlementRepo) kafka.Handler {
	service := settlement.NewService(repo, config.CommissionConfig{
		PlatformRateBps:   1000,
		BrokerShareBps:    2000,
		CommissionDueDays: 30,
	})
	log := zerolog.Nop()
	return settlementHandler(service, repo, nil, &log)
}

func TestSettlementHandler_SuccessReleasesCommission(t *testing.T) {
	repo := newWorkerRepo()
	handler := newWorkerHandler(repo)

	err := handler(context.Background(), settlementMessage(t))
	require.NoError(t, err)

	assert.Equal(t, constants.BookingConfirmed, repo.booking.Status)
	require.Len(t, repo.commissions, 1)
	assert.Equal(t, constants.CommissionPaid, repo.commissions[0].Status)
	assert.Equal(t, "pay_abc", repo.commissions[0].GatewayRef)
	assert.Equal(t, []string{kafka.EventSettlementCompleted}, repo.outboxEvents)
}

func TestSettlementHandler_RedeliveryConvergesOnPaid(t *testing.T) {
	repo := newWorkerRepo()
	repo.failPayout = true
	handler := newWorkerHandler(repo)

	// First delivery settles and enqueues but the payout write fails, so
	// the message must come around again.
	err := handler(context.Background(), settlementMessage(t))
	require.Error(t, err)
	require.Len(t, repo.commissions, 1)
	assert.Equal(t, constants.CommissionPending, repo.commissions[0].Status)

	// The redelivery replays the terminal payment and still releases the
	// commission, without enqueueing a second completed event.
	err = handler(context.Background(), settlementMessage(t))
	require.NoError(t, err)

	assert.Equal(t, constants.CommissionPaid, repo.commissions[0].Status)
	assert.Equal(t, []string{kafka.EventSettlementCompleted}, repo.outboxEvents)
}

func TestSettlementHandler_PoisonMessageIsAcked(t *testing.T) {
	repo := newWorkerRepo()
	handler := newWorkerHandler(repo)

	err := handler(context.Background(), &kafka.Message{Value: []byte("not json")})
	assert.NoError(t, err)
	assert.Empty(t, repo.outboxEvents)
	assert.Equal(t, constants.PaymentPending, repo.payment.Status)
}
