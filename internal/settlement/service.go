// Package settlement drives the payment record state machine: pending to
// success or failed, exactly once, from either the synchronous verification
// path or asynchronous webhook delivery.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

// ApplyResult reports what one event application did. Replay means the
// payment was already terminal and nothing changed.
type ApplyResult struct {
	Payment           *model.Payment `json:"payment"`
	Booking           *model.Booking `json:"booking,omitempty"`
	CommissionCreated bool           `json:"commission_created"`
	Replay            bool           `json:"replay"`
}

type Service struct {
	repo       Repository
	commission config.CommissionConfig
}

func NewService(repo Repository, commission config.CommissionConfig) *Service {
	return &Service{
		repo:       repo,
		commission: commission,
	}
}

// Apply transitions the payment the event refers to. It is idempotent:
// replaying an event for an already-terminal payment returns the stored
// state without touching the booking or creating another commission.
func (s *Service) Apply(ctx context.Context, ev *types.SettlementEvent) (*ApplyResult, error) {
	logger := middleware.GetLogger(ctx)

	if ev.Status != constants.PaymentSuccess && ev.Status != constants.PaymentFailed {
		return nil, fmt.Errorf("event status %q is not a settlement transition", ev.Status)
	}

	payment, err := s.repo.PaymentByOrderID(ctx, ev.GatewayType, ev.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	if payment.Status != constants.PaymentPending {
		logger.Info().
			Str("payment_id", payment.ID.String()).
			Str("status", payment.Status).
			Msg("Settlement event replayed for terminal payment, no-op")
		return &ApplyResult{Payment: payment, Replay: true}, nil
	}

	booking, err := s.repo.BookingByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}

	params := SettleParams{
		PaymentID:        payment.ID,
		PaymentStatus:    ev.Status,
		GatewayPaymentID: ev.GatewayPaymentID,
		FailureReason:    ev.FailureReason,
		Raw:              ev.Raw,
		BookingID:        booking.ID,
		// A failed payment keeps the booking status untouched: a retry
		// with a fresh order is allowed, and failed-payment bookings no
		// longer occupy the calendar.
		BookingStatus: booking.Status,
	}
	if ev.Status == constants.PaymentSuccess {
		params.BookingStatus = constants.BookingConfirmed
		if booking.BrokerID != nil && booking.BrokerCommission > 0 {
			params.Commission = &model.Commission{
				BookingID:  booking.ID,
				PropertyID: booking.PropertyID,
				BrokerID:   *booking.BrokerID,
				Amount:     booking.BrokerCommission,
				RateBps:    s.commission.BrokerShareBps,
				Status:     constants.CommissionPending,
				DueDate:    time.Now().UTC().AddDate(0, 0, s.commission.CommissionDueDays),
			}
		}
	}

	// One transaction: if anything fails after the compare-and-set the
	// whole settlement rolls back and the event stays retryable.
	outcome, err := s.repo.Settle(ctx, params)
	if err != nil {
		return nil, err
	}
	if !outcome.Applied {
		// A concurrent delivery won the compare-and-set.
		settled, err := s.repo.PaymentByOrderID(ctx, ev.GatewayType, ev.GatewayOrderID)
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Payment: settled, Replay: true}, nil
	}

	payment.Status = ev.Status
	payment.GatewayPaymentID = ev.GatewayPaymentID
	payment.FailureReason = ev.FailureReason
	booking.PaymentStatus = ev.Status
	booking.Status = params.BookingStatus

	result := &ApplyResult{
		Payment:           payment,
		Booking:           booking,
		CommissionCreated: outcome.CommissionCreated,
	}

	if ev.Status == constants.PaymentFailed {
		logger.Info().
			Str("booking_id", booking.ID.String()).
			Str("reason", ev.FailureReason).
			Msg("Payment failed")
		return result, nil
	}

	if params.Commission != nil && !outcome.CommissionCreated {
		// Structurally impossible with the pending guard above unless
		// the unique index saved us from a concurrent delivery.
		logger.Warn().
			Str("booking_id", booking.ID.String()).
			Msg("Commission already existed for booking, duplicate delivery absorbed")
	}

	logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("payment_id", payment.ID.String()).
		Bool("commission_created", result.CommissionCreated).
		Msg("Payment settled")

	return result, nil
}
