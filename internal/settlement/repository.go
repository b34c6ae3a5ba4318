package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

var ErrPaymentNotFound = errors.New("payment not found")

// SettleParams carries one terminal transition through the settlement
// transaction.
type SettleParams struct {
	PaymentID        uuid.UUID
	PaymentStatus    string
	GatewayPaymentID string
	FailureReason    string
	Raw              []byte

	BookingID     uuid.UUID
	BookingStatus string

	// Commission is inserted when non-nil; the unique (booking_id,
	// broker_id) index absorbs duplicate deliveries.
	Commission *model.Commission
}

// SettleOutcome reports what the transaction changed. Applied false means
// the pending compare-and-set found the payment already terminal and
// nothing was written.
type SettleOutcome struct {
	Applied           bool
	CommissionCreated bool
}

type Repository interface {
	PaymentByOrderID(ctx context.Context, gatewayType, orderID string) (*model.Payment, error)
	BookingByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Settle applies the payment compare-and-set, the booking update and
	// the commission insert in one transaction: they commit or roll back
	// together, so a transient failure leaves the payment pending and the
	// event retryable.
	Settle(ctx context.Context, p SettleParams) (*SettleOutcome, error)
	// RecordWebhook stores the audit row; reports false when this
	// (gateway, event) was delivered before.
	RecordWebhook(ctx context.Context, gatewayType, eventID string, payload []byte) (bool, error)
	EnqueueOutbox(ctx context.Context, eventType string, payload []byte, partitionKey, correlationID string) error
	// MarkCommissionPaid releases the booking's pending commission to the
	// broker. Keyed by booking because a booking carries at most one
	// broker; a no-op when the commission is already paid or absent.
	MarkCommissionPaid(ctx context.Context, bookingID uuid.UUID, gatewayRef string, details []byte) error
}

type PgRepo struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PgRepo {
	return &PgRepo{db: db}
}

func (r *PgRepo) PaymentByOrderID(ctx context.Context, gatewayType, orderID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRow(ctx,
		`SELECT id, booking_id, gateway_config_id, gateway_type, amount, status, gateway_order_id,
			COALESCE(gateway_payment_id, ''), raw_response, COALESCE(failure_reason, ''), created_at, updated_at
		 FROM payments WHERE gateway_type = $1 AND gateway_order_id = $2`, gatewayType, orderID,
	).Scan(&p.ID, &p.BookingID, &p.GatewayConfigID, &p.GatewayType, &p.Amount, &p.Status, &p.GatewayOrderID,
		&p.GatewayPaymentID, &p.RawResponse, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgRepo) BookingByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, property_id, customer_id, broker_id, owner_id, start_at, end_at, duration_type, guests,
			total_amount, platform_commission, broker_commission, net_to_owner, status, payment_status, created_at, updated_at
		 FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.PropertyID, &b.CustomerID, &b.BrokerID, &b.OwnerID, &b.StartAt, &b.EndAt, &b.DurationType, &b.Guests,
		&b.TotalAmount, &b.PlatformCommission, &b.BrokerCommission, &b.NetToOwner, &b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgRepo) Settle(ctx context.Context, p SettleParams) (*SettleOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payments
		 SET status = $1, gateway_payment_id = $2, failure_reason = $3, raw_response = $4, updated_at = NOW()
		 WHERE id = $5 AND status = 'pending'`,
		p.PaymentStatus, p.GatewayPaymentID, p.FailureReason, p.Raw, p.PaymentID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// A concurrent delivery already settled the payment.
		return &SettleOutcome{}, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bookings SET payment_status = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		p.PaymentStatus, p.BookingStatus, p.BookingID); err != nil {
		return nil, err
	}

	// A failed payment frees the calendar immediately instead of holding
	// the dates until someone cancels.
	if p.PaymentStatus == constants.PaymentFailed {
		if _, err := tx.Exec(ctx,
			`UPDATE booking_rooms SET active = false WHERE booking_id = $1`, p.BookingID); err != nil {
			return nil, err
		}
	}

	outcome := &SettleOutcome{Applied: true}
	if p.Commission != nil {
		c := p.Commission
		tag, err := tx.Exec(ctx,
			`INSERT INTO commissions (booking_id, property_id, broker_id, amount, rate_bps, status, due_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (booking_id, broker_id) DO NOTHING`,
			c.BookingID, c.PropertyID, c.BrokerID, c.Amount, c.RateBps, c.Status, c.DueDate)
		if err != nil {
			return nil, err
		}
		outcome.CommissionCreated = tag.RowsAffected() > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (r *PgRepo) RecordWebhook(ctx context.Context, gatewayType, eventID string, payload []byte) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO gateway_webhooks (gateway_type, event_id, payload, status)
		 VALUES ($1, $2, $3, 'received')
		 ON CONFLICT (gateway_type, event_id) DO NOTHING`,
		gatewayType, eventID, payload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) EnqueueOutbox(ctx context.Context, eventType string, payload []byte, partitionKey, correlationID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO settlement_outbox (event_type, payload, partition_key, correlation_id, status)
		 VALUES ($1, $2, $3, $4, 'pending')`,
		eventType, payload, partitionKey, correlationID)
	return err
}

func (r *PgRepo) MarkCommissionPaid(ctx context.Context, bookingID uuid.UUID, gatewayRef string, details []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE commissions SET status = 'paid', gateway_ref = $1, payment_details = $2, updated_at = NOW()
		 WHERE booking_id = $3 AND status = 'pending'`,
		gatewayRef, details, bookingID)
	return err
}
