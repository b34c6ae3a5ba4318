package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekuatta/villapay/internal/availability"
	"github.com/ekuatta/villapay/internal/model"
)

type Repository interface {
	PropertyByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	RoomTypes(ctx context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]*model.RoomType, error)
	CouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	// CreateBooking inserts the booking and its room rows in one
	// transaction. The exclusion constraint on occupied room intervals
	// turns a racing insert into a ConflictError.
	CreateBooking(ctx context.Context, b *model.Booking) error
	CreatePayment(ctx context.Context, p *model.Payment) error
	BookingByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// CancelBooking transitions to cancelled unless the booking is
	// already terminal.
	CancelBooking(ctx context.Context, id uuid.UUID) error
	IncrementCouponUse(ctx context.Context, code string) error
}

type PgRepo struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PgRepo {
	return &PgRepo{db: db}
}

func (r *PgRepo) PropertyByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var p model.Property
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, name, villa_daily_rate, villa_hourly_rate, check_in_time, check_out_time, created_at, updated_at
		 FROM properties WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.VillaDailyRate, &p.VillaHourlyRate, &p.CheckInTime, &p.CheckOutTime, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgRepo) RoomTypes(ctx context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]*model.RoomType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, property_id, name, capacity, price_per_night, price_per_hour, extra_person_charge, created_at, updated_at
		 FROM room_types WHERE property_id = $1 AND id = ANY($2)`, propertyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomTypes []*model.RoomType
	for rows.Next() {
		var rt model.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Name, &rt.Capacity, &rt.PricePerNight, &rt.PricePerHour, &rt.ExtraPersonCharge, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		roomTypes = append(roomTypes, &rt)
	}
	return roomTypes, rows.Err()
}

func (r *PgRepo) CouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := r.db.QueryRow(ctx,
		`SELECT id, code, type, value, valid_from, valid_to, usage_limit, used_count, min_booking_amount, scope, property_ids, broker_id, created_at, updated_at
		 FROM coupons WHERE code = $1`, code,
	).Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.ValidFrom, &c.ValidTo, &c.UsageLimit, &c.UsedCount, &c.MinBookingAmount, &c.Scope, &c.PropertyIDs, &c.BrokerID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (property_id, customer_id, broker_id, owner_id, start_at, end_at, duration_type, guests, coupon_code,
			total_amount, platform_commission, broker_commission, net_to_owner, status, payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`,
		b.PropertyID, b.CustomerID, b.BrokerID, b.OwnerID, b.StartAt, b.EndAt, b.DurationType, b.Guests, b.CouponCode,
		b.TotalAmount, b.PlatformCommission, b.BrokerCommission, b.NetToOwner, b.Status, b.PaymentStatus,
	).Scan(&b.ID)
	if err != nil {
		return err
	}

	for _, roomTypeID := range b.RoomTypeIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO booking_rooms (booking_id, room_type_id, start_at, end_at) VALUES ($1, $2, $3, $4)`,
			b.ID, roomTypeID, b.StartAt, b.EndAt)
		if err != nil {
			if conflict := asExclusionConflict(err, roomTypeID, b); conflict != nil {
				return conflict
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

// asExclusionConflict maps the btree_gist exclusion violation on
// booking_rooms to the conflict error the orchestrator reports. This is the
// write-time half of the check-then-act race: when two requests pass the
// read-time check, the second insert fails here.
func asExclusionConflict(err error, roomTypeID uuid.UUID, b *model.Booking) *ConflictError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	// 23P01 exclusion_violation
	if pgErr.Code != "23P01" {
		return nil
	}
	return &ConflictError{
		Conflicts: []availability.Conflict{{RoomTypeID: roomTypeID, Start: b.StartAt, End: b.EndAt}},
	}
}

func (r *PgRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO payments (booking_id, gateway_config_id, gateway_type, amount, status, gateway_order_id, raw_response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.BookingID, p.GatewayConfigID, p.GatewayType, p.Amount, p.Status, p.GatewayOrderID, p.RawResponse,
	).Scan(&p.ID)
}

func (r *PgRepo) BookingByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, property_id, customer_id, broker_id, owner_id, start_at, end_at, duration_type, guests, coupon_code,
			total_amount, platform_commission, broker_commission, net_to_owner, status, payment_status, created_at, updated_at
		 FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.PropertyID, &b.CustomerID, &b.BrokerID, &b.OwnerID, &b.StartAt, &b.EndAt, &b.DurationType, &b.Guests, &b.CouponCode,
		&b.TotalAmount, &b.PlatformCommission, &b.BrokerCommission, &b.NetToOwner, &b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT room_type_id FROM booking_rooms WHERE booking_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var roomTypeID uuid.UUID
		if err := rows.Scan(&roomTypeID); err != nil {
			return nil, err
		}
		b.RoomTypeIDs = append(b.RoomTypeIDs, roomTypeID)
	}
	return &b, rows.Err()
}

func (r *PgRepo) CancelBooking(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'confirmed')`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := r.BookingByID(ctx, id); lookupErr != nil {
			return lookupErr
		}
		return ErrAlreadyTerminal
	}

	// Release the held calendar slots so the exclusion constraint stops
	// guarding the range.
	if _, err := tx.Exec(ctx,
		`UPDATE booking_rooms SET active = false WHERE booking_id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepo) IncrementCouponUse(ctx context.Context, code string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW() WHERE code = $1`, code)
	return err
}
