package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepo struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PgRepo {
	return &PgRepo{db: db}
}

// The overlap predicate is half-open: existing.start < end AND existing.end
// > start, so a booking ending exactly when another starts is not a conflict.
func (r *PgRepo) OverlappingBookings(ctx context.Context, roomTypeIDs []uuid.UUID, start, end time.Time) ([]Conflict, error) {
	sql := `SELECT br.room_type_id, b.start_at, b.end_at
		FROM bookings b
		JOIN booking_rooms br ON br.booking_id = b.id
		WHERE br.room_type_id = ANY($1)
		  AND br.active
		  AND b.start_at < $3
		  AND b.end_at > $2
		  AND b.status <> 'cancelled'
		  AND b.payment_status <> 'failed'`

	rows, err := r.db.Query(ctx, sql, roomTypeIDs, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []Conflict
	for rows.Next() {
		var c Conflict
		if err := rows.Scan(&c.RoomTypeID, &c.Start, &c.End); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (r *PgRepo) BlockedRanges(ctx context.Context, propertyID uuid.UUID, start, end time.Time) ([]Conflict, error) {
	sql := `SELECT start_at, end_at
		FROM blocked_ranges
		WHERE property_id = $1
		  AND start_at < $3
		  AND end_at > $2`

	rows, err := r.db.Query(ctx, sql, propertyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []Conflict
	for rows.Next() {
		var c Conflict
		if err := rows.Scan(&c.Start, &c.End); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}
