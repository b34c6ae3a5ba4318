package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekuatta/villapay/internal/model"
)

var ErrConfigNotFound = errors.New("gateway config not found")

type PgConfigRepo struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *PgConfigRepo {
	return &PgConfigRepo{db: db}
}

const configColumns = `id, user_id, role, gateway_type, credentials, is_default, is_active, commission_bps, created_at, updated_at`

func scanConfig(row pgx.Row) (*model.GatewayConfig, error) {
	var cfg model.GatewayConfig
	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.Role, &cfg.GatewayType, &cfg.Credentials,
		&cfg.IsDefault, &cfg.IsActive, &cfg.CommissionBps, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *PgConfigRepo) FindActive(ctx context.Context, userID uuid.UUID, role string) (*model.GatewayConfig, error) {
	sql := `SELECT ` + configColumns + ` FROM gateway_configs
		WHERE user_id = $1 AND role = $2 AND is_active = true
		ORDER BY is_default DESC, updated_at DESC
		LIMIT 1`
	return scanConfig(r.db.QueryRow(ctx, sql, userID, role))
}

func (r *PgConfigRepo) FindAdminDefault(ctx context.Context) (*model.GatewayConfig, error) {
	sql := `SELECT ` + configColumns + ` FROM gateway_configs
		WHERE role = 'admin' AND is_default = true AND is_active = true
		LIMIT 1`
	return scanConfig(r.db.QueryRow(ctx, sql))
}

func (r *PgConfigRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.GatewayConfig, error) {
	sql := `SELECT ` + configColumns + ` FROM gateway_configs WHERE id = $1`
	return scanConfig(r.db.QueryRow(ctx, sql, id))
}

func (r *PgConfigRepo) ListByUser(ctx context.Context, userID uuid.UUID, role string) ([]*model.GatewayConfig, error) {
	sql := `SELECT ` + configColumns + ` FROM gateway_configs WHERE user_id = $1 AND role = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, sql, userID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*model.GatewayConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (r *PgConfigRepo) Create(ctx context.Context, cfg *model.GatewayConfig) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The partial unique index allows one default per (user, role); demote
	// any existing default first so the insert cannot trip it.
	if cfg.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE gateway_configs SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND role = $2 AND is_default = true`,
			cfg.UserID, cfg.Role); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO gateway_configs (user_id, role, gateway_type, credentials, is_default, is_active, commission_bps)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		cfg.UserID, cfg.Role, cfg.GatewayType, cfg.Credentials, cfg.IsDefault, cfg.IsActive, cfg.CommissionBps,
	).Scan(&cfg.ID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgConfigRepo) Update(ctx context.Context, cfg *model.GatewayConfig) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if cfg.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE gateway_configs SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND role = $2 AND is_default = true AND id <> $3`,
			cfg.UserID, cfg.Role, cfg.ID); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE gateway_configs SET credentials = $1, is_default = $2, is_active = $3, commission_bps = $4, updated_at = NOW() WHERE id = $5`,
		cfg.Credentials, cfg.IsDefault, cfg.IsActive, cfg.CommissionBps, cfg.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}

	return tx.Commit(ctx)
}

func (r *PgConfigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gateway_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}
