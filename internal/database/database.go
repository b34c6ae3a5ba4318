package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/ekuatta/villapay/internal/config"
	loggerPkg "github.com/ekuatta/villapay/internal/logger"
)

type Database struct {
	Pool *pgxpool.Pool
	log  *zerolog.Logger
}

// zerologTracer adapts the pgx tracelog interface to zerolog.
type zerologTracer struct {
	logger zerolog.Logger
}

func (t *zerologTracer) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		event = t.logger.Debug()
	case tracelog.LogLevelInfo:
		event = t.logger.Info()
	case tracelog.LogLevelWarn:
		event = t.logger.Warn()
	case tracelog.LogLevelError:
		event = t.logger.Error()
	default:
		event = t.logger.Info()
	}

	for k, v := range data {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func New(cfg *config.Config, log *zerolog.Logger, ls *loggerPkg.LoggerService) (*Database, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second

	pgxLogger := loggerPkg.NewPgxLogger(log.GetLevel())
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   &zerologTracer{logger: pgxLogger},
		LogLevel: tracelog.LogLevel(loggerPkg.GetPgxTraceLogLevel(log.GetLevel())),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("Connected to PostgreSQL successfully")

	return &Database{Pool: pool, log: log}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

func (d *Database) Close() {
	d.log.Info().Msg("Closing database connection pool")
	d.Pool.Close()
}
