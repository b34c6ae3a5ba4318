package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/model"
)

// Relay moves pending settlement_outbox rows to kafka. Rows are claimed
// with FOR UPDATE SKIP LOCKED so multiple relay instances can run.
type Relay struct {
	db          *pgxpool.Pool
	kafkaClient *kafka.Producer
	logger      *zerolog.Logger
	batchSize   int
	interval    time.Duration
}

func NewRelay(db *pgxpool.Pool, kafkaClient *kafka.Producer, logger *zerolog.Logger) *Relay {
	return &Relay{
		db:          db,
		kafkaClient: kafkaClient,
		logger:      logger,
		batchSize:   100,
		interval:    10 * time.Second,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info().Msg("Starting Outbox Relay")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Stopping Outbox Relay")
			return nil
		case <-ticker.C:
			if err := r.processBatch(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Failed to process batch")
			}
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, payload, partition_key, correlation_id
		FROM settlement_outbox
		WHERE status = 'pending'
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return err
	}

	var events []model.SettlementOutbox
	for rows.Next() {
		var e model.SettlementOutbox
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.PartitionKey, &e.CorrelationID); err != nil {
			rows.Close()
			return err
		}
		events = append(events, e)
	}
	rows.Close()

	if len(events) == 0 {
		return nil
	}

	r.logger.Info().Int("count", len(events)).Msg("Fetched outbox events")

	var processedIDs []int64
	for _, e := range events {
		topic := r.getTopicForEvent(e.EventType)
		var headers map[string]string
		if e.CorrelationID != "" {
			headers = map[string]string{"correlation_id": e.CorrelationID}
		}
		err := r.kafkaClient.PublishWithHeaders(ctx, topic, []byte(e.PartitionKey), e.Payload, headers)
		if err != nil {
			r.logger.Error().Err(err).Int64("event_id", e.ID).Str("event_type", e.EventType).Msg("Failed to publish event to Kafka")
			continue // Do not mark as processed
		}
		processedIDs = append(processedIDs, e.ID)
	}

	if len(processedIDs) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE settlement_outbox
		SET status = 'processed', updated_at = NOW()
		WHERE id = ANY($1)
	`, processedIDs)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Relay) getTopicForEvent(eventType string) string {
	switch eventType {
	case kafka.EventWebhookReceived:
		return kafka.TopicWebhookReceived
	case kafka.EventSettlementCompleted:
		return kafka.TopicSettlementCompleted
	default:
		return kafka.TopicDLQ // Send unknown events to DLQ
	}
}
