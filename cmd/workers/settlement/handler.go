package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/redis"
	"github.com/ekuatta/villapay/internal/settlement"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

func settlementHandler(service *settlement.Service, repo settlement.Repository, redisClient *redis.Client, log *zerolog.Logger) kafka.Handler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log.Info().Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("Processing settlement event")

		var event types.SettlementEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal settlement event")
			// A poison message cannot be fixed by retrying
			return nil
		}

		// Redelivery check. Apply is idempotent on its own, this just
		// avoids the lock and database round trips on obvious replays.
		idempotencyKey := "settlement:" + event.GatewayType + ":" + event.GatewayEventID
		if redisClient != nil {
			processed, err := redisClient.GetIdempotencyKey(ctx, idempotencyKey)
			if err == nil && processed != "" {
				log.Info().Str("event_id", event.GatewayEventID).Msg("Settlement event already processed, skipping")
				return nil
			}

			// Serialize concurrent deliveries for the same order
			lock, err := redisClient.AcquireLock(ctx, "settlement:order:"+event.GatewayOrderID, 10*time.Second)
			if err != nil {
				log.Error().Err(err).Str("order_id", event.GatewayOrderID).Msg("Failed to acquire settlement lock")
				return err // Retry later
			}
			defer lock.Release(ctx)
		}

		result, err := service.Apply(ctx, &event)
		if err != nil {
			log.Error().Err(err).
				Str("event_id", event.GatewayEventID).
				Str("order_id", event.GatewayOrderID).
				Msg("Failed to apply settlement event")
			return err
		}

		if !result.Replay {
			payload, err := json.Marshal(result)
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal settlement result")
				return err
			}
			correlationID := msg.Headers["correlation_id"]
			if correlationID == "" {
				correlationID = fmt.Sprintf("gen-%s", time.Now().Format("20060102150405"))
			}
			if err := repo.EnqueueOutbox(ctx, kafka.EventSettlementCompleted, payload, result.Payment.BookingID.String(), correlationID); err != nil {
				log.Error().Err(err).Msg("Outbox: Failed to insert settlement completed event")
				return err
			}
		}

		// Release the broker's commission once settlement succeeded. Keyed
		// by booking and guarded by the pending status, so redeliveries
		// after a partial failure converge on paid.
		if result.Payment.Status == constants.PaymentSuccess {
			if err := repo.MarkCommissionPaid(ctx, result.Payment.BookingID, event.GatewayPaymentID, msg.Value); err != nil {
				log.Error().Err(err).
					Str("booking_id", result.Payment.BookingID.String()).
					Msg("Failed to mark commission paid")
				return err
			}
		}

		if redisClient != nil {
			redisClient.SetIdempotencyKey(ctx, idempotencyKey, 30*time.Minute)
		}

		log.Info().
			Str("event_id", event.GatewayEventID).
			Str("order_id", event.GatewayOrderID).
			Str("status", event.Status).
			Bool("replay", result.Replay).
			Msg("Settlement event processed")
		return nil
	}
}
