package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/internal/database"
	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/logger"
	"github.com/ekuatta/villapay/internal/redis"
	"github.com/ekuatta/villapay/internal/settlement"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	log.Info().Msg("Starting Settlement Worker...")

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis")
	}
	defer redisClient.Close()

	repo := settlement.NewRepository(db.Pool)
	service := settlement.NewService(repo, cfg.Commission)

	consumer, err := kafka.NewConsumer(kafka.DefaultConfig(cfg.Kafka.Brokers), kafka.GroupSettlementWorker, kafka.TopicWebhookReceived, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Run(ctx, settlementHandler(service, repo, redisClient, &log)); err != nil {
			log.Error().Err(err).Msg("Settlement consumer stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down Settlement Worker...")
	cancel()

	log.Info().Msg("Settlement Worker shutdown complete")
}
