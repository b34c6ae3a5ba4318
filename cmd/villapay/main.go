package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekuatta/villapay/internal/availability"
	"github.com/ekuatta/villapay/internal/booking"
	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/internal/database"
	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/logger"
	"github.com/ekuatta/villapay/internal/pricing"
	"github.com/ekuatta/villapay/internal/redis"
	"github.com/ekuatta/villapay/internal/router"
	"github.com/ekuatta/villapay/internal/server"
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

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	srv, err := server.NewServer(cfg, &log, loggerService, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	availabilityRepo := availability.NewRepository(db.Pool)
	bookingRepo := booking.NewRepository(db.Pool)
	gatewayRepo := gateway.NewConfigRepository(db.Pool)
	settlementRepo := settlement.NewRepository(db.Pool)

	checker := availability.NewChecker(availabilityRepo)
	engine := pricing.NewEngine(cfg.Commission.PlatformRateBps, cfg.Commission.BrokerShareBps)
	resolver := gateway.NewResolver(gatewayRepo)
	provider := gateway.NewProviderClient(&cfg.Gateway)

	bookingService := booking.NewService(bookingRepo, checker, engine, resolver, provider, redisClient)
	gatewayService := gateway.NewConfigService(gatewayRepo)
	settlementService := settlement.NewService(settlementRepo, cfg.Commission)

	handlers := &router.Handlers{
		Booking:       booking.NewHandler(bookingService, redisClient),
		GatewayConfig: gateway.NewConfigHandler(gatewayService),
		Settlement:    settlement.NewHandler(settlementService, settlementRepo, gatewayRepo),
		Webhook:       settlement.NewWebhookHandler(settlementRepo, gatewayRepo),
	}

	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
