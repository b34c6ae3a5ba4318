package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/ekuatta/villapay/internal/booking"
	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/internal/server"
	"github.com/ekuatta/villapay/internal/settlement"
)

type Handlers struct {
	Booking       *booking.Handler
	GatewayConfig *gateway.ConfigHandler
	Settlement    *settlement.Handler
	Webhook       *settlement.WebhookHandler
}

func NewRouter(s *server.Server, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	mw := middleware.NewMiddlewares(s)

	// Apply middleware in order
	r.Use(middleware.RequestID)
	r.Use(mw.Tracing.NewRelicMiddleware())
	r.Use(mw.Tracing.EnhanceTracing)
	r.Use(mw.ContextEnhancer.EnhanceContext)
	r.Use(mw.Global.RequestLogger)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.Booking.Create)
			r.Post("/{id}/cancel", h.Booking.Cancel)
		})

		r.Post("/availability/check", h.Booking.CheckAvailability)

		r.Post("/payments/verify", h.Settlement.VerifyPayment)

		r.Route("/gateways", func(r chi.Router) {
			r.Post("/", h.GatewayConfig.Create)
			r.Get("/", h.GatewayConfig.List)
			r.Get("/{id}", h.GatewayConfig.Get)
			r.Put("/{id}", h.GatewayConfig.Update)
			r.Delete("/{id}", h.GatewayConfig.Delete)
		})
	})

	// Provider deliveries bypass the versioned API surface.
	r.Post("/webhooks/{gateway}", h.Webhook.HandleWebhook)

	return r
}
