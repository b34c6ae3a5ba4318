package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/kafka"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
)

type configLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.GatewayConfig, error)
}

// WebhookHandler receives provider deliveries, verifies the signature over
// the raw body, and hands the normalized event to the outbox for the
// settlement worker. It never processes an unverified payload.
type WebhookHandler struct {
	repo    Repository
	configs configLookup
}

func NewWebhookHandler(repo Repository, configs configLookup) *WebhookHandler {
	return &WebhookHandler{
		repo:    repo,
		configs: configs,
	}
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	gatewayType := chi.URLParam(r, "gateway")
	switch gatewayType {
	case constants.GatewayRazorpay, constants.GatewayStripe, constants.GatewayPaypal:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(gateway.SignatureHeader(gatewayType))
	if signature == "" {
		logger.Warn().Str("gateway", gatewayType).Msg("Webhook delivered without signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read webhook body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ev, err := gateway.ParseEvent(gatewayType, body)
	if err != nil {
		if gateway.IsUnhandledEvent(err) {
			// Acknowledge event types we have no transition for so the
			// provider stops redelivering them.
			logger.Debug().Str("gateway", gatewayType).Msg("Ignoring webhook event with no settlement transition")
			writeStatus(w, http.StatusOK)
			return
		}
		logger.Error().Err(err).Str("gateway", gatewayType).Msg("Failed to parse webhook payload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// The payload is still untrusted: it is only used to locate which
	// credentials should verify it.
	payment, err := h.repo.PaymentByOrderID(ctx, gatewayType, ev.GatewayOrderID)
	if errors.Is(err, ErrPaymentNotFound) {
		logger.Warn().Str("gateway", gatewayType).Str("order_id", ev.GatewayOrderID).Msg("Webhook references unknown order")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to look up payment for webhook")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	cfg, err := h.configs.FindByID(ctx, payment.GatewayConfigID)
	if err != nil {
		logger.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("No gateway config for webhook payment")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	creds, err := gateway.ParseCredentials(cfg)
	if err != nil {
		logger.Error().Err(err).Str("config_id", cfg.ID.String()).Msg("Stored gateway credentials failed validation")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !gateway.VerifyWebhookSignature(gatewayType, body, signature, creds.WebhookSecret()) {
		// Log loudly for audit; the provider only sees a rejection.
		logger.Error().
			Str("gateway", gatewayType).
			Str("event_id", ev.GatewayEventID).
			Str("order_id", ev.GatewayOrderID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Invalid webhook signature")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	firstDelivery, err := h.repo.RecordWebhook(ctx, gatewayType, ev.GatewayEventID, body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to record webhook")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !firstDelivery {
		// Replay: the settlement worker already has (or had) this event.
		logger.Info().Str("gateway", gatewayType).Str("event_id", ev.GatewayEventID).Msg("Webhook replay acknowledged")
		writeStatus(w, http.StatusOK)
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal settlement event")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	correlationID := middleware.GetRequestIDFromContext(ctx)
	if err := h.repo.EnqueueOutbox(ctx, kafka.EventWebhookReceived, payload, payment.BookingID.String(), correlationID); err != nil {
		logger.Error().Err(err).Msg("Failed to store webhook in outbox")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("gateway", gatewayType).
		Str("event_id", ev.GatewayEventID).
		Str("booking_id", payment.BookingID.String()).
		Msg("Webhook stored in outbox")
	writeStatus(w, http.StatusOK)
}

func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
