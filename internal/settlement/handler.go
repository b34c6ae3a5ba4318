package settlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

// Handler is the synchronous verification counterpart to the webhook: the
// client posts the provider payment id and signature after checkout.
type Handler struct {
	service *Service
	configs configLookup
	repo    Repository
}

func NewHandler(service *Service, repo Repository, configs configLookup) *Handler {
	return &Handler{
		service: service,
		configs: configs,
		repo:    repo,
	}
}

var validate = validator.New()

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)
	logger.Info().Msg("Received payment verification request")

	var req types.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	payment, err := h.repo.PaymentByOrderID(ctx, req.GatewayType, req.GatewayOrderID)
	if errors.Is(err, ErrPaymentNotFound) {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to look up payment")
		http.Error(w, "Failed to verify payment", http.StatusInternalServerError)
		return
	}

	cfg, err := h.configs.FindByID(ctx, payment.GatewayConfigID)
	if err != nil {
		logger.Error().Err(err).Msg("No gateway config for payment")
		http.Error(w, "Failed to verify payment", http.StatusInternalServerError)
		return
	}

	creds, err := gateway.ParseCredentials(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Stored gateway credentials failed validation")
		http.Error(w, "Failed to verify payment", http.StatusInternalServerError)
		return
	}

	if !gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, creds.SecretKey()) {
		logger.Error().
			Str("gateway", req.GatewayType).
			Str("order_id", req.GatewayOrderID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Invalid payment verification signature")
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	result, err := h.service.Apply(ctx, &types.SettlementEvent{
		GatewayType:      req.GatewayType,
		GatewayEventID:   "verify:" + req.GatewayPaymentID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Status:           constants.PaymentSuccess,
		Amount:           payment.Amount,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to apply payment verification")
		http.Error(w, "Failed to verify payment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
	logger.Info().Str("payment_id", result.Payment.ID.String()).Bool("replay", result.Replay).Msg("Payment verification applied")
}
