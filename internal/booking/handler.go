package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/availability"
	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/internal/pricing"
	"github.com/ekuatta/villapay/internal/redis"
	"github.com/ekuatta/villapay/pkg/types"
)

type Handler struct {
	service *Service
	redis   *redis.Client
}

func NewHandler(service *Service, redisClient *redis.Client) *Handler {
	return &Handler{
		service: service,
		redis:   redisClient,
	}
}

var validate = validator.New()

type errorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message,omitempty"`
	Conflicts []availability.Conflict `json:"conflicts,omitempty"`
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)
	logger.Info().Msg("Received request to create booking")

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		logger.Error().Msg("Idempotency-Key header is missing")
		http.Error(w, "Idempotency-Key header is required", http.StatusBadRequest)
		return
	}

	var req types.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode booking request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		logger.Error().Err(err).Msg("Validation error on booking request")
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	if h.redis != nil {
		allowed, err := h.redis.SimpleRateLimit(ctx, "booking:"+req.CustomerID.String(), 10, time.Minute)
		if err == nil && !allowed {
			http.Error(w, "Too many booking attempts: slow down", http.StatusTooManyRequests)
			return
		}
	}

	res, err := h.service.Create(ctx, &req, idemKey)
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
	logger.Info().Str("booking_id", res.Booking.ID.String()).Msg("Booking created successfully")
}

// writeCreateError maps the domain error taxonomy onto HTTP responses with
// enough detail for the caller to act.
func (h *Handler) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.GetLogger(r.Context())

	if conflictErr := IsConflictError(err); conflictErr != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:     "DateConflict",
			Message:   "requested dates are not available",
			Conflicts: conflictErr.Conflicts,
		})
		return
	}

	if errors.Is(err, ErrPropertyBusy) {
		// Contention on the property lock means somebody else is taking
		// the same dates right now, the same signal as a date conflict.
		writeError(w, http.StatusConflict, errorResponse{
			Error:   "DateConflict",
			Message: "property is being booked by another request, retry shortly",
		})
		return
	}

	if errors.Is(err, ErrRequestInProgress) {
		writeError(w, http.StatusConflict, errorResponse{
			Error:   "RequestInProgress",
			Message: "a request with this idempotency key is still being processed",
		})
		return
	}

	if rateErr := pricing.IsRateError(err); rateErr != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "RateUnavailable",
			Message: rateErr.Error(),
		})
		return
	}

	if errors.Is(err, pricing.ErrCouponInvalid) {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "CouponInvalid",
			Message: err.Error(),
		})
		return
	}

	if errors.Is(err, gateway.ErrNoGateway) {
		// Operator misconfiguration, not user-fixable.
		logger.Error().Msg("Booking refused: no payment gateway configured for payer")
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "NoPaymentGatewayConfigured",
			Message: "payments are not configured for this property: contact support",
		})
		return
	}

	if errors.Is(err, gateway.ErrGatewayTimeout) {
		writeError(w, http.StatusBadGateway, errorResponse{
			Error:   "GatewayTimeout",
			Message: "payment provider did not respond: the booking was not created, please retry",
		})
		return
	}

	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrBookingNotFound) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "NotFound", Message: err.Error()})
		return
	}

	logger.Error().Err(err).Msg("Failed to create booking")
	http.Error(w, "Failed to create booking", http.StatusInternalServerError)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}

	b, err := h.service.Cancel(ctx, id)
	if errors.Is(err, ErrBookingNotFound) {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrAlreadyTerminal) {
		http.Error(w, "Booking is already in a terminal state", http.StatusConflict)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cancel booking")
		http.Error(w, "Failed to cancel booking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
	logger.Info().Str("booking_id", id.String()).Msg("Booking cancelled")
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	var req types.CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.CheckAvailability(ctx, &req)
	if err != nil {
		logger.Error().Err(err).Msg("Availability check failed")
		http.Error(w, "Availability check failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
