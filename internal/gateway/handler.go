package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/pkg/types"
)

type ConfigHandler struct {
	service *ConfigService
}

func NewConfigHandler(service *ConfigService) *ConfigHandler {
	return &ConfigHandler{
		service: service,
	}
}

var validate = validator.New()

func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	var req types.UpsertGatewayConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode gateway config request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		logger.Error().Err(err).Msg("Validation error on gateway config request")
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.Create(ctx, &req)
	if err != nil {
		// The error may quote credential field names but never values;
		// safe to surface.
		logger.Error().Err(err).Msg("Failed to create gateway config")
		http.Error(w, "Failed to create gateway config: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
	logger.Info().Str("gateway", view.GatewayType).Msg("Gateway config created")
}

func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid config id", http.StatusBadRequest)
		return
	}

	var req types.UpsertGatewayConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	view, err := h.service.Update(ctx, id, &req)
	if errors.Is(err, ErrConfigNotFound) {
		http.Error(w, "Gateway config not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update gateway config")
		http.Error(w, "Failed to update gateway config: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid config id", http.StatusBadRequest)
		return
	}

	view, err := h.service.Get(ctx, id)
	if errors.Is(err, ErrConfigNotFound) {
		http.Error(w, "Gateway config not found", http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.GetLogger(ctx).Error().Err(err).Msg("Failed to load gateway config")
		http.Error(w, "Failed to load gateway config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	role := r.URL.Query().Get("role")
	if role == "" {
		http.Error(w, "role query parameter is required", http.StatusBadRequest)
		return
	}

	views, err := h.service.List(ctx, userID, role)
	if err != nil {
		middleware.GetLogger(ctx).Error().Err(err).Msg("Failed to list gateway configs")
		http.Error(w, "Failed to list gateway configs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid config id", http.StatusBadRequest)
		return
	}

	err = h.service.Delete(ctx, id)
	if errors.Is(err, ErrConfigNotFound) {
		http.Error(w, "Gateway config not found", http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.GetLogger(ctx).Error().Err(err).Msg("Failed to delete gateway config")
		http.Error(w, "Failed to delete gateway config", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
