package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/types"
)

type crudRepository interface {
	ConfigRepository
	FindByID(ctx context.Context, id uuid.UUID) (*model.GatewayConfig, error)
	ListByUser(ctx context.Context, userID uuid.UUID, role string) ([]*model.GatewayConfig, error)
	Create(ctx context.Context, cfg *model.GatewayConfig) error
	Update(ctx context.Context, cfg *model.GatewayConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConfigView is a gateway config with its credentials redacted. Every
// outward response uses this shape; secrets never leave the service.
type ConfigView struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Role          string             `json:"role"`
	GatewayType   string             `json:"gateway_type"`
	Credentials   *PublicCredentials `json:"credentials"`
	IsDefault     bool               `json:"is_default"`
	IsActive      bool               `json:"is_active"`
	CommissionBps int64              `json:"commission_bps"`
}

type ConfigService struct {
	repo crudRepository
}

func NewConfigService(repo crudRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

func (s *ConfigService) Create(ctx context.Context, req *types.UpsertGatewayConfigRequest) (*ConfigView, error) {
	cfg := &model.GatewayConfig{
		UserID:        req.UserID,
		Role:          req.Role,
		GatewayType:   req.GatewayType,
		Credentials:   req.Credentials,
		IsDefault:     req.IsDefault,
		IsActive:      req.IsActive,
		CommissionBps: req.CommissionBps,
	}

	creds, err := ParseCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, err
	}

	return viewOf(cfg, creds), nil
}

func (s *ConfigService) Update(ctx context.Context, id uuid.UUID, req *types.UpsertGatewayConfigRequest) (*ConfigView, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.IsDefault = req.IsDefault
	existing.IsActive = req.IsActive
	existing.CommissionBps = req.CommissionBps
	if len(req.Credentials) > 0 && string(req.Credentials) != "null" {
		existing.Credentials = req.Credentials
	}

	creds, err := ParseCredentials(existing)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	return viewOf(existing, creds), nil
}

func (s *ConfigService) Get(ctx context.Context, id uuid.UUID) (*ConfigView, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return redactedView(cfg), nil
}

func (s *ConfigService) List(ctx context.Context, userID uuid.UUID, role string) ([]*ConfigView, error) {
	configs, err := s.repo.ListByUser(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	views := make([]*ConfigView, 0, len(configs))
	for _, cfg := range configs {
		views = append(views, redactedView(cfg))
	}
	return views, nil
}

func (s *ConfigService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// OwnedBy reports whether the config belongs to the given identity. Handlers
// use it to restrict access to the owning user or an admin.
func (s *ConfigService) OwnedBy(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return cfg.UserID == userID, nil
}

func viewOf(cfg *model.GatewayConfig, creds *Credentials) *ConfigView {
	return &ConfigView{
		ID:            cfg.ID,
		UserID:        cfg.UserID,
		Role:          cfg.Role,
		GatewayType:   cfg.GatewayType,
		Credentials:   creds.Public(),
		IsDefault:     cfg.IsDefault,
		IsActive:      cfg.IsActive,
		CommissionBps: cfg.CommissionBps,
	}
}

func redactedView(cfg *model.GatewayConfig) *ConfigView {
	view := &ConfigView{
		ID:            cfg.ID,
		UserID:        cfg.UserID,
		Role:          cfg.Role,
		GatewayType:   cfg.GatewayType,
		IsDefault:     cfg.IsDefault,
		IsActive:      cfg.IsActive,
		CommissionBps: cfg.CommissionBps,
	}

	// Stored credentials may predate the current validation rules; redact
	// whatever decodes rather than failing the read.
	var creds Credentials
	if err := json.Unmarshal(cfg.Credentials, &creds); err == nil {
		if creds.Type == "" {
			creds.Type = cfg.GatewayType
		}
		view.Credentials = creds.Public()
	}
	return view
}
