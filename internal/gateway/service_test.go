package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

type fakeCrudRepo struct {
	fakeConfigRepo
	configs map[uuid.UUID]*model.GatewayConfig
}

func newFakeCrudRepo() *fakeCrudRepo {
	return &fakeCrudRepo{configs: map[uuid.UUID]*model.GatewayConfig{}}
}

func (r *fakeCrudRepo) FindByID(_ context.Context, id uuid.UUID) (*model.GatewayConfig, error) {
	if cfg, ok := r.configs[id]; ok {
		return cfg, nil
	}
	return nil, ErrConfigNotFound
}

func (r *fakeCrudRepo) ListByUser(_ context.Context, userID uuid.UUID, role string) ([]*model.GatewayConfig, error) {
	var out []*model.GatewayConfig
	for _, cfg := range r.configs {
		if cfg.UserID == userID && cfg.Role == role {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (r *fakeCrudRepo) Create(_ context.Context, cfg *model.GatewayConfig) error {
	cfg.ID = uuid.New()
	r.configs[cfg.ID] = cfg
	return nil
}

func (r *fakeCrudRepo) Update(_ context.Context, cfg *model.GatewayConfig) error {
	r.configs[cfg.ID] = cfg
	return nil
}

func (r *fakeCrudRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.configs, id)
	return nil
}

func upsertRequest(t *testing.T) *types.UpsertGatewayConfigRequest {
	t.Helper()
	blob, err := json.Marshal(razorpayCreds())
	require.NoError(t, err)
	return &types.UpsertGatewayConfigRequest{
		UserID:      uuid.New(),
		Role:        constants.RoleOwner,
		GatewayType: constants.GatewayRazorpay,
		Credentials: blob,
		IsActive:    true,
	}
}

func TestConfigService_CreateReturnsRedactedView(t *testing.T) {
	service := NewConfigService(newFakeCrudRepo())

	view, err := service.Create(context.Background(), upsertRequest(t))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, view.ID)
	require.NotNil(t, view.Credentials)
	assert.Equal(t, "rzp_test_abc123", view.Credentials.KeyID)

	out, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret_key_material")
	assert.NotContains(t, string(out), "webhook_secret_material")
}

func TestConfigService_CreateRejectsInvalidCredentials(t *testing.T) {
	service := NewConfigService(newFakeCrudRepo())

	req := upsertRequest(t)
	req.Credentials = []byte(`{"type":"razorpay"}`)

	_, err := service.Create(context.Background(), req)
	assert.Error(t, err)
}

func TestConfigService_UpdateKeepsStoredCredentialsWhenOmitted(t *testing.T) {
	repo := newFakeCrudRepo()
	service := NewConfigService(repo)

	created, err := service.Create(context.Background(), upsertRequest(t))
	require.NoError(t, err)

	update := &types.UpsertGatewayConfigRequest{
		UserID:      created.UserID,
		Role:        created.Role,
		GatewayType: created.GatewayType,
		IsActive:    false,
	}

	view, err := service.Update(context.Background(), created.ID, update)
	require.NoError(t, err)

	assert.False(t, view.IsActive)
	assert.Equal(t, "rzp_test_abc123", view.Credentials.KeyID)
}

func TestConfigService_GetAndList(t *testing.T) {
	repo := newFakeCrudRepo()
	service := NewConfigService(repo)

	req := upsertRequest(t)
	created, err := service.Create(context.Background(), req)
	require.NoError(t, err)

	got, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	views, err := service.List(context.Background(), req.UserID, req.Role)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = service.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestConfigService_OwnedBy(t *testing.T) {
	repo := newFakeCrudRepo()
	service := NewConfigService(repo)

	req := upsertRequest(t)
	created, err := service.Create(context.Background(), req)
	require.NoError(t, err)

	owned, err := service.OwnedBy(context.Background(), created.ID, req.UserID)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = service.OwnedBy(context.Background(), created.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owned)
}
