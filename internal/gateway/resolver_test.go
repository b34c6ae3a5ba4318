package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/model"
)

type fakeConfigRepo struct {
	own   *model.GatewayConfig
	admin *model.GatewayConfig
}

func (r *fakeConfigRepo) FindActive(_ context.Context, _ uuid.UUID, _ string) (*model.GatewayConfig, error) {
	if r.own == nil {
		return nil, ErrConfigNotFound
	}
	return r.own, nil
}

func (r *fakeConfigRepo) FindAdminDefault(_ context.Context) (*model.GatewayConfig, error) {
	if r.admin == nil {
		return nil, ErrConfigNotFound
	}
	return r.admin, nil
}

func validConfig(t *testing.T, gatewayType string) *model.GatewayConfig {
	t.Helper()
	creds := &Credentials{
		Type: gatewayType,
		Razorpay: &RazorpayCredentials{
			KeyID: "rzp_key", KeySecret: "rzp_secret", WebhookSecret: "rzp_webhook",
		},
	}
	blob, err := json.Marshal(creds)
	require.NoError(t, err)
	return &model.GatewayConfig{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		GatewayType: gatewayType,
		Credentials: blob,
		IsActive:    true,
	}
}

func TestResolver_PrefersOwnConfig(t *testing.T) {
	own := validConfig(t, "razorpay")
	admin := validConfig(t, "razorpay")
	resolver := NewResolver(&fakeConfigRepo{own: own, admin: admin})

	res, err := resolver.Resolve(context.Background(), own.UserID, "owner")
	require.NoError(t, err)

	assert.True(t, res.CanAcceptPayments)
	assert.Equal(t, SourceOwn, res.Source)
	assert.Equal(t, own.ID, res.Config.ID)
}

func TestResolver_FallsBackToAdminDefault(t *testing.T) {
	admin := validConfig(t, "razorpay")
	resolver := NewResolver(&fakeConfigRepo{admin: admin})

	res, err := resolver.Resolve(context.Background(), uuid.New(), "owner")
	require.NoError(t, err)

	assert.True(t, res.CanAcceptPayments)
	assert.Equal(t, SourceAdmin, res.Source)
	assert.Equal(t, admin.ID, res.Config.ID)
}

func TestResolver_BrokenOwnCredentialsFallThrough(t *testing.T) {
	own := validConfig(t, "razorpay")
	own.Credentials = []byte(`{"type":"razorpay"}`) // missing variant
	admin := validConfig(t, "razorpay")
	resolver := NewResolver(&fakeConfigRepo{own: own, admin: admin})

	res, err := resolver.Resolve(context.Background(), own.UserID, "owner")
	require.NoError(t, err)

	assert.True(t, res.CanAcceptPayments)
	assert.Equal(t, SourceAdmin, res.Source)
}

func TestResolver_NoUsableGateway(t *testing.T) {
	resolver := NewResolver(&fakeConfigRepo{})

	res, err := resolver.Resolve(context.Background(), uuid.New(), "owner")
	require.NoError(t, err)

	assert.False(t, res.CanAcceptPayments)
	assert.Nil(t, res.Config)
}

func TestResolver_InactiveAdminDefaultIsNotUsed(t *testing.T) {
	admin := validConfig(t, "razorpay")
	admin.IsActive = false
	resolver := NewResolver(&fakeConfigRepo{admin: admin})

	res, err := resolver.Resolve(context.Background(), uuid.New(), "owner")
	require.NoError(t, err)

	assert.False(t, res.CanAcceptPayments)
}
