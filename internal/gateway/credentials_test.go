package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekuatta/villapay/internal/model"
)

func razorpayCreds() *Credentials {
	return &Credentials{
		Type: "razorpay",
		Razorpay: &RazorpayCredentials{
			KeyID:         "rzp_test_abc123",
			KeySecret:     "secret_key_material",
			WebhookSecret: "webhook_secret_material",
		},
	}
}

func TestCredentials_Validate(t *testing.T) {
	cases := []struct {
		name    string
		creds   *Credentials
		wantErr bool
	}{
		{"valid razorpay", razorpayCreds(), false},
		{
			"valid stripe",
			&Credentials{Type: "stripe", Stripe: &StripeCredentials{
				PublishableKey: "pk_test_x", SecretKey: "sk_test_x", WebhookSecret: "whsec_x",
			}},
			false,
		},
		{
			"valid paypal",
			&Credentials{Type: "paypal", Paypal: &PaypalCredentials{
				ClientID: "client", ClientSecret: "secret", WebhookSecret: "whsec", Environment: "sandbox",
			}},
			false,
		},
		{"unknown type", &Credentials{Type: "square"}, true},
		{"razorpay variant missing", &Credentials{Type: "razorpay"}, true},
		{
			"razorpay missing webhook secret",
			&Credentials{Type: "razorpay", Razorpay: &RazorpayCredentials{KeyID: "k", KeySecret: "s"}},
			true,
		},
		{
			"stripe missing secret key",
			&Credentials{Type: "stripe", Stripe: &StripeCredentials{PublishableKey: "pk", WebhookSecret: "wh"}},
			true,
		},
		{
			"paypal bad environment",
			&Credentials{Type: "paypal", Paypal: &PaypalCredentials{
				ClientID: "c", ClientSecret: "s", WebhookSecret: "w", Environment: "staging",
			}},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentials_PublicNeverCarriesSecrets(t *testing.T) {
	secrets := []string{"secret_key_material", "webhook_secret_material", "sk_live_hidden", "client_secret_hidden"}

	views := []*Credentials{
		razorpayCreds(),
		{Type: "stripe", Stripe: &StripeCredentials{
			PublishableKey: "pk_live_visible", SecretKey: "sk_live_hidden", WebhookSecret: "webhook_secret_material",
		}},
		{Type: "paypal", Paypal: &PaypalCredentials{
			ClientID: "client_visible", ClientSecret: "client_secret_hidden", WebhookSecret: "webhook_secret_material", Environment: "production",
		}},
	}

	for _, creds := range views {
		out, err := json.Marshal(creds.Public())
		require.NoError(t, err)
		for _, secret := range secrets {
			assert.NotContains(t, string(out), secret, "redacted %s view leaked a secret", creds.Type)
		}
	}

	pub := razorpayCreds().Public()
	assert.Equal(t, "rzp_test_abc123", pub.KeyID)
}

func TestCredentials_SecretAccessors(t *testing.T) {
	creds := razorpayCreds()
	assert.Equal(t, "secret_key_material", creds.SecretKey())
	assert.Equal(t, "webhook_secret_material", creds.WebhookSecret())

	empty := &Credentials{Type: "razorpay"}
	assert.Equal(t, "", empty.SecretKey())
	assert.Equal(t, "", empty.WebhookSecret())
}

func TestParseCredentials(t *testing.T) {
	blob, err := json.Marshal(razorpayCreds())
	require.NoError(t, err)

	creds, err := ParseCredentials(&model.GatewayConfig{GatewayType: "razorpay", Credentials: blob})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", creds.Type)

	// Stored blob claiming a different gateway than the config row
	_, err = ParseCredentials(&model.GatewayConfig{GatewayType: "stripe", Credentials: blob})
	assert.Error(t, err)

	_, err = ParseCredentials(&model.GatewayConfig{GatewayType: "razorpay", Credentials: []byte(`{"type":"razorpay"}`)})
	assert.Error(t, err)
}
