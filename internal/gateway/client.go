package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ekuatta/villapay/internal/config"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

// ErrGatewayTimeout means the provider call did not complete. The order must
// be treated as not created; it is never a payment success or failure.
var ErrGatewayTimeout = errors.New("gateway call timed out")

// ProviderClient creates provider-side orders using whichever credentials the
// resolver picked. The wire formats are collapsed to one order surface; the
// per-provider differences live in the path and auth header only.
type ProviderClient struct {
	httpClient *http.Client
	baseURLs   map[string]string
}

func NewProviderClient(cfg *config.GatewayConfig) *ProviderClient {
	return &ProviderClient{
		httpClient: &http.Client{
			Timeout: cfg.CallTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		baseURLs: map[string]string{
			constants.GatewayRazorpay: cfg.RazorpayBaseURL,
			constants.GatewayStripe:   cfg.StripeBaseURL,
			constants.GatewayPaypal:   cfg.PaypalBaseURL,
		},
	}
}

func (c *ProviderClient) CreateOrder(ctx context.Context, creds *Credentials, req *types.CreateOrderRequest) (*types.ProviderOrder, error) {
	path := orderPath(creds.Type)
	respBody, err := c.doRequest(ctx, creds, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var order types.ProviderOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("provider returned no order id")
	}
	order.GatewayType = creds.Type
	order.Raw = respBody

	return &order, nil
}

func orderPath(gatewayType string) string {
	switch gatewayType {
	case constants.GatewayRazorpay:
		return "/orders"
	case constants.GatewayStripe:
		return "/payment_intents"
	case constants.GatewayPaypal:
		return "/v2/checkout/orders"
	default:
		return "/orders"
	}
}

func (c *ProviderClient) doRequest(ctx context.Context, creds *Credentials, method, path string, body any) ([]byte, error) {
	url := c.baseURLs[creds.Type] + path

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal request body")
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create HTTP request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+creds.SecretKey())
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		if isTimeout(err) {
			log.Error().Err(err).
				Str("gateway", creds.Type).
				Str("url", url).
				Int64("duration_ms", duration).
				Msg("Gateway request timed out")
			return nil, ErrGatewayTimeout
		}
		log.Error().Err(err).
			Str("method", method).
			Str("url", url).
			Int64("duration_ms", duration).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).
			Str("method", method).
			Str("url", url).
			Int64("duration_ms", duration).
			Msg("Failed to read response body")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// Response bodies can echo request fields; log status only so
		// credential material never reaches the logs.
		log.Error().
			Int("status", resp.StatusCode).
			Str("gateway", creds.Type).
			Str("method", method).
			Str("url", url).
			Int64("duration_ms", duration).
			Msg("Gateway API error response")
		return nil, fmt.Errorf("gateway error: status=%d", resp.StatusCode)
	}

	log.Info().
		Int("status", resp.StatusCode).
		Str("gateway", creds.Type).
		Str("method", method).
		Str("url", url).
		Int64("duration_ms", duration).
		Msg("Gateway API request successful")

	return respBody, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
