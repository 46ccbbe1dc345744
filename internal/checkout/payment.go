package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ChargeStatus values reported by the hosted payment provider.
const (
	ChargeStatusPending   = "pending"
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusDeclined  = "declined"
)

type ChargeRequest struct {
	CheckoutID string  `json:"checkout_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	ReturnURL  string  `json:"return_url"`
}

type ChargeResult struct {
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
	Reason      string `json:"reason,omitempty"`
}

// PaymentGateway is the hosted checkout provider the shop redirects to.
// Consumers define this interface; the HTTP client below implements it.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	GetCharge(ctx context.Context, paymentID string) (*ChargeResult, error)
}

// GatewayClient talks to the provider's REST API. Calls run through a
// circuit breaker so a provider outage fails fast instead of tying up
// request handlers on timeouts.
type GatewayClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*ChargeResult]
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration) *GatewayClient {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*ChargeResult](settings),
	}
}

func (g *GatewayClient) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return g.breaker.Execute(func() (*ChargeResult, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal charge request: %w", err)
		}
		return g.do(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
	})
}

func (g *GatewayClient) GetCharge(ctx context.Context, paymentID string) (*ChargeResult, error) {
	return g.breaker.Execute(func() (*ChargeResult, error) {
		return g.do(ctx, http.MethodGet, g.baseURL+"/v1/charges/"+paymentID, nil)
	})
}

func (g *GatewayClient) do(ctx context.Context, method, url string, body *bytes.Reader) (*ChargeResult, error) {
	var reader io.Reader
	if body != nil {
		reader = body
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return &result, nil
}
