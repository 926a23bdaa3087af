// Package payments charges donors' saved cards for threshold donations.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined marks a charge the provider refused. Retrying will not help
// until the donor updates their card.
var ErrDeclined = errors.New("card declined")

type ChargeRequest struct {
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	CardToken      string
	Description    string
}

type ChargeResult struct {
	ID     string
	Status string
}

// Gateway charges a tokenized card.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// HTTPGateway talks to a card processor's REST API with basic auth.
type HTTPGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewHTTPGateway(baseURL, secretKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type chargeBody struct {
	ReferenceID string `json:"reference_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

type chargeResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.CardToken == "" {
		return nil, fmt.Errorf("%w: no payment method on file", ErrDeclined)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	bodyBytes, err := json.Marshal(chargeBody{
		ReferenceID: req.IdempotencyKey,
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		Source:      req.CardToken,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrDeclined, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("payment provider error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if strings.EqualFold(out.Status, "declined") || strings.EqualFold(out.Status, "failed") {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, out.Message)
	}
	return &ChargeResult{ID: out.ID, Status: out.Status}, nil
}

// SandboxGateway approves every charge that has a card token. It is used when
// no payment provider key is configured.
type SandboxGateway struct{}

func (SandboxGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.CardToken == "" {
		return nil, fmt.Errorf("%w: no payment method on file", ErrDeclined)
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrDeclined)
	}
	return &ChargeResult{ID: "sandbox_" + uuid.NewString(), Status: "succeeded"}, nil
}
