package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pba-bank/backoffice/internal/domain"
)

// CardClient talks to the external payment gateway over HTTP. It
// implements domain.CardCharger.
type CardClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCardClient creates a CardClient for the gateway at baseURL.
func NewCardClient(baseURL string) *CardClient {
	return &CardClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type chargeRequest struct {
	PaymentMethod string `json:"payment_method"`
	AmountCents   int64  `json:"amount_cents"`
}

type chargeResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// ChargeCard charges the referenced payment method for amountCents.
// A gateway decline maps to domain.ErrPaymentDeclined; transport and
// server failures are reported as plain errors.
func (c *CardClient) ChargeCard(ctx context.Context, paymentMethodRef string, amountCents int64) error {
	body, err := json.Marshal(chargeRequest{
		PaymentMethod: paymentMethodRef,
		AmountCents:   amountCents,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read charge response: %w", err)
	}

	var charge chargeResponse
	// Declines can come back as 402 or as a failed status in a 200 body.
	if err := json.Unmarshal(respBody, &charge); err == nil && charge.Status == "failed" {
		return fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, charge.Reason)
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, charge.Reason)
	case resp.StatusCode >= 400:
		return fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}
	return nil
}
