package rentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// PaymentPathPrefix identifies the payment form by its action.
const PaymentPathPrefix = "/add_payment/"

// AddPayment posts the payment as JSON to action with the bearer token.
func (c *Client) AddPayment(ctx context.Context, action string, payment PaymentRequest) (*PaymentResponse, error) {
	payload, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("encode payment request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, action, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req, "add payment", true)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, apiError(resp)
	}

	// A 2xx means the payment was stored. Fields the reply cannot supply
	// stay nil and callers fall back to what they sent.
	out := &PaymentResponse{Success: true}
	if len(resp.body) == 0 {
		return out, nil
	}
	if err := decode(resp, out); err != nil {
		c.logger.Warn("payment reply unreadable",
			zap.String("op", "add payment"),
			zap.Int("status", resp.status),
			zap.Error(err),
		)
		return &PaymentResponse{Success: true}, nil
	}
	return out, nil
}
