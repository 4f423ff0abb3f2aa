package rentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// LoginPath is the token endpoint.
const LoginPath = "/login-jwt/"

// Login calls POST /login-jwt/ and returns the issued token. Any status other
// than 200 is an *APIError carrying the server's message.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	payload, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, LoginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req, "login", false)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, apiError(resp)
	}

	var out LoginResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	out.Token = strings.TrimSpace(out.Token)
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrMalformedResponse)
	}
	return &out, nil
}
