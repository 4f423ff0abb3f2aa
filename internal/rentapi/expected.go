package rentapi

import (
	"context"
	"net/http"
	"net/url"
)

// ExpectedPath is the read-only expected-payments endpoint.
const ExpectedPath = "/api/expected/"

// Expected calls GET /api/expected/?apartment=<id>&start_date=<date>.
func (c *Client) Expected(ctx context.Context, apartment, startDate string) (*ExpectedResponse, error) {
	query := url.Values{}
	query.Set("apartment", apartment)
	query.Set("start_date", startDate)

	req, err := c.newRequest(ctx, http.MethodGet, ExpectedPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req, "expected payments", true)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, apiError(resp)
	}

	var out ExpectedResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
