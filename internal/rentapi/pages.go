package rentapi

import (
	"context"
	"net/http"
)

// Well-known pages of the backend.
const (
	LoginPagePath = "/login-page/"
	FloorsPath    = "/floors/"
	MainPagePath  = "/main-page/"
)

// RenterPath returns the detail page of one renter.
func RenterPath(id string) string {
	return "/renter/" + id + "/"
}

// Page is a fetched HTML document.
type Page struct {
	URL  string
	HTML []byte
}

// FetchPage calls GET ref with the bearer token and returns the HTML.
func (c *Client) FetchPage(ctx context.Context, ref string) (*Page, error) {
	req, err := c.newRequest(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.send(req, "fetch page", true)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, apiError(resp)
	}
	return &Page{URL: req.URL.String(), HTML: resp.body}, nil
}
