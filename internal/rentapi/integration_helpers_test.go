//go:build integration
// +build integration

package rentapi

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// integrationClient logs in to the server named by RENTDESK_BASE_URL with
// RENTDESK_TEST_USERNAME / RENTDESK_TEST_PASSWORD.
func integrationClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("RENTDESK_BASE_URL")
	username := os.Getenv("RENTDESK_TEST_USERNAME")
	password := os.Getenv("RENTDESK_TEST_PASSWORD")
	if baseURL == "" || username == "" || password == "" {
		t.Skip("RENTDESK_BASE_URL, RENTDESK_TEST_USERNAME and RENTDESK_TEST_PASSWORD must be set")
	}

	resp, err := New(baseURL, staticToken("")).Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	return New(baseURL, staticToken(resp.Token))
}

func Example_integrationServerCommand() {
	fmt.Println("go test -tags=integration ./internal/rentapi -v")
	// Output: go test -tags=integration ./internal/rentapi -v
}
