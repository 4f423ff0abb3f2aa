package rentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// SubmitForm posts values as multipart form data to action with the bearer
// token. A 2xx reply is success whatever its body; the body is decoded only
// when it is JSON.
func (c *Client) SubmitForm(ctx context.Context, action string, values url.Values) (*FormResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range values[key] {
			if err := writer.WriteField(key, value); err != nil {
				return nil, fmt.Errorf("encode form field %q: %w", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, action, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.formReply(req, "submit form", true)
}

// SubmitNative posts values urlencoded without the bearer token, the way a
// browser submits a form nobody intercepted.
func (c *Client) SubmitNative(ctx context.Context, action string, values url.Values) (*FormResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, action, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.formReply(req, "submit native form", false)
}

func (c *Client) formReply(req *http.Request, op string, authenticate bool) (*FormResponse, error) {
	resp, err := c.send(req, op, authenticate)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, apiError(resp)
	}

	out := &FormResponse{Success: true}
	if resp.isJSON() && len(resp.body) > 0 {
		// Success bodies are advisory; a bad one does not undo the submit.
		_ = json.Unmarshal(resp.body, out)
	}
	return out, nil
}
