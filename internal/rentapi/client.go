package rentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	maxBodyBytes   = 4 << 20
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, error)
}

// Client is a minimal client for the rent backend.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
	maxBody    int64
}

// New creates a client. An empty baseURL uses the local development server.
// tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:  zap.NewNop(),
		maxBody: maxBodyBytes,
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithLogger attaches a logger for request tracing.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Resolve turns a form action or link into an absolute URL on the server.
func (c *Client) Resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", ref, err)
	}
	return base.ResolveReference(target).String(), nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) isJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// send executes req. With authenticate set, the bearer token is attached
// when the token source has one.
func (c *Client) send(req *http.Request, op string, authenticate bool) (response, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if authenticate && c.tokens != nil {
		if token, err := c.tokens.Token(); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return response{}, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return response{}, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn("response body over limit",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int64("limit", c.maxBody),
		)
		return response{}, fmt.Errorf("%s: %w (over %d bytes)", op, ErrResponseTooLarge, c.maxBody)
	}

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// apiError builds the error for a non-2xx response. Non-JSON bodies become
// raw text instead of a decode failure.
func apiError(resp response) *APIError {
	out := &APIError{Status: resp.status}
	if !resp.isJSON() {
		out.Raw = true
		out.Message = strings.TrimSpace(string(resp.body))
		return out
	}

	var body errorBody
	if err := json.Unmarshal(resp.body, &body); err != nil {
		out.Raw = true
		out.Message = strings.TrimSpace(string(resp.body))
		return out
	}
	out.Message = body.message()
	out.Fields = body.Errors
	return out
}

// decode parses a 2xx JSON body into out.
func decode(resp response, out any) error {
	if len(resp.body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if resp.contentType != "" && !resp.isJSON() {
		return fmt.Errorf("%w: content type %q", ErrMalformedResponse, resp.contentType)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func (c *Client) newRequest(ctx context.Context, method, ref string, body io.Reader) (*http.Request, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, ref, err)
	}
	return req, nil
}
