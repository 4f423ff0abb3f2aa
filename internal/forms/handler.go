// Package forms turns page forms into requests against the rent backend and
// the server's replies into outcomes for the UI.
package forms

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"go.uber.org/zap"
)

const (
	defaultOptOutClass = "native-submit"
	defaultBannerTTL   = 3 * time.Second
)

// Session is the single place the bearer token is read, written and
// cleared.
type Session interface {
	Token() (string, error)
	Active() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Preferences persists small client-side values such as the last username.
type Preferences interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Config struct {
	// OptOutClass marks forms the generic interceptor leaves alone.
	OptOutClass string
	// BannerTTL is how long the payment success banner stays up.
	BannerTTL   time.Duration
	Preferences Preferences
	Logger      *zap.Logger
}

// Handler owns every submit path of the client.
type Handler struct {
	client   *rentapi.Client
	session  Session
	cfg      Config
	logger   *zap.Logger
	inflight *inflight
}

func New(client *rentapi.Client, session Session, cfg Config) *Handler {
	if strings.TrimSpace(cfg.OptOutClass) == "" {
		cfg.OptOutClass = defaultOptOutClass
	}
	if cfg.BannerTTL <= 0 {
		cfg.BannerTTL = defaultBannerTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		client:   client,
		session:  session,
		cfg:      cfg,
		logger:   logger,
		inflight: newInflight(),
	}
}

// Submit dispatches a form to the one handler that owns it: the payment
// handler, the native path for opted-out forms, or the generic interceptor.
func (h *Handler) Submit(ctx context.Context, doc *page.Document, form *page.Form, state *Ledger) Outcome {
	switch {
	case IsPaymentForm(form):
		return h.Pay(ctx, form, state)
	case form.HasClass(h.cfg.OptOutClass):
		return h.Native(ctx, doc, form)
	default:
		return h.SubmitForm(ctx, doc, form)
	}
}

// Intercepts reports whether the generic interceptor handles form.
func (h *Handler) Intercepts(form *page.Form) bool {
	return !IsPaymentForm(form) && !form.HasClass(h.cfg.OptOutClass)
}

// IsPaymentForm reports whether form posts to the payment endpoint.
func IsPaymentForm(form *page.Form) bool {
	return strings.HasPrefix(form.ActionPath(), rentapi.PaymentPathPrefix)
}

// expire clears the token after a 401.
func (h *Handler) expire(op string) Outcome {
	if err := h.session.ClearToken(); err != nil {
		h.logger.Error("clear session token", zap.String("op", op), zap.Error(err))
	}
	h.logger.Info("session rejected by server", zap.String("op", op))
	return unauthorized()
}

// formAction is the form's action, or the page it came from when the
// action is empty.
func formAction(doc *page.Document, form *page.Form) string {
	if form.Action != "" {
		return form.Action
	}
	if doc != nil {
		return doc.URL
	}
	return ""
}

// cause is the innermost transport error text.
func cause(err error) string {
	var netErr *rentapi.NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		err = netErr.Err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	return err.Error()
}
