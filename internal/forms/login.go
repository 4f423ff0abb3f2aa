package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/lachiem1/rentdesk/internal/rentapi"
	"go.uber.org/zap"
)

const lastUsernameKey = "last_username"

// Login posts the credentials once. On success the token is stored and the
// outcome navigates to the landing page; any failure is inline text.
func (h *Handler) Login(ctx context.Context, username, password string) Outcome {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Outcome{Inline: msgLoginEmpty}
	}

	resp, err := h.client.Login(ctx, username, password)
	if err != nil {
		h.logger.Info("login rejected", zap.String("op", "login"), zap.Error(err))
		var apiErr *rentapi.APIError
		if errors.As(err, &apiErr) && !apiErr.Raw && apiErr.Message != "" {
			return Outcome{Inline: apiErr.Message}
		}
		return Outcome{Inline: msgLoginFailed}
	}

	if err := h.session.SetToken(resp.Token); err != nil {
		h.logger.Error("store session token", zap.String("op", "login"), zap.Error(err))
		return Outcome{Inline: msgLoginFailed}
	}
	h.rememberUsername(ctx, username)
	return Outcome{Navigate: LandingPage}
}

// Logout clears the token and returns to the login page.
func (h *Handler) Logout() Outcome {
	if err := h.session.ClearToken(); err != nil {
		h.logger.Error("clear session token", zap.String("op", "logout"), zap.Error(err))
		return alert("Logout failed: " + err.Error())
	}
	return Outcome{Navigate: LoginPage}
}

// LastUsername returns the username of the last successful login, if any.
func (h *Handler) LastUsername(ctx context.Context) string {
	if h.cfg.Preferences == nil {
		return ""
	}
	value, ok, err := h.cfg.Preferences.Get(ctx, lastUsernameKey)
	if err != nil {
		h.logger.Warn("load last username", zap.String("op", "login"), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

func (h *Handler) rememberUsername(ctx context.Context, username string) {
	if h.cfg.Preferences == nil {
		return
	}
	if err := h.cfg.Preferences.Set(ctx, lastUsernameKey, username); err != nil {
		h.logger.Warn("save last username", zap.String("op", "login"), zap.Error(err))
	}
}
