package forms

import (
	"errors"

	"github.com/lachiem1/rentdesk/internal/session"
	"go.uber.org/zap"
)

// Guard runs before any authenticated screen. Without a usable token it
// alerts and sends the user to the login page; otherwise it asks for
// nothing.
func (h *Handler) Guard() Outcome {
	_, err := h.session.Active()
	if err == nil {
		return Outcome{}
	}
	if !errors.Is(err, session.ErrNoToken) && !errors.Is(err, session.ErrExpired) {
		h.logger.Warn("read session token", zap.String("op", "guard"), zap.Error(err))
	}
	return Outcome{Alert: msgLoginRequired, Navigate: LoginPage}
}
