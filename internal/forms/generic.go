package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"go.uber.org/zap"
)

// SubmitForm sends the form's current values as multipart data with the
// bearer token. Success reloads the page.
func (h *Handler) SubmitForm(ctx context.Context, doc *page.Document, form *page.Form) Outcome {
	action := formAction(doc, form)
	release, ok := h.inflight.acquire(action)
	if !ok {
		return Outcome{Busy: true}
	}
	defer release()

	_, err := h.client.SubmitForm(ctx, action, form.Values())
	if err != nil {
		return h.formFailure("submit form", err)
	}
	h.logger.Info("form submitted", zap.String("op", "submit form"), zap.String("form", form.Title()))
	return Outcome{Reload: true}
}

// Native submits the form the way a browser would without any script: a
// urlencoded POST with no bearer token.
func (h *Handler) Native(ctx context.Context, doc *page.Document, form *page.Form) Outcome {
	action := formAction(doc, form)
	release, ok := h.inflight.acquire(action)
	if !ok {
		return Outcome{Busy: true}
	}
	defer release()

	if _, err := h.client.SubmitNative(ctx, action, form.Values()); err != nil {
		return h.formFailure("submit native form", err)
	}
	return Outcome{Reload: true}
}

func (h *Handler) formFailure(op string, err error) Outcome {
	if errors.Is(err, rentapi.ErrUnauthorized) {
		return h.expire(op)
	}
	if rentapi.IsNetwork(err) {
		return networkFailure(err)
	}

	h.logger.Info("form rejected", zap.String("op", op), zap.Error(err))
	var apiErr *rentapi.APIError
	if !errors.As(err, &apiErr) {
		return alert("Error: " + msgSubmitFailed)
	}
	if apiErr.Raw {
		if apiErr.Message == "" {
			return alert("Error: " + msgSubmitFailed)
		}
		return alert(apiErr.Message)
	}
	if summary := apiErr.Fields.Summary(); summary != "" {
		return alert(strings.Join([]string{msgValidation, "", summary}, "\n"))
	}
	if apiErr.Message != "" {
		return alert("Error: " + apiErr.Message)
	}
	return alert("Error: " + msgSubmitFailed)
}

// PageError turns a failed page load into an outcome. A 401 ends the
// session like any rejected submit.
func (h *Handler) PageError(err error) Outcome {
	if errors.Is(err, rentapi.ErrUnauthorized) {
		return h.expire("load page")
	}
	if rentapi.IsNetwork(err) {
		return networkFailure(err)
	}
	h.logger.Warn("page load failed", zap.String("op", "load page"), zap.Error(err))
	return alert("Error: " + err.Error())
}
