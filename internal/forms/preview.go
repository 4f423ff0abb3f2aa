package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"go.uber.org/zap"
)

// Element ids the preview reads from and writes to.
const (
	StartDateID    = "renter_start_date"
	ApartmentID    = "apartment_select"
	ExpectedInfoID = "expected_info"
)

// Preview returns the text for the expected-payment display. Without both
// inputs no request is made and the text is empty.
func (h *Handler) Preview(ctx context.Context, apartment, startDate string) string {
	apartment = strings.TrimSpace(apartment)
	startDate = strings.TrimSpace(startDate)
	if apartment == "" || startDate == "" {
		return ""
	}

	resp, err := h.client.Expected(ctx, apartment, startDate)
	if err != nil {
		h.logger.Debug("expected payments unavailable", zap.String("op", "expected"), zap.Error(err))
		if rentapi.IsNetwork(err) {
			return msgPreviewError
		}
		return msgPreviewFailed
	}
	return fmt.Sprintf("Expected months: %d, Expected total: %s",
		int(resp.MonthsCount), matrix.FormatMoney(resp.ExpectedTotal))
}

// PreviewInputs reads the apartment and start date currently entered on a
// page. ok is false when the page has no preview.
func PreviewInputs(doc *page.Document) (apartment, startDate string, ok bool) {
	_, start, hasStart := doc.Field(StartDateID)
	if !hasStart {
		return "", "", false
	}
	if _, apt, hasApt := doc.Field(ApartmentID); hasApt {
		apartment = apt.Value
	}
	return apartment, start.Value, true
}
