package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
	"go.uber.org/zap"
)

// Payment form field names.
const (
	fieldAmount           = "amount"
	fieldPaymentType      = "payment_type"
	fieldYearMonthCovered = "year_month_covered"
	fieldYearCovered      = "year_covered"
)

// Ledger is the in-memory state of a renter page that a payment patches.
type Ledger struct {
	Matrix *matrix.Matrix
	Totals matrix.Totals
}

// LedgerFromDocument reads the payment matrix and the totals of a renter
// page.
func LedgerFromDocument(doc *page.Document) (*Ledger, error) {
	m, err := matrix.FromTable(doc.Matrix)
	if err != nil {
		return nil, fmt.Errorf("read payment matrix of %s: %w", doc.URL, err)
	}
	return &Ledger{Matrix: m, Totals: matrix.TotalsFromText(doc.Text)}, nil
}

// Clone copies the ledger so a submit can patch it off the UI goroutine.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	out := &Ledger{Totals: l.Totals}
	if l.Matrix != nil {
		out.Matrix = l.Matrix.Clone()
	}
	return out
}

// Pay handles the payment form. Without a token it does not intercept and
// asks for a native submit. Otherwise it posts the payment as JSON and, on
// success, patches state in place and resets the form.
func (h *Handler) Pay(ctx context.Context, form *page.Form, state *Ledger) Outcome {
	if _, err := h.session.Token(); err != nil {
		if !errors.Is(err, session.ErrNoToken) {
			h.logger.Warn("read session token", zap.String("op", "add payment"), zap.Error(err))
		}
		return Outcome{Native: true}
	}

	req, sent, ok := paymentRequest(form)
	if !ok {
		return alert(msgAmountRequired)
	}

	release, acquired := h.inflight.acquire(form.Action)
	if !acquired {
		return Outcome{Busy: true}
	}
	defer release()

	resp, err := h.client.AddPayment(ctx, form.Action, req)
	if err != nil {
		return h.paymentFailure(err)
	}

	out := Outcome{Banner: msgPaymentSaved, BannerTTL: h.cfg.BannerTTL}
	if state != nil {
		if state.Matrix != nil {
			out.Cells = state.Matrix.Reconcile(sent, matrix.Echoed{
				Month:       resp.Month,
				PaymentType: string(resp.PaymentType),
			})
		}
		out.Totals = state.Totals.Apply(matrix.Totals{
			TotalPaid:      resp.TotalPaid,
			ExpectedTotal:  resp.ExpectedTotal,
			ExpectedUnpaid: resp.ExpectedUnpaid,
			Balance:        resp.Balance,
		})
	}
	form.Reset()

	h.logger.Info("payment saved",
		zap.String("op", "add payment"),
		zap.String("payment_type", sent.PaymentType),
		zap.Int("cells", len(out.Cells)),
	)
	return out
}

// paymentRequest builds the JSON body with only the period field that
// matches the payment type. ok is false when a monthly payment has no
// amount.
func paymentRequest(form *page.Form) (rentapi.PaymentRequest, matrix.Submitted, bool) {
	amount := strings.TrimSpace(form.Get(fieldAmount))
	paymentType := strings.TrimSpace(form.Get(fieldPaymentType))
	if paymentType == "" {
		paymentType = matrix.TypeMonthly
	}
	if amount == "" && paymentType == matrix.TypeMonthly {
		return rentapi.PaymentRequest{}, matrix.Submitted{}, false
	}

	req := rentapi.PaymentRequest{
		Amount:      amount,
		PaymentType: rentapi.PaymentType(paymentType),
	}
	sent := matrix.Submitted{PaymentType: paymentType}
	switch paymentType {
	case matrix.TypeMonthly:
		period := form.Get(fieldYearMonthCovered)
		req.YearMonthCovered = &period
		sent.YearMonthCovered = period
	case matrix.TypeYearly:
		year := form.Get(fieldYearCovered)
		req.YearCovered = &year
		sent.YearCovered = year
	}
	return req, sent, true
}

func (h *Handler) paymentFailure(err error) Outcome {
	if errors.Is(err, rentapi.ErrUnauthorized) {
		return h.expire("add payment")
	}
	if rentapi.IsNetwork(err) {
		return networkFailure(err)
	}

	h.logger.Info("payment rejected", zap.String("op", "add payment"), zap.Error(err))
	var apiErr *rentapi.APIError
	if errors.As(err, &apiErr) && !apiErr.Raw && apiErr.Message != "" {
		return alert("Error: " + apiErr.Message)
	}
	return alert("Error: " + msgPaymentFailed)
}
