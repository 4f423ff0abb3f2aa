package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/storage"
	"go.uber.org/zap"
)

type renterPageMsg struct {
	session int
	doc     *page.Document
	ledger  *forms.Ledger
	err     error
}

type cachedLedgerMsg struct {
	renterID string
	ledger   *forms.Ledger
}

type submitMsg struct {
	session int
	// index is the form's position in the page it was submitted from.
	index   int
	doc     *page.Document
	form    *page.Form
	ledger  *forms.Ledger
	outcome forms.Outcome
}

var totalLabels = map[string]string{
	matrix.TotalPaidID:      "total paid",
	matrix.ExpectedTotalID:  "expected total",
	matrix.ExpectedUnpaidID: "expected unpaid",
	matrix.BalanceID:        "balance",
}

func (m model) guard() forms.Outcome {
	if m.deps.Handler == nil {
		return forms.Outcome{}
	}
	return m.deps.Handler.Guard()
}

func (m model) enterRenterView(r storage.Renter) (model, tea.Cmd) {
	if outcome := m.guard(); !outcome.Empty() {
		return m.applyOutcome(outcome)
	}
	m.screen = screenRenter
	m.renter = r
	m.pageSession++
	m.pageLoading = true
	m.renterDoc = nil
	m.ledger = nil
	m.ledgerCached = false
	m.highlight = nil
	m.changedTotals = nil
	m.banner = ""
	m.payEditor = m.payEditor.withForm(nil)
	return m, tea.Batch(
		m.loadCachedLedgerCmd(r.ID),
		m.loadRenterPageCmd(m.pageSession, r.ID),
		m.rememberRenterCmd(r.ID),
	)
}

func (m model) rememberRenterCmd(renterID string) tea.Cmd {
	if m.deps.DB == nil {
		return nil
	}
	db := m.deps.DB
	logger := m.logger
	return func() tea.Msg {
		if err := storage.NewAppConfigRepo(db).Set(context.Background(), storage.ConfigLastRenter, renterID); err != nil {
			logger.Warn("remember renter", zap.String("op", "app config"), zap.Error(err))
		}
		return nil
	}
}

func (m model) loadCachedLedgerCmd(renterID string) tea.Cmd {
	return func() tea.Msg {
		if m.deps.DB == nil {
			return cachedLedgerMsg{renterID: renterID}
		}
		mx, totals, ok, err := storage.NewLedgersRepo(m.deps.DB).Load(context.Background(), renterID)
		if err != nil || !ok {
			return cachedLedgerMsg{renterID: renterID}
		}
		return cachedLedgerMsg{renterID: renterID, ledger: &forms.Ledger{Matrix: mx, Totals: totals}}
	}
}

func (m model) loadRenterPageCmd(session int, renterID string) tea.Cmd {
	return func() tea.Msg {
		if m.deps.Client == nil {
			return renterPageMsg{session: session, err: errors.New("client is not configured")}
		}
		p, err := m.deps.Client.FetchPage(context.Background(), rentapi.RenterPath(renterID))
		if err != nil {
			return renterPageMsg{session: session, err: err}
		}
		doc, err := page.ParseBytes(p.URL, p.HTML)
		if err != nil {
			return renterPageMsg{session: session, err: err}
		}
		msg := renterPageMsg{session: session, doc: doc}
		if doc.Matrix != nil {
			msg.ledger, msg.err = forms.LedgerFromDocument(doc)
		}
		return msg
	}
}

func (m model) handleRenterPage(msg renterPageMsg) (model, tea.Cmd) {
	if msg.session != m.pageSession || m.screen != screenRenter {
		return m, nil
	}
	m.pageLoading = false
	if msg.err != nil {
		if m.deps.Handler == nil {
			return m.withCommandFeedback(msg.err.Error())
		}
		return m.applyOutcome(m.deps.Handler.PageError(msg.err))
	}

	m.renterDoc = msg.doc
	m.ledger = msg.ledger
	m.ledgerCached = false
	form, _ := msg.doc.FormByActionPrefix(rentapi.PaymentPathPrefix)
	m.payEditor = m.payEditor.withForm(form)
	if msg.ledger == nil {
		return m, nil
	}
	return m, m.saveLedgerCmd(m.renter.ID, msg.ledger)
}

func (m model) saveLedgerCmd(renterID string, ledger *forms.Ledger) tea.Cmd {
	if m.deps.DB == nil || ledger == nil || ledger.Matrix == nil {
		return nil
	}
	// Snapshot on the UI goroutine; the next submit may patch ledger.
	mx := ledger.Matrix.Clone()
	totals := ledger.Totals
	db := m.deps.DB
	logger := m.logger
	return func() tea.Msg {
		if err := storage.NewLedgersRepo(db).Save(context.Background(), renterID, mx, totals, time.Now()); err != nil {
			logger.Warn("cache renter ledger", zap.String("op", "cache ledger"), zap.String("renter_id", renterID), zap.Error(err))
		}
		return nil
	}
}

func (m model) updateRenter(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.payEditor.editing {
		var cmd tea.Cmd
		m.payEditor, _, cmd = m.payEditor.update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.pageSession++
		m.screen = screenRenters
		return m, m.loadRentersCmd()
	case "ctrl+r":
		m.pageLoading = true
		return m, m.loadRenterPageCmd(m.pageSession, m.renter.ID)
	case "ctrl+s":
		form := m.payEditor.form
		if form == nil || m.renterDoc == nil || m.deps.Handler == nil {
			return m, nil
		}
		return m, m.submitCmd(m.renterDoc, formIndex(m.renterDoc, form), form, m.ledger)
	}

	var cmd tea.Cmd
	m.payEditor, _, cmd = m.payEditor.update(msg)
	return m, cmd
}

func formIndex(doc *page.Document, form *page.Form) int {
	for i, f := range doc.Forms {
		if f == form {
			return i
		}
	}
	return -1
}

// submitCmd runs the submit on copies of the form and ledger so the view
// keeps reading stable state until the result arrives.
func (m model) submitCmd(doc *page.Document, index int, form *page.Form, ledger *forms.Ledger) tea.Cmd {
	session := m.pageSession
	handler := m.deps.Handler
	form = form.Clone()
	ledger = ledger.Clone()
	return func() tea.Msg {
		outcome := handler.Submit(context.Background(), doc, form, ledger)
		return submitMsg{session: session, index: index, doc: doc, form: form, ledger: ledger, outcome: outcome}
	}
}

func (m model) nativeSubmitCmd(msg submitMsg) tea.Cmd {
	handler := m.deps.Handler
	return func() tea.Msg {
		msg.outcome = handler.Native(context.Background(), msg.doc, msg.form)
		msg.ledger = nil
		return msg
	}
}

func (m model) handleSubmit(msg submitMsg) (model, tea.Cmd) {
	if msg.outcome.Native {
		return m, m.nativeSubmitCmd(msg)
	}

	var cmds []tea.Cmd
	if msg.session == m.pageSession {
		if msg.index >= 0 && msg.index < len(msg.doc.Forms) {
			msg.doc.Forms[msg.index] = msg.form
		}
		switch m.screen {
		case screenRenter:
			if forms.IsPaymentForm(msg.form) {
				m.payEditor = m.payEditor.withForm(msg.form)
			}
			if msg.ledger != nil && (len(msg.outcome.Cells) > 0 || len(msg.outcome.Totals) > 0) {
				m.ledger = msg.ledger
				m.ledgerCached = false
				cmds = append(cmds, m.saveLedgerCmd(m.renter.ID, msg.ledger))
			}
		case screenForms:
			m.formEditor = m.formEditor.withForm(msg.form)
		}
	}

	next, cmd := m.applyOutcome(msg.outcome)
	return next, tea.Batch(append(cmds, cmd)...)
}

func renderMissed(missed []matrix.Period) string {
	const shown = 4
	names := make([]string, 0, shown)
	for i, p := range missed {
		if i == shown {
			names = append(names, fmt.Sprintf("+%d more", len(missed)-shown))
			break
		}
		names = append(names, p.String())
	}
	return fmt.Sprintf("missed %d: %s", len(missed), strings.Join(names, ", "))
}

func (m model) renderRenterScreen(layoutWidth int) string {
	name := m.renter.Name
	if name == "" {
		name = "renter " + m.renter.ID
	}
	lines := []string{renderScreenTitle("RENTER: "+strings.ToUpper(name), layoutWidth)}

	if m.banner != "" {
		banner := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0B1A0F")).
			Background(lipgloss.Color("#5CCB76")).
			Bold(true).
			Padding(0, 2).
			Render(m.banner)
		lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, banner))
	}

	if m.ledger == nil {
		text := "no payment matrix on this page"
		if m.pageLoading {
			text = "loading..."
		}
		body := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Render(text)
		lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body))
	} else {
		grid := matrix.Render(m.ledger.Matrix, m.highlight)

		totals := matrix.RenderTotals(m.ledger.Totals)
		if missed := m.ledger.Matrix.Missed(time.Now()); len(missed) > 0 {
			totals += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render(renderMissed(missed))
		}
		if len(m.changedTotals) > 0 {
			labels := make([]string, 0, len(m.changedTotals))
			for _, id := range m.changedTotals {
				labels = append(labels, totalLabels[id])
			}
			totals += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Render("updated: "+strings.Join(labels, ", "))
		}
		if m.ledgerCached || m.pageLoading {
			totals += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render("showing cached data")
		}
		totalsBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFD54A")).
			Padding(0, 1).
			Render(totals)

		top := lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", totalsBox)
		lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, top))
	}

	if m.payEditor.form != nil {
		formWidth := max(36, min(layoutWidth-8, 64))
		formBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6CBFE6")).
			Padding(0, 1).
			Width(formWidth).
			Render("Add payment\n\n" + m.payEditor.view(formWidth-4, true))
		lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, formBox))
	}

	lines = append(lines, "", renderHint("enter edit  ←/→ option  ctrl+s pay  ctrl+r reload  esc back", layoutWidth))
	return strings.Join(lines, "\n")
}
