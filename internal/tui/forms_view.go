package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
)

const (
	formsFocusList = iota
	formsFocusFields
)

type formsPageMsg struct {
	session int
	doc     *page.Document
	err     error
}

type previewMsg struct {
	seq  int
	text string
}

func (m model) enterFormsView() (model, tea.Cmd) {
	if outcome := m.guard(); !outcome.Empty() {
		return m.applyOutcome(outcome)
	}
	m.selected = 1
	m.screen = screenForms
	m.pageSession++
	m.pageLoading = true
	m.formsFocus = formsFocusList
	m.preview = ""
	m.previewSeq++
	m.cmd.Blur()
	m.clearCommandSuggestions()
	return m, m.loadFormsPageCmd(m.pageSession)
}

func (m model) loadFormsPageCmd(session int) tea.Cmd {
	return func() tea.Msg {
		if m.deps.Client == nil {
			return formsPageMsg{session: session, err: errors.New("client is not configured")}
		}
		p, err := m.deps.Client.FetchPage(context.Background(), rentapi.MainPagePath)
		if err != nil {
			return formsPageMsg{session: session, err: err}
		}
		doc, err := page.ParseBytes(p.URL, p.HTML)
		return formsPageMsg{session: session, doc: doc, err: err}
	}
}

func (m model) handleFormsPage(msg formsPageMsg) (model, tea.Cmd) {
	if msg.session != m.pageSession || m.screen != screenForms {
		return m, nil
	}
	m.pageLoading = false
	if msg.err != nil {
		if m.deps.Handler == nil {
			return m.withCommandFeedback(msg.err.Error())
		}
		return m.applyOutcome(m.deps.Handler.PageError(msg.err))
	}

	m.formsDoc = msg.doc
	if m.formsCursor >= len(msg.doc.Forms) {
		m.formsCursor = max(0, len(msg.doc.Forms)-1)
	}
	m.formEditor = m.formEditor.withForm(m.selectedForm())
	return m.refreshPreview()
}

func (m model) selectedForm() *page.Form {
	if m.formsDoc == nil || len(m.formsDoc.Forms) == 0 {
		return nil
	}
	return m.formsDoc.Forms[m.formsCursor]
}

// refreshPreview recomputes the expected-payment line from the inputs
// currently on the page. Older requests still in flight are ignored.
func (m model) refreshPreview() (model, tea.Cmd) {
	if m.formsDoc == nil || m.deps.Handler == nil {
		return m, nil
	}
	apartment, startDate, ok := forms.PreviewInputs(m.formsDoc)
	if !ok {
		return m, nil
	}
	m.previewSeq++
	seq := m.previewSeq
	if strings.TrimSpace(apartment) == "" || strings.TrimSpace(startDate) == "" {
		m.preview = ""
		return m, nil
	}
	handler := m.deps.Handler
	return m, func() tea.Msg {
		return previewMsg{seq: seq, text: handler.Preview(context.Background(), apartment, startDate)}
	}
}

func (m model) updateForms(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.formEditor.editing {
		return m.updateFormFields(msg)
	}

	switch msg.String() {
	case "esc", "q":
		if m.formsFocus == formsFocusFields {
			m.formsFocus = formsFocusList
			return m, nil
		}
		m.pageSession++
		m.screen = screenHome
		m.cmd.Focus()
		return m, nil
	case "ctrl+r":
		m.pageLoading = true
		return m, m.loadFormsPageCmd(m.pageSession)
	case "ctrl+s":
		form := m.selectedForm()
		if form == nil || m.deps.Handler == nil {
			return m, nil
		}
		if outcome := m.guard(); !outcome.Empty() {
			return m.applyOutcome(outcome)
		}
		return m, m.submitCmd(m.formsDoc, m.formsCursor, form, nil)
	}

	if m.formsFocus == formsFocusFields {
		return m.updateFormFields(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.formsCursor > 0 {
			m.formsCursor--
			m.formEditor = newFormEditor(m.selectedForm())
		}
	case "down", "j":
		if m.formsDoc != nil && m.formsCursor < len(m.formsDoc.Forms)-1 {
			m.formsCursor++
			m.formEditor = newFormEditor(m.selectedForm())
		}
	case "enter", "tab", "right", "l":
		if len(m.formEditor.fields()) > 0 {
			m.formsFocus = formsFocusFields
		}
	}
	return m, nil
}

func (m model) updateFormFields(msg tea.KeyMsg) (model, tea.Cmd) {
	var changed *page.Field
	var cmd tea.Cmd
	m.formEditor, changed, cmd = m.formEditor.update(msg)
	if changed != nil && (changed.ID == forms.StartDateID || changed.ID == forms.ApartmentID) {
		next, previewCmd := m.refreshPreview()
		return next, tea.Batch(cmd, previewCmd)
	}
	return m, cmd
}

func (m model) renderFormsScreen(layoutWidth int) string {
	title := renderScreenTitle("MAIN PAGE", layoutWidth)
	if m.formsDoc == nil {
		text := "no page loaded"
		if m.pageLoading {
			text = "loading..."
		}
		body := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Render(text)
		return strings.Join([]string{title, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)}, "\n")
	}

	listWidth := 24
	listBorder := lipgloss.Color("#F47A60")
	fieldsBorder := lipgloss.Color("#6B7280")
	if m.formsFocus == formsFocusFields {
		listBorder, fieldsBorder = fieldsBorder, lipgloss.Color("#6CBFE6")
	}

	titles := make([]string, 0, len(m.formsDoc.Forms))
	for _, f := range m.formsDoc.Forms {
		label := f.Title()
		if !m.interceptsForm(f) {
			label += " (native)"
		}
		titles = append(titles, label)
	}
	list := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(listBorder).
		Padding(0, 1).
		Width(listWidth).
		Render(renderViews(titles, m.formsCursor, "forms"))

	fieldsWidth := max(32, min(layoutWidth-listWidth-10, 64))
	fieldsBody := m.formEditor.view(fieldsWidth-4, m.formsFocus == formsFocusFields)
	if m.preview != "" {
		fieldsBody += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Render(m.preview)
	}
	fields := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fieldsBorder).
		Padding(0, 1).
		Width(fieldsWidth).
		Render(fieldsBody)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", fields)
	return strings.Join([]string{
		title,
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, panels),
		"",
		renderHint("tab fields  enter edit  ctrl+s submit  ctrl+r reload  esc back", layoutWidth),
	}, "\n")
}

func (m model) interceptsForm(f *page.Form) bool {
	if m.deps.Handler == nil {
		return true
	}
	return m.deps.Handler.Intercepts(f) || forms.IsPaymentForm(f)
}
