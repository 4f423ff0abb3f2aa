package tui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
	"github.com/lachiem1/rentdesk/internal/syncer"
)

type memorySession struct {
	token string
}

func (s *memorySession) Token() (string, error) {
	if s.token == "" {
		return "", session.ErrNoToken
	}
	return s.token, nil
}

func (s *memorySession) Active() (string, error) { return s.Token() }

func (s *memorySession) SetToken(token string) error {
	s.token = token
	return nil
}

func (s *memorySession) ClearToken() error {
	s.token = ""
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(key(string(r)))
		m = next.(model)
	}
	return m
}

func newTestModel(t *testing.T, h http.HandlerFunc, sess *memorySession) model {
	t.Helper()
	var client *rentapi.Client
	if h != nil {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		client = rentapi.New(srv.URL, sess)
	} else {
		client = rentapi.New("http://127.0.0.1:1", sess)
	}
	return New(Deps{
		Client:  client,
		Handler: forms.New(client, sess, forms.Config{}),
	}).(model)
}

func TestAlertDefersNavigation(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})

	m, _ = m.applyOutcome(forms.Outcome{Alert: "Unauthorized! Please log in again.", Navigate: forms.LoginPage})
	if m.alert == "" || m.loginOpen {
		t.Fatalf("alert=%q loginOpen=%v, want alert before navigation", m.alert, m.loginOpen)
	}

	next, _ := m.Update(key("enter"))
	m = next.(model)
	if m.alert != "" || !m.loginOpen {
		t.Fatalf("after dismiss alert=%q loginOpen=%v", m.alert, m.loginOpen)
	}
}

func TestBannerClearsAfterItsOwnTick(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})

	m, cmd := m.applyOutcome(forms.Outcome{
		Banner:    "Payment saved successfully!",
		BannerTTL: time.Millisecond,
		Cells:     []matrix.Period{{Year: 2024, Month: time.March}},
		Totals:    []string{matrix.TotalPaidID},
	})
	if cmd == nil || m.banner == "" || len(m.highlight) != 1 {
		t.Fatalf("banner=%q highlight=%v cmd=%v", m.banner, m.highlight, cmd)
	}

	stale, _ := m.Update(clearBannerMsg{id: m.bannerID - 1})
	if stale.(model).banner == "" {
		t.Fatal("stale tick cleared the banner")
	}
	next, _ := m.Update(clearBannerMsg{id: m.bannerID})
	if got := next.(model); got.banner != "" || got.highlight != nil || got.changedTotals != nil {
		t.Fatalf("banner not cleared: %+v", got.banner)
	}
}

func TestBusyOutcomeIsFeedbackOnly(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})
	m, _ = m.applyOutcome(forms.Outcome{Busy: true})
	if m.commandText != msgSubmitBusy || m.alert != "" {
		t.Fatalf("commandText=%q alert=%q", m.commandText, m.alert)
	}
}

func TestGuardOpensLoginWithoutToken(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})

	next, _ := m.enterRentersView()
	if next.screen != screenHome || next.alert != "You must log in first!" {
		t.Fatalf("screen=%v alert=%q", next.screen, next.alert)
	}
}

func TestLoginSuccessOpensRenters(t *testing.T) {
	sess := &memorySession{}
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	}, sess)

	m, _ = m.openLogin()
	m.loginUsername.SetValue("simple")
	m.loginPassword.SetValue("secret")
	next, cmd := m.Update(key("enter"))
	m = next.(model)
	if !m.loginBusy || cmd == nil {
		t.Fatal("enter did not start a login")
	}

	next, _ = m.Update(cmd())
	m = next.(model)
	if m.loginOpen || m.screen != screenRenters || m.username != "simple" {
		t.Fatalf("loginOpen=%v screen=%v username=%q", m.loginOpen, m.screen, m.username)
	}
	if sess.token != "tok" {
		t.Fatalf("token = %q", sess.token)
	}
}

func TestLoginFailureStaysInDialog(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}, &memorySession{})

	m, _ = m.openLogin()
	m.loginUsername.SetValue("simple")
	m.loginPassword.SetValue("wrong")
	next, cmd := m.Update(key("enter"))
	next, _ = next.(model).Update(cmd())
	m = next.(model)
	if !m.loginOpen || m.loginInline != "Invalid credentials" {
		t.Fatalf("loginOpen=%v inline=%q", m.loginOpen, m.loginInline)
	}
	if m.loginPassword.Value() != "" {
		t.Fatal("password kept after a failed login")
	}
}

func TestCommandSuggestionCompletes(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})
	m = typeText(t, m, "/ren")
	if !m.shouldShowCommandSuggestions() {
		t.Fatal("no suggestions for /ren")
	}
	next, _ := m.Update(key("tab"))
	if got := next.(model).cmd.Value(); got != "/renters" {
		t.Fatalf("completed command = %q", got)
	}
}

func TestUnknownCommandFeedback(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})
	m = typeText(t, m, "nope")
	next, _ := m.Update(key("enter"))
	if got := next.(model).commandText; got != "Unknown command: nope" {
		t.Fatalf("commandText = %q", got)
	}
}

const editorForm = `<html><body><form method="post" action="/main-page/">
<input type="hidden" name="ac" value="add_renter">
<label for="id_name">Name:</label><input type="text" name="name" id="id_name">
<select name="apartment" id="apartment_select"><option value="">--</option><option value="1">Apt 1</option></select>
<input type="checkbox" name="notify" value="yes">
</form></body></html>`

func TestFormEditorEditsInPlace(t *testing.T) {
	doc, err := page.ParseBytes("http://x/main-page/", []byte(editorForm))
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	form := doc.Forms[0]
	e := newFormEditor(form)

	if len(e.fields()) != 3 {
		t.Fatalf("fields = %d, want 3 editable", len(e.fields()))
	}

	e, _, _ = e.update(key("enter"))
	if !e.editing {
		t.Fatal("enter on a text field did not start editing")
	}
	for _, r := range "Carol" {
		e, _, _ = e.update(key(string(r)))
	}
	var changed *page.Field
	e, changed, _ = e.update(key("enter"))
	if changed == nil || form.Get("name") != "Carol" {
		t.Fatalf("name = %q, changed = %v", form.Get("name"), changed)
	}

	e, _, _ = e.update(key("down"))
	e, changed, _ = e.update(key("right"))
	if changed == nil || changed.ID != "apartment_select" || form.Get("apartment") != "1" {
		t.Fatalf("apartment = %q", form.Get("apartment"))
	}

	e, _, _ = e.update(key("down"))
	_, _, _ = e.update(key(" "))
	if form.Values().Get("notify") != "yes" {
		t.Fatalf("notify not toggled: %v", form.Values())
	}

	if view := e.view(40, true); !strings.Contains(view, "Name") || !strings.Contains(view, "Apt 1") {
		t.Fatalf("view = %q", view)
	}
}

func TestSubmitOutcomeSwapsFormAndReloads(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{token: "tok"})
	doc, _ := page.ParseBytes("http://x/main-page/", []byte(editorForm))
	m.screen = screenForms
	m.formsDoc = doc
	m.formEditor = newFormEditor(doc.Forms[0])

	clone := doc.Forms[0].Clone()
	next, cmd := m.handleSubmit(submitMsg{
		session: m.pageSession,
		index:   0,
		doc:     doc,
		form:    clone,
		outcome: forms.Outcome{Reload: true},
	})
	if doc.Forms[0] != clone || next.formEditor.form != clone {
		t.Fatal("submitted form not swapped into the page")
	}
	if cmd == nil {
		t.Fatal("reload outcome produced no command")
	}
}

func TestNativeOutcomeResubmits(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})
	doc, _ := page.ParseBytes("http://x/main-page/", []byte(editorForm))

	_, cmd := m.handleSubmit(submitMsg{doc: doc, form: doc.Forms[0], outcome: forms.Outcome{Native: true}})
	if cmd == nil {
		t.Fatal("native outcome produced no command")
	}
}

func TestBlockTitleRowsAlign(t *testing.T) {
	rows := strings.Split(renderBlockTitle(), "\n")
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	width := lipgloss.Width(rows[0])
	for i, row := range rows {
		if lipgloss.Width(row) != width {
			t.Fatalf("row %d width %d, want %d", i, lipgloss.Width(row), width)
		}
	}
}

func TestViewRendersEachScreen(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)

	for _, screen := range []screenMode{screenHome, screenRenters, screenRenter, screenForms} {
		m.screen = screen
		if strings.TrimSpace(m.View()) == "" {
			t.Fatalf("screen %v rendered nothing", screen)
		}
	}
}

func TestSyncEventNotes(t *testing.T) {
	m := newTestModel(t, nil, &memorySession{token: "tok"})

	m, _ = m.handleSyncEvent(syncer.Event{Type: syncer.EventSyncFailed, Collection: syncer.CollectionRenters, Err: errors.New("boom"), RetryIn: 5 * time.Second})
	if m.syncNote != "retrying in 5s" {
		t.Fatalf("syncNote = %q", m.syncNote)
	}
	m, _ = m.handleSyncEvent(syncer.Event{Type: syncer.EventSyncOK, Collection: syncer.CollectionRenters})
	if m.syncNote != "" || m.syncing {
		t.Fatalf("syncNote = %q syncing = %v after success", m.syncNote, m.syncing)
	}
}
