package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/rentapi"
)

// applyOutcome performs what a handler asked for. An alert is shown first;
// navigation and reloads it carries wait until it is dismissed.
func (m model) applyOutcome(o forms.Outcome) (model, tea.Cmd) {
	if o.Busy {
		return m.withCommandFeedback(msgSubmitBusy)
	}

	var cmds []tea.Cmd
	if len(o.Cells) > 0 {
		m.highlight = o.Cells
	}
	if len(o.Totals) > 0 {
		m.changedTotals = o.Totals
	}
	if o.Banner != "" {
		m.banner = o.Banner
		m.bannerID++
		id := m.bannerID
		ttl := o.BannerTTL
		if ttl <= 0 {
			ttl = 3 * time.Second
		}
		cmds = append(cmds, tea.Tick(ttl, func(time.Time) tea.Msg {
			return clearBannerMsg{id: id}
		}))
	}
	if o.Inline != "" {
		if m.loginOpen {
			m.loginInline = o.Inline
		} else {
			var cmd tea.Cmd
			m, cmd = m.withCommandFeedback(o.Inline)
			cmds = append(cmds, cmd)
		}
	}

	if o.Alert != "" {
		m.alert = o.Alert
		m.pendingNavigate = o.Navigate
		m.pendingReload = o.Reload
		return m, tea.Batch(cmds...)
	}
	if o.Navigate != "" {
		next, cmd := m.navigate(o.Navigate)
		return next, tea.Batch(append(cmds, cmd)...)
	}
	if o.Reload {
		cmds = append(cmds, m.reloadCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m model) dismissAlert() (model, tea.Cmd) {
	m.alert = ""
	navigate, reload := m.pendingNavigate, m.pendingReload
	m.pendingNavigate = ""
	m.pendingReload = false
	switch {
	case navigate != "":
		return m.navigate(navigate)
	case reload:
		return m, m.reloadCmd()
	}
	return m, nil
}

// navigate moves to the screen showing a server path.
func (m model) navigate(path string) (model, tea.Cmd) {
	switch path {
	case forms.LoginPage:
		m = m.leaveSyncedView()
		m.screen = screenHome
		return m.openLogin()
	case forms.LandingPage:
		return m.enterRentersView()
	case rentapi.MainPagePath:
		return m.enterFormsView()
	}
	return m.withCommandFeedback("-> " + path)
}

// reloadCmd fetches the current page again, dropping in-memory state
// derived from it.
func (m model) reloadCmd() tea.Cmd {
	switch m.screen {
	case screenRenter:
		return m.loadRenterPageCmd(m.pageSession, m.renter.ID)
	case screenForms:
		return m.loadFormsPageCmd(m.pageSession)
	default:
		return m.loadRentersCmd()
	}
}

// leaveSyncedView stops background refreshes of the renters list.
func (m model) leaveSyncedView() model {
	if m.deps.Sync != nil && (m.screen == screenRenters || m.screen == screenRenter) {
		m.deps.Sync.LeaveView()
	}
	return m
}

func (m model) openLogin() (model, tea.Cmd) {
	m.loginOpen = true
	m.loginInline = ""
	m.loginBusy = false
	m.cmd.Blur()
	m.clearCommandSuggestions()
	m.loginPassword.SetValue("")
	if strings.TrimSpace(m.loginUsername.Value()) == "" {
		m.loginFocus = loginFocusUsername
	} else {
		m.loginFocus = loginFocusPassword
	}
	cmd := m.focusLoginInput()
	return m, cmd
}

func (m model) closeLogin() model {
	m.loginOpen = false
	m.loginInline = ""
	m.loginUsername.Blur()
	m.loginPassword.Blur()
	m.cmd.Focus()
	return m
}

func (m *model) focusLoginInput() tea.Cmd {
	if m.loginFocus == loginFocusUsername {
		m.loginPassword.Blur()
		return m.loginUsername.Focus()
	}
	m.loginUsername.Blur()
	return m.loginPassword.Focus()
}

func (m model) updateLogin(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.loginBusy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m.closeLogin(), nil
	case "tab", "shift+tab", "up", "down":
		if m.loginFocus == loginFocusUsername {
			m.loginFocus = loginFocusPassword
		} else {
			m.loginFocus = loginFocusUsername
		}
		cmd := m.focusLoginInput()
		return m, cmd
	case "enter":
		if m.loginFocus == loginFocusUsername && m.loginPassword.Value() == "" {
			m.loginFocus = loginFocusPassword
			cmd := m.focusLoginInput()
			return m, cmd
		}
		if m.deps.Handler == nil {
			return m, nil
		}
		m.loginBusy = true
		m.loginInline = ""
		return m, m.loginCmd(m.loginUsername.Value(), m.loginPassword.Value())
	}

	var cmd tea.Cmd
	if m.loginFocus == loginFocusUsername {
		m.loginUsername, cmd = m.loginUsername.Update(msg)
	} else {
		m.loginPassword, cmd = m.loginPassword.Update(msg)
	}
	m.loginInline = ""
	return m, cmd
}

func (m model) renderLoginDialog(maxWidth int) string {
	panelWidth := max(44, min(maxWidth-6, 64))

	username := m.loginUsername
	username.Width = max(18, panelWidth-18)
	password := m.loginPassword
	password.Width = max(18, panelWidth-18)

	inline := ""
	switch {
	case m.loginBusy:
		inline = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render("logging in...")
	case m.loginInline != "":
		inline = lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render(m.loginInline)
	}

	content := strings.Join([]string{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true).Render("Log in"),
		"",
		username.View(),
		password.View(),
		"",
		inline,
		"Enter to log in, Tab to switch, Esc to cancel",
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}
