package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/storage"
	"github.com/lachiem1/rentdesk/internal/syncer"
	"go.uber.org/zap"
)

const (
	rentersVisibleRows = 10
	rentersStaleAfter  = 30 * time.Second
)

type loadRentersMsg struct {
	rows []storage.Renter
	sync *storage.SyncState
	err  error
}

func (m model) loadRentersCmd() tea.Cmd {
	return func() tea.Msg {
		if m.deps.DB == nil {
			return loadRentersMsg{err: errors.New("database is not initialized")}
		}
		ctx := context.Background()
		rows, err := storage.NewRentersRepo(m.deps.DB).List(ctx)
		if err != nil {
			return loadRentersMsg{err: err}
		}
		state, ok, err := storage.NewSyncStateRepo(m.deps.DB).Get(ctx, syncer.CollectionRenters)
		if err != nil {
			return loadRentersMsg{err: err}
		}
		msg := loadRentersMsg{rows: rows}
		if ok {
			msg.sync = &state
		}
		return msg
	}
}

func (m model) enterRentersView() (model, tea.Cmd) {
	if outcome := m.guard(); !outcome.Empty() {
		return m.applyOutcome(outcome)
	}
	previous := m.screen
	m.selected = 0
	m.screen = screenRenters
	m.rentersErr = ""
	m.cmd.Blur()
	m.clearCommandSuggestions()

	if m.deps.Sync != nil && previous != screenRenter {
		if err := m.deps.Sync.EnterRentersView(context.Background()); err != nil {
			m.logger.Warn("enter renters view", zap.String("op", "sync"), zap.Error(err))
		}
	}
	return m, m.loadRentersCmd()
}

func (m model) updateRenters(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m = m.leaveSyncedView()
		m.screen = screenHome
		m.cmd.Focus()
		return m, nil
	case "up", "k":
		if m.rentersCursor > 0 {
			m.rentersCursor--
		}
		m.ensureRentersScrollWindow()
	case "down", "j":
		if m.rentersCursor < len(m.renters)-1 {
			m.rentersCursor++
		}
		m.ensureRentersScrollWindow()
	case "enter":
		if len(m.renters) == 0 {
			return m, nil
		}
		return m.enterRenterView(m.renters[m.rentersCursor])
	case "m":
		m = m.leaveSyncedView()
		return m.enterFormsView()
	case "r", "ctrl+r":
		if m.deps.Sync == nil {
			return m, nil
		}
		if err := m.deps.Sync.RefreshRenters(); err != nil {
			return m.withCommandFeedback("refresh failed: " + err.Error())
		}
		m.syncing = true
	}
	return m, nil
}

func (m model) handleRentersLoaded(msg loadRentersMsg) (model, tea.Cmd) {
	if msg.err != nil {
		if len(m.renters) == 0 {
			m.rentersErr = msg.err.Error()
		}
		return m, nil
	}
	m.rentersErr = ""
	m.renters = msg.rows
	m.rentersSync = msg.sync
	if m.rentersCursor >= len(m.renters) {
		m.rentersCursor = max(0, len(m.renters)-1)
	}
	m.ensureRentersScrollWindow()
	return m, nil
}

func (m model) handleSyncEvent(evt syncer.Event) (model, tea.Cmd) {
	if evt.Collection != syncer.CollectionRenters {
		return m, nil
	}
	switch evt.Type {
	case syncer.EventSyncStarted:
		m.syncing = true
	case syncer.EventSyncOK:
		m.syncing = false
		m.syncNote = ""
		return m, m.loadRentersCmd()
	case syncer.EventSyncFailed:
		m.syncing = false
		switch {
		case evt.Halted:
			m.syncNote = "auto refresh paused, press r to retry"
		case evt.RetryIn > 0:
			m.syncNote = fmt.Sprintf("retrying in %s", evt.RetryIn.Round(time.Second))
		}
		if evt.Err != nil && !errors.Is(evt.Err, context.Canceled) {
			return m.syncFailed(evt.Err)
		}
	}
	return m, nil
}

// syncFailed reports a failed refresh. A rejected token ends the session;
// anything else leaves the cached list on screen.
func (m model) syncFailed(err error) (model, tea.Cmd) {
	if errors.Is(err, rentapi.ErrUnauthorized) && m.deps.Handler != nil {
		if m.alert != "" || m.loginOpen {
			return m, nil
		}
		return m.applyOutcome(m.deps.Handler.PageError(err))
	}
	if len(m.renters) == 0 {
		m.rentersErr = err.Error()
	}
	return m, nil
}

func (m *model) ensureRentersScrollWindow() {
	if m.rentersCursor < m.rentersOffset {
		m.rentersOffset = m.rentersCursor
	}
	if m.rentersCursor >= m.rentersOffset+rentersVisibleRows {
		m.rentersOffset = m.rentersCursor - rentersVisibleRows + 1
	}
	maxOffset := max(0, len(m.renters)-rentersVisibleRows)
	if m.rentersOffset > maxOffset {
		m.rentersOffset = maxOffset
	}
}

func (m model) renderRentersScreen(layoutWidth int) string {
	title := renderScreenTitle("RENTERS", layoutWidth)

	if strings.TrimSpace(m.rentersErr) != "" {
		body := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F15B5B")).
			Render("error: " + m.rentersErr)
		body = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)
		return strings.Join([]string{title, "", body}, "\n")
	}
	if len(m.renters) == 0 {
		text := "no renters found"
		if m.syncing {
			text = "loading renters..."
		}
		body := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B9B4D0")).
			Render(text)
		body = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)
		return strings.Join([]string{title, "", body}, "\n")
	}

	cardWidth := max(32, min(layoutWidth-20, 56))
	start := max(0, min(m.rentersOffset, len(m.renters)-1))
	end := min(len(m.renters), start+rentersVisibleRows)

	baseCard := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Width(cardWidth)
	selectedCard := baseCard.BorderForeground(lipgloss.Color("#FFD54A"))
	innerWidth := max(8, cardWidth-4)

	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := m.renters[i]
		id := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render("#" + r.ID)
		nameWidth := max(4, innerWidth-lipgloss.Width(id)-1)
		name := lipgloss.NewStyle().
			Width(nameWidth).
			MaxWidth(nameWidth).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Render(r.Name)
		card := baseCard
		if i == m.rentersCursor {
			card = selectedCard
		}
		cards = append(cards, card.Render(name+" "+id))
	}
	body := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, strings.Join(cards, "\n"))

	upArrow := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("↑")
	downArrow := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("↓")
	if start > 0 {
		upArrow = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true).Render("↑")
	}
	if end < len(m.renters) {
		downArrow = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true).Render("↓")
	}
	statusLine := renderHint(fmt.Sprintf("showing %d-%d/%d   %s/%s to scroll", start+1, end, len(m.renters), upArrow, downArrow), layoutWidth)

	footer := ""
	switch state := m.rentersSync; {
	case m.syncing:
		footer = "syncing..."
	case state != nil && state.LastSuccess != nil:
		age := max(0, time.Since(state.LastSuccess.UTC()).Round(time.Second))
		footer = fmt.Sprintf("last updated %s ago, %d renters, %d matrices", age, state.Renters, state.Ledgers)
		if state.Stale(time.Now(), rentersStaleAfter) {
			footer += " (stale)"
		}
		if state.Failed() {
			footer += "  last refresh failed: " + state.LastError
		}
	case state != nil && state.Failed():
		footer = "refresh failed: " + state.LastError
	}

	lines := []string{title, "", body, "", statusLine}
	if footer != "" {
		lines = append(lines, renderHint(footer, layoutWidth))
	}
	if m.syncNote != "" && !m.syncing {
		lines = append(lines, renderHint(m.syncNote, layoutWidth))
	}
	lines = append(lines, "", renderHint("enter open  r refresh  m main page  esc back", layoutWidth))
	return strings.Join(lines, "\n")
}
