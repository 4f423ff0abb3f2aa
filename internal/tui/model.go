package tui

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
	"github.com/lachiem1/rentdesk/internal/storage"
	"github.com/lachiem1/rentdesk/internal/syncer"
	"go.uber.org/zap"
)

// Deps are the services the interface drives.
type Deps struct {
	DB      *sql.DB
	Client  *rentapi.Client
	Handler *forms.Handler
	Session *session.Session
	Sync    *syncer.Service
	// Events carries sync engine events into the program. May be nil.
	Events <-chan syncer.Event
	Logger *zap.Logger
}

type guardMsg struct {
	outcome  forms.Outcome
	username string
}

type lastUsernameMsg struct {
	username string
}

type loginMsg struct {
	outcome  forms.Outcome
	username string
}

type logoutMsg struct {
	outcome forms.Outcome
}

type syncEventMsg struct {
	event syncer.Event
}

type syncDoneMsg struct {
	err error
}

type clearCommandTextMsg struct {
	id int
}

type clearBannerMsg struct {
	id int
}

type commandSpec struct {
	name        string
	description string
}

type screenMode int

const (
	screenHome screenMode = iota
	screenRenters
	screenRenter
	screenForms
)

const (
	loginFocusUsername = iota
	loginFocusPassword
)

const msgSubmitBusy = "A submission for this form is already in progress."

type model struct {
	deps   Deps
	logger *zap.Logger

	width  int
	height int

	viewItems []string
	selected  int
	cmd       textinput.Model

	username string

	commandText             string
	commandTextID           int
	commandSuggestions      []commandSpec
	commandSuggestionIndex  int
	commandSuggestionOffset int

	showHelpOverlay bool
	screen          screenMode

	// alert blocks input until dismissed; pending* run afterwards.
	alert           string
	pendingNavigate string
	pendingReload   bool

	loginOpen     bool
	loginFocus    int
	loginInline   string
	loginBusy     bool
	loginUsername textinput.Model
	loginPassword textinput.Model

	renters       []storage.Renter
	rentersSync   *storage.SyncState
	rentersErr    string
	rentersCursor int
	rentersOffset int
	syncing       bool
	// syncNote says what the background refresh does after a failure.
	syncNote string

	// pageSession discards page loads and submits that finish after the
	// user has moved to another page.
	pageSession   int
	pageLoading   bool
	renter        storage.Renter
	renterDoc     *page.Document
	ledger        *forms.Ledger
	ledgerCached  bool
	highlight     []matrix.Period
	changedTotals []string
	payEditor     formEditor
	banner        string
	bannerID      int

	formsDoc    *page.Document
	formsCursor int
	formsFocus  int
	formEditor  formEditor
	preview     string
	previewSeq  int

	quitting bool
}

func New(deps Deps) tea.Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := textinput.New()
	cmd.Prompt = "> "
	cmd.Placeholder = "/help"
	cmd.Width = 72
	cmd.Focus()

	username := textinput.New()
	username.Prompt = "Username: "
	username.Width = 32

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 32

	return model{
		deps:   deps,
		logger: logger,
		viewItems: []string{
			"renters",
			"main page",
		},
		cmd:           cmd,
		screen:        screenHome,
		loginUsername: username,
		loginPassword: password,
		payEditor:     newFormEditor(nil),
		formEditor:    newFormEditor(nil),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.guardCmd(),
		m.lastUsernameCmd(),
		m.loadRentersCmd(),
		m.waitForSyncEventCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cmd.Width = max(40, msg.Width-36)
		return m, nil

	case guardMsg:
		m.username = msg.username
		if msg.outcome.Empty() {
			return m, nil
		}
		return m.applyOutcome(msg.outcome)

	case lastUsernameMsg:
		if m.loginUsername.Value() == "" {
			m.loginUsername.SetValue(msg.username)
		}
		return m, nil

	case loginMsg:
		m.loginBusy = false
		m.loginPassword.SetValue("")
		if msg.outcome.Navigate == forms.LandingPage {
			m = m.closeLogin()
			m.username = msg.username
			var feedback tea.Cmd
			m, feedback = m.withCommandFeedback("logged in as " + msg.username)
			next, cmd := m.navigate(forms.LandingPage)
			return next, tea.Batch(feedback, cmd)
		}
		return m.applyOutcome(msg.outcome)

	case logoutMsg:
		m.username = ""
		m = m.leaveSyncedView()
		m.screen = screenHome
		m.cmd.Focus()
		return m.applyOutcome(msg.outcome)

	case syncEventMsg:
		next, cmd := m.handleSyncEvent(msg.event)
		return next, tea.Batch(cmd, next.waitForSyncEventCmd())

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			next, cmd := m.syncFailed(msg.err)
			return next, tea.Batch(cmd, next.loadRentersCmd())
		}
		next, cmd := m.withCommandFeedback("renters synced")
		return next, tea.Batch(cmd, next.loadRentersCmd())

	case loadRentersMsg:
		return m.handleRentersLoaded(msg)

	case renterPageMsg:
		return m.handleRenterPage(msg)

	case cachedLedgerMsg:
		if msg.renterID == m.renter.ID && m.ledger == nil && msg.ledger != nil {
			m.ledger = msg.ledger
			m.ledgerCached = true
		}
		return m, nil

	case formsPageMsg:
		return m.handleFormsPage(msg)

	case submitMsg:
		return m.handleSubmit(msg)

	case previewMsg:
		if msg.seq == m.previewSeq {
			m.preview = msg.text
		}
		return m, nil

	case clearBannerMsg:
		if msg.id == m.bannerID {
			m.banner = ""
			m.highlight = nil
			m.changedTotals = nil
		}
		return m, nil

	case clearCommandTextMsg:
		if msg.id == m.commandTextID {
			m.commandText = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m = m.leaveSyncedView()
			m.quitting = true
			return m, tea.Quit
		}
		if m.alert != "" {
			switch msg.String() {
			case "enter", "esc", " ":
				return m.dismissAlert()
			}
			return m, nil
		}
		if m.showHelpOverlay {
			if msg.String() == "esc" || msg.String() == "q" {
				m.showHelpOverlay = false
			}
			return m, nil
		}
		if m.loginOpen {
			return m.updateLogin(msg)
		}

		switch m.screen {
		case screenRenters:
			return m.updateRenters(msg)
		case screenRenter:
			return m.updateRenter(msg)
		case screenForms:
			return m.updateForms(msg)
		}
		return m.updateHome(msg)
	}

	return m, nil
}

func (m model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.shouldShowCommandSuggestions() {
			m.clearCommandSuggestions()
			return m, nil
		}
		m.cmd.SetValue("")
		return m, nil
	case "up":
		if m.shouldShowCommandSuggestions() {
			if m.commandSuggestionIndex > 0 {
				m.commandSuggestionIndex--
			}
			m.adjustSuggestionWindow(2)
			return m, nil
		}
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.shouldShowCommandSuggestions() {
			if m.commandSuggestionIndex < len(m.commandSuggestions)-1 {
				m.commandSuggestionIndex++
			}
			m.adjustSuggestionWindow(2)
			return m, nil
		}
		if m.selected < len(m.viewItems)-1 {
			m.selected++
		}
		return m, nil
	case "tab":
		if m.shouldShowCommandSuggestions() {
			m.cmd.SetValue(m.commandSuggestions[m.commandSuggestionIndex].name)
			m.cmd.CursorEnd()
			m.refreshCommandSuggestions()
		}
		return m, nil
	case "enter":
		input := strings.TrimSpace(m.cmd.Value())
		if m.shouldShowCommandSuggestions() && input != m.commandSuggestions[m.commandSuggestionIndex].name {
			input = m.commandSuggestions[m.commandSuggestionIndex].name
		}
		if input == "" {
			return m.openSelectedView()
		}
		m.cmd.SetValue("")
		m.clearCommandSuggestions()
		return m.runSlashCommand(input)
	}

	var cmd tea.Cmd
	m.cmd, cmd = m.cmd.Update(msg)
	m.refreshCommandSuggestions()
	return m, cmd
}

func (m model) openSelectedView() (tea.Model, tea.Cmd) {
	switch m.selected {
	case 0:
		return m.enterRentersView()
	default:
		return m.enterFormsView()
	}
}

func (m model) runSlashCommand(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "":
		return m, nil
	case "/help":
		m.showHelpOverlay = true
		m.commandText = ""
		return m, nil
	case "/renters":
		return m.enterRentersView()
	case "/main":
		return m.enterFormsView()
	case "/login":
		return m.openLogin()
	case "/logout":
		return m, m.logoutCmd()
	case "/sync":
		if m.deps.Sync == nil {
			return m.withCommandFeedback("sync is not configured")
		}
		m.syncing = true
		next, cmd := m.withCommandFeedback("syncing renters...")
		return next, tea.Batch(cmd, next.syncRentersCmd())
	case "/status":
		return m.withCommandFeedback(m.sessionStatus())
	default:
		return m.withCommandFeedback(fmt.Sprintf("Unknown command: %s", input))
	}
}

func (m model) withCommandFeedback(text string) (model, tea.Cmd) {
	m.commandText = text
	m.commandTextID++
	m.cmd.SetValue("")
	m.clearCommandSuggestions()
	id := m.commandTextID
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearCommandTextMsg{id: id}
	})
}

func (m model) sessionStatus() string {
	if m.deps.Session == nil {
		return "not logged in"
	}
	token, err := m.deps.Session.Active()
	if err != nil {
		return "not logged in"
	}
	claims, ok := session.Inspect(token)
	if !ok {
		return "logged in"
	}
	status := "logged in as " + claims.Username
	if claims.ExpiresAt != nil {
		status += ", token expires " + claims.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	return status
}

func (m model) guardCmd() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Handler == nil {
			return guardMsg{}
		}
		outcome := m.deps.Handler.Guard()
		msg := guardMsg{outcome: outcome}
		if outcome.Empty() && m.deps.Session != nil {
			if token, err := m.deps.Session.Token(); err == nil {
				if claims, ok := session.Inspect(token); ok {
					msg.username = claims.Username
				}
			}
		}
		return msg
	}
}

func (m model) lastUsernameCmd() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Handler == nil {
			return lastUsernameMsg{}
		}
		return lastUsernameMsg{username: m.deps.Handler.LastUsername(context.Background())}
	}
}

func (m model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginMsg{
			outcome:  m.deps.Handler.Login(context.Background(), username, password),
			username: strings.TrimSpace(username),
		}
	}
}

func (m model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return logoutMsg{outcome: m.deps.Handler.Logout()}
	}
}

func (m model) syncRentersCmd() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.deps.Sync.SyncRenters(context.Background())}
	}
}

func (m model) waitForSyncEventCmd() tea.Cmd {
	events := m.deps.Events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return syncEventMsg{event: evt}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(1, 1)
	contentStyle := lipgloss.NewStyle().Padding(1, 1, 0, 1)
	if m.width > 0 {
		frame = frame.Width(max(1, m.width-frame.GetHorizontalBorderSize()))
	}
	if m.height > 0 {
		frame = frame.Height(max(1, m.height-frame.GetVerticalBorderSize()))
	}

	layoutWidth := max(1, m.width-frame.GetHorizontalFrameSize()-contentStyle.GetHorizontalFrameSize())
	layoutHeight := max(1, m.height-frame.GetVerticalFrameSize()-contentStyle.GetVerticalFrameSize())

	overlay := ""
	switch {
	case m.alert != "":
		overlay = renderAlert(m.alert, layoutWidth)
	case m.showHelpOverlay:
		overlay = renderHelpOverlay(layoutWidth)
	case m.loginOpen:
		overlay = m.renderLoginDialog(layoutWidth)
	}
	if overlay != "" {
		centered := lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, overlay)
		return frame.Render(contentStyle.Render(centered))
	}

	var body string
	switch m.screen {
	case screenRenters:
		body = m.renderRentersScreen(layoutWidth)
	case screenRenter:
		body = m.renderRenterScreen(layoutWidth)
	case screenForms:
		body = m.renderFormsScreen(layoutWidth)
	default:
		body = m.renderHomeScreen(layoutWidth)
	}
	if message := m.renderMessageArea(layoutWidth); message != "" {
		body += "\n\n" + message
	}
	return frame.Render(contentStyle.Render(body))
}

func (m model) renderHomeScreen(layoutWidth int) string {
	header := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderBlockTitle())
	header = lipgloss.NewStyle().PaddingBottom(1).Render(header)

	statusLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("session: ")
	statusValue := lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Bold(true).Render("not logged in")
	if m.username != "" {
		statusValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76")).Bold(true).Render(m.username)
	}

	listWidth := min(max(24, layoutWidth-8), 48)
	listBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(0, 1).
		Width(listWidth).
		Render(renderViews(m.viewItems, m.selected, statusLabel+statusValue))
	listBox = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, listBox)

	cmdInnerWidth := max(8, listWidth-2)
	cmdInput := m.cmd
	cmdInput.Width = max(6, cmdInnerWidth-2)
	cmdLines := []string{}
	if m.shouldShowCommandSuggestions() {
		cmdLines = append(cmdLines, renderCommandSuggestionRows(cmdInnerWidth, m.commandSuggestions, m.commandSuggestionIndex, m.commandSuggestionOffset))
	}
	cmdLines = append(cmdLines, lipgloss.NewStyle().Width(cmdInnerWidth).Render(cmdInput.View()))
	cmdBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Render(strings.Join(cmdLines, "\n"))
	cmdBox = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, cmdBox)

	return strings.Join([]string{header, listBox, "", cmdBox}, "\n")
}

func (m model) renderMessageArea(layoutWidth int) string {
	if strings.TrimSpace(m.commandText) == "" {
		return ""
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Foreground(lipgloss.Color("#D4CDE9")).
		Width(min(max(24, layoutWidth-8), 64)).
		Render(m.commandText)
	return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, box)
}

func renderViews(items []string, selected int, statusLine string) string {
	lines := []string{statusLine, ""}
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Underline(true)
	prefixStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	for i, item := range items {
		if i == selected {
			lines = append(lines, prefixStyle.Render("> ")+selectedStyle.Render(item))
			continue
		}
		lines = append(lines, itemStyle.Render("  "+item))
	}
	return strings.Join(lines, "\n")
}

var titleGlyphs = [][]string{
	{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"},
	{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"},
	{"███╗   ██╗", "████╗  ██║", "██╔██╗ ██║", "██║╚██╗██║", "██║ ╚████║", "╚═╝  ╚═══╝"},
	{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "},
	{"██████╗ ", "██╔══██╗", "██║  ██║", "██║  ██║", "██████╔╝", "╚═════╝ "},
	{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"},
	{"███████╗", "██╔════╝", "███████╗", "╚════██║", "███████║", "╚══════╝"},
	{"██╗  ██╗", "██║ ██╔╝", "█████╔╝ ", "██╔═██╗ ", "██║  ██╗", "╚═╝  ╚═╝"},
}

func renderBlockTitle() string {
	raw := make([]string, len(titleGlyphs[0]))
	segments := make([][2]int, 0, len(titleGlyphs))
	offset := 1
	for i := range raw {
		raw[i] = " "
	}
	for _, glyph := range titleGlyphs {
		width := 0
		for _, line := range glyph {
			width = max(width, utf8.RuneCountInString(line))
		}
		for i, line := range glyph {
			raw[i] += line + strings.Repeat(" ", width-utf8.RuneCountInString(line))
		}
		segments = append(segments, [2]int{offset, offset + width - 1})
		offset += width
	}
	return renderStyledBlockTitle(raw, segments)
}

// renderStyledBlockTitle draws box strokes blue and alternates the letter
// fill between coral and yellow per segment.
func renderStyledBlockTitle(raw []string, segments [][2]int) string {
	blue := lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true)
	coral := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)

	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		var out strings.Builder
		for idx, ch := range []rune(line) {
			if ch == ' ' {
				out.WriteRune(' ')
				continue
			}
			if isStrokeRune(ch) {
				out.WriteString(blue.Render(string(ch)))
				continue
			}
			fill := coral
			if segmentForIndex(idx, segments)%2 == 1 {
				fill = yellow
			}
			out.WriteString(fill.Render(string(ch)))
		}
		rows = append(rows, out.String())
	}
	return strings.Join(rows, "\n")
}

func isStrokeRune(ch rune) bool {
	switch ch {
	case '╔', '╗', '╚', '╝', '║', '═', '┌', '┐', '└', '┘', '│', '─':
		return true
	default:
		return false
	}
}

func segmentForIndex(index int, segments [][2]int) int {
	for i, s := range segments {
		if index >= s[0] && index <= s[1] {
			return i
		}
	}
	return 0
}

func renderScreenTitle(text string, layoutWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#87CEEB")).
		Bold(true).
		Render(text)
	return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title)
}

func renderHint(text string, layoutWidth int) string {
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render(text)
	return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hint)
}

func commandCatalog() []commandSpec {
	return []commandSpec{
		{name: "/help", description: "show command help overlay"},
		{name: "/renters", description: "open the renters list"},
		{name: "/main", description: "open the main page forms"},
		{name: "/login", description: "open the login dialog"},
		{name: "/logout", description: "clear the stored session token"},
		{name: "/sync", description: "refresh the renter cache now"},
		{name: "/status", description: "show the current session"},
	}
}

func (m *model) refreshCommandSuggestions() {
	input := strings.TrimSpace(m.cmd.Value())
	if !strings.HasPrefix(input, "/") {
		m.clearCommandSuggestions()
		return
	}

	prefix := strings.ToLower(input)
	all := commandCatalog()
	matches := make([]commandSpec, 0, len(all))
	for _, cmd := range all {
		if strings.HasPrefix(cmd.name, prefix) {
			matches = append(matches, cmd)
		}
	}
	if len(matches) == 0 {
		m.clearCommandSuggestions()
		return
	}

	m.commandSuggestions = matches
	if m.commandSuggestionIndex >= len(m.commandSuggestions) {
		m.commandSuggestionIndex = len(m.commandSuggestions) - 1
	}
	if m.commandSuggestionIndex < 0 {
		m.commandSuggestionIndex = 0
	}
	m.adjustSuggestionWindow(2)
}

func (m *model) clearCommandSuggestions() {
	m.commandSuggestions = nil
	m.commandSuggestionIndex = 0
	m.commandSuggestionOffset = 0
}

func (m model) shouldShowCommandSuggestions() bool {
	return strings.HasPrefix(strings.TrimSpace(m.cmd.Value()), "/") && len(m.commandSuggestions) > 0
}

func (m *model) adjustSuggestionWindow(visibleRows int) {
	if visibleRows < 1 {
		visibleRows = 1
	}
	if m.commandSuggestionIndex < m.commandSuggestionOffset {
		m.commandSuggestionOffset = m.commandSuggestionIndex
	}
	if m.commandSuggestionIndex >= m.commandSuggestionOffset+visibleRows {
		m.commandSuggestionOffset = m.commandSuggestionIndex - visibleRows + 1
	}
	maxOffset := max(0, len(m.commandSuggestions)-visibleRows)
	if m.commandSuggestionOffset > maxOffset {
		m.commandSuggestionOffset = maxOffset
	}
}

func renderCommandSuggestionRows(innerWidth int, matches []commandSpec, selectedIndex int, offset int) string {
	visibleRows := 2
	start := max(0, min(offset, max(0, len(matches)-1)))
	end := min(len(matches), start+visibleRows)

	rows := make([]string, 0, end-start)
	baseRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#1B2330")).
		Width(innerWidth)
	selectedRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#263249")).
		Width(innerWidth)
	for i := start; i < end; i++ {
		cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
		descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#8D88A8"))
		prefix := "  "
		rowStyle := baseRow
		if i == selectedIndex {
			prefix = "› "
			cmdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
			descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9"))
			rowStyle = selectedRow
		}
		row := prefix + cmdStyle.Render(matches[i].name) + "  " + descStyle.Render(matches[i].description)
		rows = append(rows, rowStyle.Render(row))
	}

	return strings.Join(rows, "\n")
}

func renderHelpOverlay(maxWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FA8FF")).
		Bold(true).
		Render("Command Help")

	catalog := commandCatalog()
	commands := make([]string, 0, len(catalog))
	for _, cmd := range catalog {
		commands = append(commands, fmt.Sprintf("%-10s %s", cmd.name, cmd.description))
	}
	keys := []string{
		"",
		"forms: ↑/↓ field, enter edit, ←/→ option",
		"ctrl+s submit, ctrl+r reload, esc back",
	}
	body := strings.Join(append(commands, keys...), "\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Esc to close")

	content := strings.Join([]string{title, "", body, "", footer}, "\n")
	panelWidth := max(36, min(maxWidth-6, 64))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}

func renderAlert(text string, maxWidth int) string {
	panelWidth := max(36, min(maxWidth-6, 64))
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Enter to continue")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F15B5B")).
		Padding(1, 2).
		Width(panelWidth).
		Render(strings.Join([]string{text, "", footer}, "\n"))
}
