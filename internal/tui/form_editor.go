package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lachiem1/rentdesk/internal/page"
)

// formEditor edits the user-facing fields of one page form in place.
type formEditor struct {
	form    *page.Form
	cursor  int
	editing bool
	input   textinput.Model
	err     string
}

func newFormEditor(form *page.Form) formEditor {
	input := textinput.New()
	input.Prompt = ""
	input.Width = 32
	return formEditor{form: form, input: input}
}

func (e formEditor) fields() []*page.Field {
	if e.form == nil {
		return nil
	}
	return e.form.Editable()
}

// withForm points the editor at form, keeping the cursor where possible.
func (e formEditor) withForm(form *page.Form) formEditor {
	e.form = form
	e.editing = false
	e.err = ""
	e.input.Blur()
	if n := len(e.fields()); e.cursor >= n {
		e.cursor = max(0, n-1)
	}
	return e
}

// update handles one key. changed is the field whose value the key
// altered, or nil.
func (e formEditor) update(msg tea.KeyMsg) (next formEditor, changed *page.Field, cmd tea.Cmd) {
	fields := e.fields()
	if len(fields) == 0 {
		return e, nil, nil
	}
	field := fields[e.cursor]

	if e.editing {
		switch msg.String() {
		case "enter", "tab":
			e.editing = false
			e.input.Blur()
			if err := e.form.Set(field.Name, strings.TrimSpace(e.input.Value())); err != nil {
				e.err = err.Error()
				return e, nil, nil
			}
			return e, field, nil
		case "esc":
			e.editing = false
			e.input.Blur()
			return e, nil, nil
		}
		e.input, cmd = e.input.Update(msg)
		return e, nil, cmd
	}

	e.err = ""
	switch msg.String() {
	case "up", "k", "shift+tab":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j", "tab":
		if e.cursor < len(fields)-1 {
			e.cursor++
		}
	case "left", "h":
		return e.cycle(field, -1)
	case "right", "l":
		return e.cycle(field, 1)
	case " ":
		if isToggle(field) {
			return e.toggle(field)
		}
	case "enter":
		switch {
		case field.Tag == "select":
			return e.cycle(field, 1)
		case isToggle(field):
			return e.toggle(field)
		}
		e.editing = true
		e.input.SetValue(field.Value)
		e.input.CursorEnd()
		cmd = e.input.Focus()
		return e, nil, cmd
	}
	return e, nil, nil
}

func (e formEditor) cycle(field *page.Field, step int) (formEditor, *page.Field, tea.Cmd) {
	if field.Tag != "select" || len(field.Options) == 0 {
		return e, nil, nil
	}
	current := 0
	for i, opt := range field.Options {
		if opt.Value == field.Value {
			current = i
			break
		}
	}
	n := len(field.Options)
	next := field.Options[(current+step+n)%n]
	if err := e.form.Set(field.Name, next.Value); err != nil {
		e.err = err.Error()
		return e, nil, nil
	}
	return e, field, nil
}

func (e formEditor) toggle(field *page.Field) (formEditor, *page.Field, tea.Cmd) {
	value := "on"
	if field.Checked {
		value = ""
	}
	if err := e.form.Set(field.Name, value); err != nil {
		e.err = err.Error()
		return e, nil, nil
	}
	return e, field, nil
}

func isToggle(field *page.Field) bool {
	return field.Type == "checkbox" || field.Type == "radio"
}

func fieldLabel(field *page.Field) string {
	label := strings.TrimSuffix(strings.TrimSpace(field.Label), ":")
	switch {
	case label != "":
		return label
	case field.Name != "":
		return strings.ReplaceAll(field.Name, "_", " ")
	default:
		return field.ID
	}
}

func fieldDisplay(field *page.Field) string {
	switch {
	case isToggle(field):
		if field.Checked {
			return "[x]"
		}
		return "[ ]"
	case field.Tag == "select":
		text := field.Value
		for _, opt := range field.Options {
			if opt.Value == field.Value && opt.Text != "" {
				text = opt.Text
				break
			}
		}
		return "‹ " + text + " ›"
	case field.Type == "password":
		return strings.Repeat("•", len(field.Value))
	default:
		return field.Value
	}
}

func (e formEditor) view(width int, focused bool) string {
	fields := e.fields()
	if len(fields) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Render("no fields")
	}

	labelWidth := 0
	for _, f := range fields {
		labelWidth = max(labelWidth, lipgloss.Width(fieldLabel(f)))
	}
	labelWidth = min(labelWidth, max(8, width/2))

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Width(labelWidth)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)

	lines := make([]string, 0, len(fields)+1)
	for i, f := range fields {
		prefix := "  "
		value := valueStyle.Render(fieldDisplay(f))
		if i == e.cursor && focused {
			prefix = cursorStyle.Render("› ")
			if e.editing {
				input := e.input
				input.Width = max(8, width-labelWidth-6)
				value = input.View()
			} else {
				value = cursorStyle.Render(fieldDisplay(f))
			}
		}
		lines = append(lines, fmt.Sprintf("%s%s  %s", prefix, labelStyle.Render(fieldLabel(f)), value))
	}
	if e.err != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render(e.err))
	}
	return strings.Join(lines, "\n")
}
