package matrix

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true).Padding(0, 1)
	monthStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	paidStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Padding(0, 1).Align(lipgloss.Center)
	unpaidStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C7C7C")).Padding(0, 1).Align(lipgloss.Center)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Padding(0, 1).Align(lipgloss.Center)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	negativeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
)

// Render draws the matrix as a month × year grid. Cells listed in
// highlight are drawn in the accent colour.
func Render(m *Matrix, highlight []Period) string {
	years := m.Years()
	headers := make([]string, 0, len(years)+1)
	headers = append(headers, "Month")
	for _, y := range years {
		headers = append(headers, strconv.Itoa(y))
	}

	marked := make(map[Period]bool, len(highlight))
	for _, p := range highlight {
		marked[p] = true
	}

	rows := make([][]string, 0, 12)
	for month := time.January; month <= time.December; month++ {
		row := []string{MonthName(month)}
		for _, y := range years {
			paid, ok := m.Paid(y, month)
			switch {
			case !ok:
				row = append(row, "")
			case paid:
				row = append(row, PaidMarker)
			default:
				row = append(row, UnpaidMarker)
			}
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6CBFE6"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return monthStyle
			}
			p := Period{Year: years[col-1], Month: time.Month(row + 1)}
			if marked[p] {
				return highlightStyle
			}
			if paid, _ := m.Paid(p.Year, p.Month); paid {
				return paidStyle
			}
			return unpaidStyle
		})
	return t.Render()
}

// RenderTotals draws the known totals one per line in page order.
func RenderTotals(t Totals) string {
	labels := []struct {
		id    string
		label string
	}{
		{TotalPaidID, "Total paid"},
		{ExpectedTotalID, "Expected total"},
		{ExpectedUnpaidID, "Expected unpaid"},
		{BalanceID, "Balance"},
	}

	lines := make([]string, 0, len(labels))
	for _, l := range labels {
		v, ok := t.Get(l.id)
		if !ok {
			lines = append(lines, labelStyle.Render(l.label+":")+" -")
			continue
		}
		text := FormatMoney(*v)
		if v.IsNegative() {
			text = negativeStyle.Render(text)
		}
		lines = append(lines, labelStyle.Render(l.label+":")+" "+text)
	}
	return strings.Join(lines, "\n")
}
