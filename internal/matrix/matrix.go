package matrix

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/lachiem1/rentdesk/internal/page"
)

// Matrix is the paid/unpaid state per (year, month). Only cells that exist
// can be marked; the set of years is fixed at construction.
type Matrix struct {
	years []int
	paid  map[Period]bool
}

// New returns a matrix with all twelve months of each year unpaid.
func New(years ...int) *Matrix {
	m := &Matrix{paid: map[Period]bool{}}
	for _, year := range years {
		m.addYear(year)
	}
	return m
}

// FromTable builds a matrix from a payment-matrix table. Header cells after
// the first that name a year become columns and body rows that start with a
// month name become rows; other headers and rows, such as totals, are
// skipped.
func FromTable(t *page.Table) (*Matrix, error) {
	if t == nil {
		return nil, fmt.Errorf("no payment matrix table")
	}
	if len(t.Headers) < 1 {
		return nil, fmt.Errorf("payment matrix has no header row")
	}

	m := &Matrix{paid: map[Period]bool{}}
	// columns maps a row cell index to its year.
	columns := map[int]int{}
	for i, header := range t.Headers[1:] {
		year, err := ParseYear(header)
		if err != nil {
			continue
		}
		if slices.Contains(m.years, year) {
			continue
		}
		columns[i+1] = year
		m.years = append(m.years, year)
	}

	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		month, ok := monthFromName(row[0])
		if !ok {
			continue
		}
		for index, year := range columns {
			var text string
			if index < len(row) {
				text = row[index]
			}
			m.paid[Period{Year: year, Month: month}] = isPaidMarker(text)
		}
	}
	return m, nil
}

// Years returns the column years in display order.
func (m *Matrix) Years() []int {
	return append([]int(nil), m.years...)
}

// Paid reports the state of a cell and whether the cell exists.
func (m *Matrix) Paid(year int, month time.Month) (paid bool, ok bool) {
	paid, ok = m.paid[Period{Year: year, Month: month}]
	return paid, ok
}

// MarkMonth marks one cell paid. It returns false when the cell does not
// exist.
func (m *Matrix) MarkMonth(year int, month time.Month) bool {
	p := Period{Year: year, Month: month}
	if _, ok := m.paid[p]; !ok {
		return false
	}
	m.paid[p] = true
	return true
}

// MarkYear marks every existing month of year paid and returns how many
// cells it touched.
func (m *Matrix) MarkYear(year int) int {
	n := 0
	for month := time.January; month <= time.December; month++ {
		if m.MarkMonth(year, month) {
			n++
		}
	}
	return n
}

// Set forces a cell's state, adding the year column if needed. Used when
// restoring a cached snapshot.
func (m *Matrix) Set(p Period, paid bool) {
	if _, ok := m.paid[p]; !ok {
		m.addYear(p.Year)
	}
	m.paid[p] = paid
}

// Each visits every cell ordered by year then month.
func (m *Matrix) Each(fn func(p Period, paid bool)) {
	for _, year := range m.years {
		for month := time.January; month <= time.December; month++ {
			p := Period{Year: year, Month: month}
			if paid, ok := m.paid[p]; ok {
				fn(p, paid)
			}
		}
	}
}

// Unpaid lists unpaid cells from from through to, inclusive.
func (m *Matrix) Unpaid(from, to Period) []Period {
	out := []Period{}
	m.Each(func(p Period, paid bool) {
		if paid || before(p, from) || before(to, p) {
			return
		}
		out = append(out, p)
	})
	return out
}

// Missed lists unpaid months from the first column through the month of now.
func (m *Matrix) Missed(now time.Time) []Period {
	years := m.Years()
	if len(years) == 0 {
		return []Period{}
	}
	return m.Unpaid(Period{Year: slices.Min(years), Month: time.January}, Period{Year: now.Year(), Month: now.Month()})
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{years: m.Years(), paid: make(map[Period]bool, len(m.paid))}
	for k, v := range m.paid {
		out.paid[k] = v
	}
	return out
}

func (m *Matrix) addYear(year int) {
	for _, y := range m.years {
		if y == year {
			return
		}
	}
	m.years = append(m.years, year)
	sort.Ints(m.years)
	for month := time.January; month <= time.December; month++ {
		p := Period{Year: year, Month: month}
		if _, ok := m.paid[p]; !ok {
			m.paid[p] = false
		}
	}
}

func before(a, b Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// PaidMarker and UnpaidMarker are the cell texts the server renders.
const (
	PaidMarker   = "✅"
	UnpaidMarker = "❌"
)

func isPaidMarker(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case PaidMarker, "✔", "✔️", "paid", "true", "yes":
		return true
	default:
		return false
	}
}
