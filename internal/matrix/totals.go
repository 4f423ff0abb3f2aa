package matrix

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Element ids of the four total displays on a renter page.
const (
	TotalPaidID      = "total_paid"
	ExpectedTotalID  = "expected_total"
	ExpectedUnpaidID = "expected_unpaid"
	BalanceID        = "balance"
)

// Totals are the running amounts shown next to the matrix. A nil field has
// no known value.
type Totals struct {
	TotalPaid      *decimal.Decimal
	ExpectedTotal  *decimal.Decimal
	ExpectedUnpaid *decimal.Decimal
	Balance        *decimal.Decimal
}

// Apply copies the fields present in update and returns the ids of the
// displays that changed. Absent fields leave the current values alone.
func (t *Totals) Apply(update Totals) []string {
	var changed []string
	set := func(dst **decimal.Decimal, src *decimal.Decimal, id string) {
		if src == nil {
			return
		}
		v := *src
		*dst = &v
		changed = append(changed, id)
	}
	set(&t.TotalPaid, update.TotalPaid, TotalPaidID)
	set(&t.ExpectedTotal, update.ExpectedTotal, ExpectedTotalID)
	set(&t.ExpectedUnpaid, update.ExpectedUnpaid, ExpectedUnpaidID)
	set(&t.Balance, update.Balance, BalanceID)
	return changed
}

// Display returns the formatted text of each known total keyed by id.
func (t Totals) Display() map[string]string {
	out := map[string]string{}
	for id, v := range t.byID() {
		if v != nil {
			out[id] = FormatMoney(*v)
		}
	}
	return out
}

// Get returns a total by display id.
func (t Totals) Get(id string) (*decimal.Decimal, bool) {
	v, ok := t.byID()[id]
	return v, ok && v != nil
}

func (t Totals) byID() map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		TotalPaidID:      t.TotalPaid,
		ExpectedTotalID:  t.ExpectedTotal,
		ExpectedUnpaidID: t.ExpectedUnpaid,
		BalanceID:        t.Balance,
	}
}

// TotalsFromText reads the totals a page rendered, keyed by element id.
// Unparseable texts are skipped.
func TotalsFromText(text map[string]string) Totals {
	var t Totals
	read := func(id string) *decimal.Decimal {
		raw, ok := text[id]
		if !ok {
			return nil
		}
		v, err := ParseMoney(raw)
		if err != nil {
			return nil
		}
		return &v
	}
	t.TotalPaid = read(TotalPaidID)
	t.ExpectedTotal = read(ExpectedTotalID)
	t.ExpectedUnpaid = read(ExpectedUnpaidID)
	t.Balance = read(BalanceID)
	return t
}

// FormatMoney renders an amount as "$1234.50".
func FormatMoney(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

// ParseMoney accepts "$1,234.50", "-$3", "$-3.00" and bare numbers.
func ParseMoney(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if negative {
		v = v.Neg()
	}
	return v, nil
}
