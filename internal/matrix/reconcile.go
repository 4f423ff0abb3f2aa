package matrix

import "time"

// Payment types as sent by the payment form.
const (
	TypeMonthly = "monthly"
	TypeYearly  = "yearly"
)

// Submitted is what the client posted.
type Submitted struct {
	PaymentType      string
	YearMonthCovered string
	YearCovered      string
}

// Echoed is what the server reported it stored.
type Echoed struct {
	Month       string
	PaymentType string
}

// Reconcile marks the cells covered by a successful payment and returns
// them. The server's echoed period wins over the submitted one; the
// submitted values are used only when the server echoed no month.
func (m *Matrix) Reconcile(sent Submitted, echoed Echoed) []Period {
	paymentType := echoed.PaymentType
	if paymentType == "" {
		paymentType = sent.PaymentType
	}

	if echoed.Month != "" {
		p, err := ParsePeriod(echoed.Month)
		if err != nil {
			return nil
		}
		switch paymentType {
		case TypeMonthly:
			return m.markMonth(p)
		case TypeYearly:
			return m.markYear(p.Year)
		}
		return nil
	}

	switch {
	case sent.PaymentType == TypeMonthly && sent.YearMonthCovered != "":
		p, err := ParsePeriod(sent.YearMonthCovered)
		if err != nil {
			return nil
		}
		return m.markMonth(p)
	case sent.PaymentType == TypeYearly && sent.YearCovered != "":
		year, err := ParseYear(sent.YearCovered)
		if err != nil {
			return nil
		}
		return m.markYear(year)
	}
	return nil
}

func (m *Matrix) markMonth(p Period) []Period {
	if !m.MarkMonth(p.Year, p.Month) {
		return nil
	}
	return []Period{p}
}

func (m *Matrix) markYear(year int) []Period {
	var out []Period
	for month := time.January; month <= time.December; month++ {
		p := Period{Year: year, Month: month}
		if m.MarkMonth(year, month) {
			out = append(out, p)
		}
	}
	return out
}
