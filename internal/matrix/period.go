package matrix

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Period is one month of one year.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod reads "YYYY-MM" (month may be one digit) or a bare "YYYY",
// which yields January of that year.
func ParsePeriod(raw string) (Period, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Period{}, fmt.Errorf("empty period")
	}

	yearPart, monthPart, hasMonth := strings.Cut(raw, "-")
	year, err := ParseYear(yearPart)
	if err != nil {
		return Period{}, err
	}
	if !hasMonth {
		return Period{Year: year, Month: time.January}, nil
	}

	// Tolerate a trailing day: "2024-03-01".
	monthPart, _, _ = strings.Cut(monthPart, "-")
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month in period %q", raw)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// ParseYear reads a four-digit year.
func ParseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1000 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

// MonthName returns the English month name used as the matrix row key.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// monthFromName accepts full or three-letter English month names.
func monthFromName(raw string) (time.Month, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return 0, false
	}
	for i, name := range monthNames {
		lower := strings.ToLower(name)
		if raw == lower || (len(raw) == 3 && strings.HasPrefix(lower, raw)) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}
