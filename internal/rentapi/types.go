package rentapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LoginRequest is the body of POST /login-jwt/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}

// FormResponse is the reply of a generic form endpoint.
type FormResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// PaymentType selects which period field a payment carries.
type PaymentType string

const (
	PaymentMonthly PaymentType = "monthly"
	PaymentYearly  PaymentType = "yearly"
)

// PaymentRequest is the body of POST /add_payment/<renter>/. Exactly one of
// YearMonthCovered and YearCovered is set, chosen by PaymentType.
type PaymentRequest struct {
	Amount           string      `json:"amount"`
	PaymentType      PaymentType `json:"payment_type"`
	YearMonthCovered *string     `json:"year_month_covered,omitempty"`
	YearCovered      *string     `json:"year_covered,omitempty"`
}

// PaymentResponse is the reply of the payment endpoint. Every field is
// optional; absent totals stay nil.
type PaymentResponse struct {
	Success        bool             `json:"success"`
	Month          string           `json:"month,omitempty"`
	PaymentType    PaymentType      `json:"payment_type,omitempty"`
	TotalPaid      *decimal.Decimal `json:"total_paid,omitempty"`
	ExpectedTotal  *decimal.Decimal `json:"expected_total,omitempty"`
	ExpectedUnpaid *decimal.Decimal `json:"expected_unpaid,omitempty"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
}

// ExpectedResponse is the reply of GET /api/expected/.
type ExpectedResponse struct {
	MonthsCount   FlexInt         `json:"months_count"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*n = FlexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", raw, err)
	}
	*n = FlexInt(int(f))
	return nil
}

// UnmarshalJSON accepts a message string, a list of strings, or a list of
// {"message": ...} objects per field.
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(FieldErrors, len(raw))
	for field, value := range raw {
		msgs, err := decodeFieldMessages(value)
		if err != nil {
			return fmt.Errorf("decode errors for %q: %w", field, err)
		}
		out[field] = msgs
	}
	*f = out
	return nil
}

func decodeFieldMessages(value json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		return []string{single}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, err
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			msgs = append(msgs, s)
			continue
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, err
		}
		msgs = append(msgs, obj.Message)
	}
	return msgs, nil
}

// errorBody is the shape shared by error replies across endpoints.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Errors FieldErrors     `json:"errors"`
}

// message flattens "error" which the server sends either as a string or as
// arbitrary JSON.
func (b errorBody) message() string {
	if len(b.Error) == 0 || string(b.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Error, &s); err == nil {
		return s
	}
	return string(b.Error)
}
