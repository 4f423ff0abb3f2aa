package forms

import (
	"strings"
	"time"

	"github.com/lachiem1/rentdesk/internal/matrix"
)

// Locations the handlers send the user to.
const (
	LoginPage   = "/login-page/"
	LandingPage = "/floors/"
)

// User-facing texts.
const (
	msgLoginRequired  = "You must log in first!"
	msgLoginFailed    = "Login failed!"
	msgLoginEmpty     = "Please enter your username and password."
	msgUnauthorized   = "Unauthorized! Please log in again."
	msgSubmitFailed   = "Form submission failed!"
	msgValidation     = "Validation errors:"
	msgAmountRequired = "Please fill in the amount!"
	msgPaymentSaved   = "Payment saved successfully!"
	msgPaymentFailed  = "Payment failed"
	msgPreviewFailed  = "Could not calculate expected payments"
	msgPreviewError   = "Error calculating expected payments"
	msgBusy           = "A submission for this form is already in progress."
)

// Outcome is what a handler asks the UI to do. Fields combine: a 401 both
// alerts and navigates. The zero Outcome asks for nothing.
type Outcome struct {
	// Alert is a blocking message shown before anything else.
	Alert string
	// Navigate is a server path to load next.
	Navigate string
	// Reload asks for the current page to be fetched again, discarding any
	// in-memory state derived from it.
	Reload bool
	// Native means the handler did not intercept; the caller submits the
	// form the way a browser would.
	Native bool
	// Inline is text for the handler's own display element.
	Inline string
	// Banner is a transient message removed after BannerTTL.
	Banner    string
	BannerTTL time.Duration
	// Cells and Totals list what a payment changed in place.
	Cells  []matrix.Period
	Totals []string
	// Busy is set when an identical submission was still in flight.
	Busy bool
}

// Empty reports whether the outcome asks for nothing.
func (o Outcome) Empty() bool {
	return o.Alert == "" && o.Navigate == "" && !o.Reload && !o.Native &&
		o.Inline == "" && o.Banner == "" && len(o.Cells) == 0 &&
		len(o.Totals) == 0 && !o.Busy
}

// Summary renders the outcome as plain lines for the command line.
func (o Outcome) Summary() string {
	var lines []string
	if o.Busy {
		lines = append(lines, msgBusy)
	}
	if o.Alert != "" {
		lines = append(lines, o.Alert)
	}
	if o.Banner != "" {
		lines = append(lines, o.Banner)
	}
	if o.Inline != "" {
		lines = append(lines, o.Inline)
	}
	if o.Reload {
		lines = append(lines, "Saved.")
	}
	if o.Navigate != "" {
		lines = append(lines, "-> "+o.Navigate)
	}
	return strings.Join(lines, "\n")
}

func alert(msg string) Outcome {
	return Outcome{Alert: msg}
}

func unauthorized() Outcome {
	return Outcome{Alert: msgUnauthorized, Navigate: LoginPage}
}

func networkFailure(err error) Outcome {
	return Outcome{Alert: "Network error: " + cause(err)}
}
