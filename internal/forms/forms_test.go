package forms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
)

const renterPage = `<html><body>
<span id="total_paid">$100.00</span>
<span id="expected_total">$300.00</span>
<span id="expected_unpaid">$200.00</span>
<span id="balance">$-200.00</span>
<table class="payment-matrix">
<thead><tr><th>Month</th><th>2023</th><th>2024</th></tr></thead>
<tbody>
<tr><td>January</td><td>✅</td><td>❌</td></tr>
<tr><td>February</td><td>❌</td><td>❌</td></tr>
<tr><td>March</td><td>❌</td><td>❌</td></tr>
<tr><td>April</td><td>❌</td><td>❌</td></tr>
<tr><td>May</td><td>❌</td><td>❌</td></tr>
<tr><td>June</td><td>❌</td><td>❌</td></tr>
<tr><td>July</td><td>❌</td><td>❌</td></tr>
<tr><td>August</td><td>❌</td><td>❌</td></tr>
<tr><td>September</td><td>❌</td><td>❌</td></tr>
<tr><td>October</td><td>❌</td><td>❌</td></tr>
<tr><td>November</td><td>❌</td><td>❌</td></tr>
<tr><td>December</td><td>❌</td><td>❌</td></tr>
</tbody>
</table>
<form method="post" action="/add_payment/4/">
<input type="number" name="amount">
<select name="payment_type"><option value="monthly" selected>Monthly</option><option value="yearly">Yearly</option></select>
<input type="month" name="year_month_covered">
<input type="number" name="year_covered">
</form>
<form method="post" action="/logout/" class="native-submit"><input type="hidden" name="next" value="/login-page/"></form>
<form method="post"><input type="hidden" name="ac" value="add_floor"><input type="number" name="number" value="3"></form>
<form method="post" action="/main-page/">
<select name="apartment" id="apartment_select"><option value="">--</option><option value="12">12</option></select>
<input type="date" name="start_date" id="renter_start_date">
<p id="expected_info"></p>
</form>
</body></html>`

type fakeSession struct {
	token   string
	expired bool
	cleared int
}

func (s *fakeSession) Token() (string, error) {
	if s.token == "" {
		return "", session.ErrNoToken
	}
	return s.token, nil
}

func (s *fakeSession) Active() (string, error) {
	if s.expired {
		s.token = ""
		return "", session.ErrExpired
	}
	return s.Token()
}

func (s *fakeSession) SetToken(token string) error {
	s.token = token
	return nil
}

func (s *fakeSession) ClearToken() error {
	s.token = ""
	s.cleared++
	return nil
}

type memoryPreferences map[string]string

func (m memoryPreferences) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memoryPreferences) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

type recorded struct {
	method      string
	path        string
	query       string
	contentType string
	auth        string
	body        []byte
}

// backend serves reply for every request and records what it saw.
func backend(t *testing.T, reply http.HandlerFunc) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	seen := []recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, recorded{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        body,
		})
		reply(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newHandler(t *testing.T, srv *httptest.Server, sess *fakeSession) *Handler {
	t.Helper()
	client := rentapi.New(srv.URL, sess)
	return New(client, sess, Config{BannerTTL: time.Second, Preferences: memoryPreferences{}})
}

func renterDocument(t *testing.T) *page.Document {
	t.Helper()
	doc, err := page.ParseBytes("/renter/4/", []byte(renterPage))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func paymentForm(t *testing.T, doc *page.Document) *page.Form {
	t.Helper()
	form, ok := doc.FormByActionPrefix(rentapi.PaymentPathPrefix)
	if !ok {
		t.Fatal("payment form not found")
	}
	return form
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name string
		sess *fakeSession
		want Outcome
	}{
		{name: "live token", sess: &fakeSession{token: "t"}, want: Outcome{}},
		{name: "missing token", sess: &fakeSession{}, want: Outcome{Alert: msgLoginRequired, Navigate: LoginPage}},
		{name: "expired token", sess: &fakeSession{token: "t", expired: true}, want: Outcome{Alert: msgLoginRequired, Navigate: LoginPage}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(rentapi.New("http://127.0.0.1:1", tc.sess), tc.sess, Config{})
			if got := h.Guard(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Guard() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLoginStoresTokenAndRemembersUsername(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":"jwt-abc"}`)
	})
	sess := &fakeSession{}
	prefs := memoryPreferences{}
	h := New(rentapi.New(srv.URL, sess), sess, Config{Preferences: prefs})

	got := h.Login(context.Background(), " simple ", "pw")
	if got.Navigate != LandingPage || got.Inline != "" {
		t.Fatalf("Login() = %+v", got)
	}
	if sess.token != "jwt-abc" {
		t.Fatalf("stored token = %q", sess.token)
	}
	if h.LastUsername(context.Background()) != "simple" {
		t.Fatalf("LastUsername() = %q", h.LastUsername(context.Background()))
	}
	if len(*seen) != 1 || (*seen)[0].path != "/login-jwt/" {
		t.Fatalf("requests = %+v", *seen)
	}
}

func TestLoginShowsServerError(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid credentials"}`)
	})
	sess := &fakeSession{}
	h := newHandler(t, srv, sess)

	got := h.Login(context.Background(), "simple", "wrong")
	if got.Inline != "Invalid credentials" || got.Navigate != "" {
		t.Fatalf("Login() = %+v", got)
	}
	if sess.token != "" {
		t.Fatal("token stored after failed login")
	}
}

func TestLoginEmptyCredentialsSendNothing(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":"x"}`)
	})
	h := newHandler(t, srv, &fakeSession{})

	if got := h.Login(context.Background(), "", "pw"); got.Inline != msgLoginEmpty {
		t.Fatalf("Login() = %+v", got)
	}
	if len(*seen) != 0 {
		t.Fatalf("requests = %d, want 0", len(*seen))
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {})
	sess := &fakeSession{}
	h := newHandler(t, srv, sess)
	srv.Close()

	if got := h.Login(context.Background(), "simple", "pw"); got.Inline != msgLoginFailed {
		t.Fatalf("Login() = %+v", got)
	}
}

func TestInterceptsSkipsPaymentAndOptOut(t *testing.T) {
	doc := renterDocument(t)
	h := New(rentapi.New("", nil), &fakeSession{}, Config{})

	var intercepted []string
	for _, form := range doc.Forms {
		if h.Intercepts(form) {
			intercepted = append(intercepted, form.Title())
		}
	}
	want := []string{"add floor", "/main-page/"}
	if !reflect.DeepEqual(intercepted, want) {
		t.Fatalf("intercepted = %v, want %v", intercepted, want)
	}
}

func TestSubmitFormSuccessReloads(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	doc := renterDocument(t)

	got := h.Submit(context.Background(), doc, doc.Forms[2], nil)
	if !reflect.DeepEqual(got, Outcome{Reload: true}) {
		t.Fatalf("Submit() = %+v, want reload only", got)
	}
	req := (*seen)[0]
	if req.path != "/renter/4/" {
		t.Fatalf("path = %q, want the page URL for an empty action", req.path)
	}
	if req.auth != "Bearer tok" {
		t.Fatalf("Authorization = %q", req.auth)
	}
	if !strings.HasPrefix(req.contentType, "multipart/form-data") {
		t.Fatalf("Content-Type = %q", req.contentType)
	}
	if !strings.Contains(string(req.body), "add_floor") {
		t.Fatalf("body missing ac field: %s", req.body)
	}
}

func TestUnauthorizedClearsTokenOnEveryForm(t *testing.T) {
	bodies := []string{`{"error":"bad token"}`, `{"errors":{"number":["taken"]}}`, `not json`}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, body)
			})
			sess := &fakeSession{token: "tok"}
			h := newHandler(t, srv, sess)
			doc := renterDocument(t)
			ledger, err := LedgerFromDocument(doc)
			if err != nil {
				t.Fatalf("LedgerFromDocument() error: %v", err)
			}

			form := paymentForm(t, doc)
			_ = form.Set("amount", "100")
			for _, f := range []*page.Form{doc.Forms[2], form} {
				sess.token = "tok"
				got := h.Submit(context.Background(), doc, f, ledger)
				if got.Alert != msgUnauthorized || got.Navigate != LoginPage {
					t.Fatalf("Submit(%s) = %+v", f.Title(), got)
				}
				if sess.token != "" {
					t.Fatalf("token not cleared after 401 on %s", f.Title())
				}
			}
		})
	}
}

func TestSubmitFormErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{
			name:        "field errors",
			contentType: "application/json",
			body:        `{"errors":{"number":["This field is required."],"floor":"Invalid"}}`,
			want:        "Validation errors:\n\nfloor: Invalid\nnumber: This field is required.",
		},
		{
			name:        "error string",
			contentType: "application/json",
			body:        `{"error":"Floor exists"}`,
			want:        "Error: Floor exists",
		},
		{
			name:        "empty json",
			contentType: "application/json",
			body:        `{}`,
			want:        "Error: Form submission failed!",
		},
		{
			name:        "html page",
			contentType: "text/html; charset=utf-8",
			body:        "<h1>Server Error (500)</h1>",
			want:        "<h1>Server Error (500)</h1>",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tc.body)
			})
			h := newHandler(t, srv, &fakeSession{token: "tok"})
			doc := renterDocument(t)

			got := h.SubmitForm(context.Background(), doc, doc.Forms[2])
			if got.Alert != tc.want || got.Reload {
				t.Fatalf("SubmitForm() = %+v, want alert %q", got, tc.want)
			}
		})
	}
}

func TestSubmitFormNetworkFailure(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	srv.Close()
	doc := renterDocument(t)

	got := h.SubmitForm(context.Background(), doc, doc.Forms[2])
	if !strings.HasPrefix(got.Alert, "Network error: ") {
		t.Fatalf("SubmitForm() = %+v", got)
	}
}

func TestOptOutFormSubmitsNatively(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	doc := renterDocument(t)

	got := h.Submit(context.Background(), doc, doc.Forms[1], nil)
	if !got.Reload {
		t.Fatalf("Submit() = %+v", got)
	}
	req := (*seen)[0]
	if req.auth != "" {
		t.Fatalf("native submit sent Authorization %q", req.auth)
	}
	if req.contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %q", req.contentType)
	}
}

func TestPayWithoutTokenIsNotIntercepted(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	h := newHandler(t, srv, &fakeSession{})
	doc := renterDocument(t)
	form := paymentForm(t, doc)
	_ = form.Set("amount", "100")

	got := h.Pay(context.Background(), form, nil)
	if !reflect.DeepEqual(got, Outcome{Native: true}) {
		t.Fatalf("Pay() = %+v, want native", got)
	}
	if len(*seen) != 0 {
		t.Fatalf("requests = %d, want 0", len(*seen))
	}
}

func TestPayMonthlyWithoutAmountSendsNothing(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	form := paymentForm(t, renterDocument(t))
	_ = form.Set("year_month_covered", "2024-03")

	got := h.Pay(context.Background(), form, nil)
	if got.Alert != msgAmountRequired {
		t.Fatalf("Pay() = %+v", got)
	}
	if len(*seen) != 0 {
		t.Fatalf("requests = %d, want 0", len(*seen))
	}
}

func TestPayMonthlyPatchesOneCell(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"month":"2024-03","payment_type":"monthly","total_paid":"250.5","balance":"-49.50"}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	doc := renterDocument(t)
	ledger, err := LedgerFromDocument(doc)
	if err != nil {
		t.Fatalf("LedgerFromDocument() error: %v", err)
	}
	before := ledger.Matrix.Clone()
	form := paymentForm(t, doc)
	_ = form.Set("amount", "150.50")
	_ = form.Set("year_month_covered", "2024-02")

	got := h.Pay(context.Background(), form, ledger)
	if got.Banner != msgPaymentSaved || got.BannerTTL != time.Second || got.Alert != "" {
		t.Fatalf("Pay() = %+v", got)
	}

	var payload map[string]any
	if err := json.Unmarshal((*seen)[0].body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	wantPayload := map[string]any{"amount": "150.50", "payment_type": "monthly", "year_month_covered": "2024-02"}
	if !reflect.DeepEqual(payload, wantPayload) {
		t.Fatalf("payload = %v, want %v", payload, wantPayload)
	}
	if (*seen)[0].auth != "Bearer tok" {
		t.Fatalf("Authorization = %q", (*seen)[0].auth)
	}

	march := matrix.Period{Year: 2024, Month: time.March}
	if !reflect.DeepEqual(got.Cells, []matrix.Period{march}) {
		t.Fatalf("Cells = %v", got.Cells)
	}
	before.Each(func(p matrix.Period, paid bool) {
		now, _ := ledger.Matrix.Paid(p.Year, p.Month)
		if p == march {
			if !now {
				t.Fatal("March 2024 not marked paid")
			}
			return
		}
		if now != paid {
			t.Fatalf("cell %s changed", p)
		}
	})

	if !reflect.DeepEqual(got.Totals, []string{matrix.TotalPaidID, matrix.BalanceID}) {
		t.Fatalf("Totals = %v", got.Totals)
	}
	display := ledger.Totals.Display()
	if display[matrix.TotalPaidID] != "$250.50" || display[matrix.BalanceID] != "$-49.50" {
		t.Fatalf("display = %v", display)
	}
	if display[matrix.ExpectedTotalID] != "$300.00" || display[matrix.ExpectedUnpaidID] != "$200.00" {
		t.Fatalf("absent totals changed: %v", display)
	}
	if form.Get("amount") != "" || form.Get("year_month_covered") != "" {
		t.Fatal("form not reset after success")
	}
}

func TestPayYearlyMarksWholeYear(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"month":"2024-01","payment_type":"yearly"}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	doc := renterDocument(t)
	ledger, _ := LedgerFromDocument(doc)
	form := paymentForm(t, doc)
	_ = form.Set("payment_type", "yearly")
	_ = form.Set("year_covered", "2024")

	got := h.Pay(context.Background(), form, ledger)
	if len(got.Cells) != 12 {
		t.Fatalf("Cells = %v, want 12", got.Cells)
	}
	for month := time.January; month <= time.December; month++ {
		if paid, _ := ledger.Matrix.Paid(2024, month); !paid {
			t.Fatalf("2024 %s not paid", month)
		}
	}
	if len(got.Totals) != 0 {
		t.Fatalf("Totals = %v, want none", got.Totals)
	}

	var payload map[string]any
	_ = json.Unmarshal((*seen)[0].body, &payload)
	if _, ok := payload["year_month_covered"]; ok {
		t.Fatalf("yearly payload carries year_month_covered: %v", payload)
	}
	if payload["year_covered"] != "2024" || payload["amount"] != "" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestPayUnreadableSuccessFallsBackToSentPeriod(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<p>saved</p>")
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})
	doc := renterDocument(t)
	ledger, err := LedgerFromDocument(doc)
	if err != nil {
		t.Fatalf("LedgerFromDocument() error: %v", err)
	}
	form := paymentForm(t, doc)
	_ = form.Set("amount", "100")
	_ = form.Set("year_month_covered", "2024-03")

	got := h.Pay(context.Background(), form, ledger)
	if got.Alert != "" || got.Banner != msgPaymentSaved {
		t.Fatalf("Pay() = %+v, want success banner", got)
	}
	march := matrix.Period{Year: 2024, Month: time.March}
	if !reflect.DeepEqual(got.Cells, []matrix.Period{march}) {
		t.Fatalf("Cells = %v, want [%s]", got.Cells, march)
	}
	if len(got.Totals) != 0 {
		t.Fatalf("Totals = %v, want none", got.Totals)
	}
	if form.Get("amount") != "" {
		t.Fatal("form not reset after success")
	}
}

func TestPayServerError(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"error":"Amount must be positive"}`, want: "Error: Amount must be positive"},
		{body: `{}`, want: "Error: Payment failed"},
	}
	for _, tc := range tests {
		srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, tc.body)
		})
		h := newHandler(t, srv, &fakeSession{token: "tok"})
		form := paymentForm(t, renterDocument(t))
		_ = form.Set("amount", "-1")

		if got := h.Pay(context.Background(), form, nil); got.Alert != tc.want {
			t.Fatalf("Pay() = %+v, want %q", got, tc.want)
		}
		if form.Get("amount") != "-1" {
			t.Fatal("form reset after a failed payment")
		}
	}
}

func TestPayBusyWhileInFlight(t *testing.T) {
	h := New(rentapi.New("", nil), &fakeSession{token: "tok"}, Config{})
	release, ok := h.inflight.acquire("/add_payment/4/")
	if !ok {
		t.Fatal("first acquire refused")
	}
	defer release()

	form := paymentForm(t, renterDocument(t))
	_ = form.Set("amount", "10")
	if got := h.Pay(context.Background(), form, nil); !got.Busy {
		t.Fatalf("Pay() = %+v, want busy", got)
	}
}

func TestInflightReleases(t *testing.T) {
	f := newInflight()
	release, ok := f.acquire("a")
	if !ok {
		t.Fatal("acquire refused")
	}
	if _, ok := f.acquire("a"); ok {
		t.Fatal("second acquire of the same key allowed")
	}
	if _, ok := f.acquire("b"); !ok {
		t.Fatal("acquire of another key refused")
	}
	release()
	if _, ok := f.acquire("a"); !ok {
		t.Fatal("acquire after release refused")
	}
}

func TestPreviewSkipsIncompleteInput(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"months_count":3,"expected_total":"300"}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})

	for _, in := range [][2]string{{"", "2024-01-01"}, {"12", ""}, {" ", " "}} {
		if got := h.Preview(context.Background(), in[0], in[1]); got != "" {
			t.Fatalf("Preview(%q, %q) = %q, want empty", in[0], in[1], got)
		}
	}
	if len(*seen) != 0 {
		t.Fatalf("requests = %d, want 0", len(*seen))
	}
}

func TestPreview(t *testing.T) {
	srv, seen := backend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apartment") == "missing" {
			writeJSON(w, http.StatusNotFound, `{"error":"no apartment"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"months_count":"3","expected_total":1200}`)
	})
	h := newHandler(t, srv, &fakeSession{token: "tok"})

	got := h.Preview(context.Background(), "12", "2024-01-01")
	if got != "Expected months: 3, Expected total: $1200.00" {
		t.Fatalf("Preview() = %q", got)
	}
	if (*seen)[0].path != rentapi.ExpectedPath || (*seen)[0].query != "apartment=12&start_date=2024-01-01" {
		t.Fatalf("request = %+v", (*seen)[0])
	}
	if got := h.Preview(context.Background(), "missing", "2024-01-01"); got != msgPreviewFailed {
		t.Fatalf("Preview() on 404 = %q", got)
	}
}

func TestPreviewInputs(t *testing.T) {
	doc := renterDocument(t)
	form, _, _ := doc.Field(ApartmentID)
	_ = form.Set("apartment", "12")
	_ = form.Set("start_date", "2024-02-01")

	apartment, start, ok := PreviewInputs(doc)
	if !ok || apartment != "12" || start != "2024-02-01" {
		t.Fatalf("PreviewInputs() = (%q, %q, %v)", apartment, start, ok)
	}
}

func TestOutcomeSummary(t *testing.T) {
	out := Outcome{Alert: msgUnauthorized, Navigate: LoginPage}
	if got := out.Summary(); got != msgUnauthorized+"\n-> "+LoginPage {
		t.Fatalf("Summary() = %q", got)
	}
	if !(Outcome{}).Empty() {
		t.Fatal("zero Outcome not empty")
	}
}

func TestPageError(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {})
	sess := &fakeSession{token: "tok"}
	h := newHandler(t, srv, sess)

	got := h.PageError(&rentapi.APIError{Status: http.StatusUnauthorized})
	if got.Alert != msgUnauthorized || got.Navigate != LoginPage || sess.token != "" {
		t.Fatalf("PageError(401) = %+v, token %q", got, sess.token)
	}

	got = h.PageError(&rentapi.APIError{Status: http.StatusNotFound, Message: "missing"})
	if !strings.HasPrefix(got.Alert, "Error: ") || got.Navigate != "" {
		t.Fatalf("PageError(404) = %+v", got)
	}
}
