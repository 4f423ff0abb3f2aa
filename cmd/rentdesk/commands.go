package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
	"github.com/lachiem1/rentdesk/internal/storage"
	"github.com/lachiem1/rentdesk/internal/syncer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withApp builds the services for one command and closes them afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, ao appOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, opts, ao)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// fetchDocument loads and parses a server page, mapping failures the way
// the interactive client reports them.
func fetchDocument(ctx context.Context, a *app, path string) (*page.Document, error) {
	p, err := a.client.FetchPage(ctx, path)
	if err != nil {
		if outErr := outcomeError(a.handler.PageError(err)); outErr != nil {
			return nil, outErr
		}
		return nil, err
	}
	return page.ParseBytes(p.URL, p.HTML)
}

// submit runs a form through the handler, falling back to a plain post
// when the handler does not intercept it.
func submit(ctx context.Context, a *app, doc *page.Document, form *page.Form, ledger *forms.Ledger) forms.Outcome {
	outcome := a.handler.Submit(ctx, doc, form, ledger)
	if outcome.Native {
		outcome = a.handler.Native(ctx, doc, form)
	}
	return outcome
}

func printOutcome(o forms.Outcome) error {
	if text := o.Summary(); text != "" {
		fmt.Println(text)
	}
	if o.Navigate == forms.LoginPage {
		fmt.Println("Run `rentdesk login` to start a new session.")
	}
	return outcomeError(o)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{withDB: true}, func(ctx context.Context, a *app) error {
				name := strings.TrimSpace(username)
				if name == "" {
					var err error
					name, err = promptLine("Username", a.handler.LastUsername(ctx))
					if err != nil {
						return err
					}
				}

				fmt.Print("Password: ")
				password, err := readSecret()
				if err != nil {
					return err
				}
				fmt.Println()

				outcome := a.handler.Login(ctx, name, password)
				if outcome.Navigate != forms.LandingPage {
					if outcome.Inline != "" {
						return errors.New(outcome.Inline)
					}
					return errors.New("login failed")
				}
				fmt.Printf("Logged in as %s.\n", name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if err := outcomeError(a.handler.Logout()); err != nil {
					return err
				}
				fmt.Println("Logged out.")
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server, session and cache in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{withDB: true}, func(ctx context.Context, a *app) error {
				fmt.Printf("server:  %s\n", a.client.BaseURL())
				if dbCfg, err := a.storageConfig(opts); err == nil {
					fmt.Printf("cache:   %s (%s)\n", dbCfg.Path, dbCfg.Mode)
				}
				printSyncState(ctx, a)

				token, err := a.session.Token()
				switch {
				case errors.Is(err, session.ErrNoToken):
					fmt.Println("session: not logged in")
					return nil
				case err != nil:
					return err
				}
				claims, ok := session.Inspect(token)
				if !ok {
					fmt.Println("session: token stored (opaque)")
					return nil
				}
				state := "active"
				if session.Expired(token, time.Now()) {
					state = "expired"
				}
				line := fmt.Sprintf("session: %s as %s", state, claims.Username)
				if claims.ExpiresAt != nil {
					line += ", expires " + claims.ExpiresAt.Local().Format(time.RFC1123)
				}
				fmt.Println(line)
				return nil
			})
		},
	}
}

func printSyncState(ctx context.Context, a *app) {
	state, ok, err := storage.NewSyncStateRepo(a.db).Get(ctx, syncer.CollectionRenters)
	switch {
	case err != nil:
		a.logger.Warn("read sync state", zap.String("op", "status"), zap.Error(err))
		return
	case !ok:
		fmt.Println("sync:    never")
		return
	}
	line := "sync:    no successful sync"
	if state.LastSuccess != nil {
		line = fmt.Sprintf("sync:    %d renters, %d matrices as of %s",
			state.Renters, state.Ledgers, state.LastSuccess.Local().Format(time.RFC1123))
	}
	if state.Failed() {
		line += "; last attempt failed: " + state.LastError
	}
	fmt.Println(line)
}

func newPayCmd(opts *rootOptions) *cobra.Command {
	var (
		amount string
		month  string
		year   string
	)
	cmd := &cobra.Command{
		Use:   "pay RENTER_ID",
		Short: "Record a monthly or yearly payment for a renter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (month == "") == (year == "") {
				return errors.New("exactly one of --month or --year is required")
			}
			renterID := args[0]
			return withApp(cmd, opts, appOptions{withDB: true}, func(ctx context.Context, a *app) error {
				doc, err := fetchDocument(ctx, a, rentapi.RenterPath(renterID))
				if err != nil {
					return err
				}
				form, ok := doc.FormByActionPrefix(rentapi.PaymentPathPrefix)
				if !ok {
					return fmt.Errorf("renter %s has no payment form", renterID)
				}
				var ledger *forms.Ledger
				if doc.Matrix != nil {
					if ledger, err = forms.LedgerFromDocument(doc); err != nil {
						return err
					}
				}

				values := map[string]string{"amount": amount}
				if year != "" {
					values["payment_type"] = matrix.TypeYearly
					values["year_covered"] = year
				} else {
					values["payment_type"] = matrix.TypeMonthly
					values["year_month_covered"] = month
				}
				for name, value := range values {
					if _, ok := form.Lookup(name); !ok {
						continue
					}
					if err := form.Set(name, value); err != nil {
						return err
					}
				}

				outcome := submit(ctx, a, doc, form, ledger)
				if err := printOutcome(outcome); err != nil {
					return err
				}
				if ledger != nil && (len(outcome.Cells) > 0 || len(outcome.Totals) > 0) {
					fmt.Println(matrix.Render(ledger.Matrix, outcome.Cells))
					fmt.Println(matrix.RenderTotals(ledger.Totals))
					cacheLedger(ctx, a, renterID, ledger)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount paid")
	cmd.Flags().StringVar(&month, "month", "", "Month covered, YYYY-MM")
	cmd.Flags().StringVar(&year, "year", "", "Year covered, YYYY (yearly payment)")
	return cmd
}

func newExpectedCmd(opts *rootOptions) *cobra.Command {
	var apartment, startDate string
	cmd := &cobra.Command{
		Use:   "expected",
		Short: "Preview the expected months and total for a new renter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				text := a.handler.Preview(ctx, apartment, startDate)
				if text == "" {
					return errors.New("--apartment and --start-date must not be empty")
				}
				fmt.Println(text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&apartment, "apartment", "", "Apartment id")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Renter start date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("apartment")
	_ = cmd.MarkFlagRequired("start-date")
	return cmd
}

func newFormsCmd(opts *rootOptions) *cobra.Command {
	var showFields bool
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "List the forms on the main page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if err := outcomeError(a.handler.Guard()); err != nil {
					return err
				}
				doc, err := fetchDocument(ctx, a, rentapi.MainPagePath)
				if err != nil {
					return err
				}
				fmt.Println(renderFormsTable(a.handler, doc.Forms, showFields))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showFields, "fields", false, "Show each form's fields and current values")
	return cmd
}

func renderFormsTable(h *forms.Handler, list []*page.Form, showFields bool) string {
	headers := []string{"#", "Form", "Action", "Submit"}
	if showFields {
		headers = append(headers, "Fields")
	}
	rows := make([][]string, 0, len(list))
	for i, f := range list {
		mode := "intercepted"
		switch {
		case forms.IsPaymentForm(f):
			mode = "payment"
		case !h.Intercepts(f):
			mode = "native"
		}
		row := []string{strconv.Itoa(i), f.Title(), f.Action, mode}
		if showFields {
			fields := make([]string, 0, len(f.Fields))
			for _, field := range f.Editable() {
				fields = append(fields, field.Name+"="+field.Value)
			}
			row = append(row, strings.Join(fields, "\n"))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "submit INDEX",
		Short: "Fill in and submit a main-page form by its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid form index %q", args[0])
			}
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if err := outcomeError(a.handler.Guard()); err != nil {
					return err
				}
				doc, err := fetchDocument(ctx, a, rentapi.MainPagePath)
				if err != nil {
					return err
				}
				if index < 0 || index >= len(doc.Forms) {
					return fmt.Errorf("form index %d out of range (page has %d forms)", index, len(doc.Forms))
				}
				form := doc.Forms[index]
				for _, kv := range sets {
					name, value, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("--set %q: want name=value", kv)
					}
					if err := form.Set(strings.TrimSpace(name), value); err != nil {
						return err
					}
				}

				if apartment, start, ok := forms.PreviewInputs(doc); ok {
					if text := a.handler.Preview(ctx, apartment, start); text != "" {
						fmt.Println(text)
					}
				}
				return printOutcome(submit(ctx, a, doc, form, nil))
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as name=value (repeatable)")
	return cmd
}

func newMatrixCmd(opts *rootOptions) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "matrix [RENTER_ID]",
		Short: "Show a renter's payment matrix and totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{withDB: true}, func(ctx context.Context, a *app) error {
				prefs := storage.NewAppConfigRepo(a.db)
				renterID := ""
				if len(args) == 1 {
					renterID = args[0]
				} else {
					last, ok, err := prefs.Get(ctx, storage.ConfigLastRenter)
					if err != nil {
						return err
					}
					if !ok {
						return errors.New("no renter given and none viewed before")
					}
					renterID = last
				}

				var ledger *forms.Ledger
				if offline {
					mx, totals, ok, err := storage.NewLedgersRepo(a.db).Load(ctx, renterID)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no cached matrix for renter %s", renterID)
					}
					ledger = &forms.Ledger{Matrix: mx, Totals: totals}
				} else {
					if err := outcomeError(a.handler.Guard()); err != nil {
						return err
					}
					doc, err := fetchDocument(ctx, a, rentapi.RenterPath(renterID))
					if err != nil {
						return err
					}
					if doc.Matrix == nil {
						return fmt.Errorf("renter %s page has no payment matrix", renterID)
					}
					if ledger, err = forms.LedgerFromDocument(doc); err != nil {
						return err
					}
					cacheLedger(ctx, a, renterID, ledger)
				}

				if err := prefs.Set(ctx, storage.ConfigLastRenter, renterID); err != nil {
					a.logger.Warn("remember renter", zap.String("op", "app config"), zap.Error(err))
				}

				fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
					matrix.Render(ledger.Matrix, nil),
					"  ",
					matrix.RenderTotals(ledger.Totals),
				))
				if missed := ledger.Matrix.Missed(time.Now()); len(missed) > 0 {
					names := make([]string, 0, len(missed))
					for _, p := range missed {
						names = append(names, p.String())
					}
					fmt.Printf("missed %d: %s\n", len(missed), strings.Join(names, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the cached copy without contacting the server")
	return cmd
}

func cacheLedger(ctx context.Context, a *app, renterID string, ledger *forms.Ledger) {
	if a.db == nil || ledger == nil || ledger.Matrix == nil {
		return
	}
	if err := storage.NewLedgersRepo(a.db).Save(ctx, renterID, ledger.Matrix, ledger.Totals, time.Now()); err != nil {
		a.logger.Warn("cache renter ledger", zap.String("op", "cache ledger"), zap.String("renter_id", renterID), zap.Error(err))
	}
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local renter cache from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{withDB: true}, func(ctx context.Context, a *app) error {
				if err := outcomeError(a.handler.Guard()); err != nil {
					return err
				}
				svc, err := syncer.NewRentersService(a.db, a.client, 0, a.logger, nil)
				if err != nil {
					return err
				}
				if err := svc.SyncRenters(ctx); err != nil {
					if errors.Is(err, rentapi.ErrUnauthorized) {
						return printOutcome(a.handler.PageError(err))
					}
					return err
				}

				renters, err := storage.NewRentersRepo(a.db).List(ctx)
				if err != nil {
					return err
				}
				for _, r := range renters {
					fmt.Printf("%5s  %s\n", r.ID, r.Name)
				}
				fmt.Printf("%d renters cached.\n", len(renters))
				return nil
			})
		},
	}
}

func newDBCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the local cache",
	}

	var yes bool
	wipe := &cobra.Command{
		Use:   "wipe",
		Short: "Delete the local cache files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				dbCfg, err := a.storageConfig(opts)
				if err != nil {
					return err
				}
				if !yes {
					answer, err := promptLine("Delete "+dbCfg.Path+"? (y/N)", "")
					if err != nil {
						return err
					}
					if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
						fmt.Println("Aborted.")
						return nil
					}
				}
				if err := storage.Wipe(dbCfg); err != nil {
					return err
				}
				a.logger.Info("local cache wiped", zap.String("op", "storage"), zap.String("path", dbCfg.Path))
				fmt.Println("Local cache deleted.")
				return nil
			})
		},
	}
	wipe.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(wipe)
	return cmd
}
