// Package google exports month summaries to a Google spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// Config selects the spreadsheet and the OAuth material. JSON values win over files.
type Config struct {
	SpreadsheetID string
	SheetBase     string // default "Summary"
	ClientFile    string
	ClientJSON    string
	TokenFile     string
	TokenJSON     string
}

// sheetAPI is the subset of the Sheets service the exporter needs.
type sheetAPI interface {
	EnsureSheet(ctx context.Context, title string) error
	Replace(ctx context.Context, rng string, rows [][]any) error
}

// Exporter implements ports.SummaryExporter.
type Exporter struct {
	api        sheetAPI
	sheetBase  string
	categories ports.CategoryRepository
	logger     *log.Logger
}

var _ ports.SummaryExporter = (*Exporter)(nil)

// New authenticates with the stored OAuth token and returns an exporter.
// categories is optional and only used to print category names.
func New(ctx context.Context, cfg Config, categories ports.CategoryRepository, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	clientJSON, err := readSecret(cfg.ClientJSON, cfg.ClientFile, "oauth client")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := readSecret(cfg.TokenJSON, cfg.TokenFile, "oauth token")
	if err != nil {
		return nil, err
	}

	oauthCfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}

	// The token source refreshes through the pooled client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newExporter(&serviceAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetBase, categories, logger), nil
}

func newExporter(api sheetAPI, base string, categories ports.CategoryRepository, logger *log.Logger) *Exporter {
	if strings.TrimSpace(base) == "" {
		base = "Summary"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{
		api:        api,
		sheetBase:  base,
		categories: categories,
		logger:     logger.WithComponent(log.ComponentSheets),
	}
}

func readSecret(inline, file, what string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if file == "" {
		return nil, fmt.Errorf("missing %s: set the JSON value or the file path", what)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s file: %w", what, err)
	}
	return b, nil
}

// ExportMonthSummary writes the summary block of ov into the month's column
// band of the user's yearly sheet, replacing what was there.
func (e *Exporter) ExportMonthSummary(ctx context.Context, userID string, ov core.MonthOverview, lines []core.BudgetLine) error {
	var reg *core.Registry
	if e.categories != nil {
		cats, err := e.categories.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if reg, err = core.NewRegistry(cats...); err != nil {
			return fmt.Errorf("build category registry: %w", err)
		}
	}

	title := SheetTitle(e.sheetBase, ov.Period.Year, userID)
	if err := e.api.EnsureSheet(ctx, title); err != nil {
		return fmt.Errorf("ensure sheet %q: %w", title, err)
	}
	rng := monthRange(title, ov.Period.Month)
	if err := e.api.Replace(ctx, rng, SummaryRows(ov, lines, reg)); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "month summary exported",
		log.FieldUserID, userID,
		log.FieldPeriod, ov.Period.String(),
		"range", rng)
	return nil
}

// SheetTitle names the per-user yearly sheet, e.g. "2025 Summary (1)".
func SheetTitle(base string, year int, userID string) string {
	return fmt.Sprintf("%s (%s)", yearPrefixedName(base, year), userID)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if len(base) >= 5 && base[4] == ' ' {
		if y, err := time.Parse("2006", base[:4]); err == nil && y.Year() > 1900 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

const bandWidth = 4

// monthRange gives month m the columns [(m-1)*4, (m-1)*4+3].
func monthRange(title string, m time.Month) string {
	first := (int(m) - 1) * bandWidth
	return fmt.Sprintf("'%s'!%s1:%s", title, columnName(first), columnName(first+bandWidth-1))
}

// columnName converts a zero-based index to A1 column letters.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

// SummaryRows renders the block written for one month.
func SummaryRows(ov core.MonthOverview, lines []core.BudgetLine, reg *core.Registry) [][]any {
	rows := [][]any{
		{ov.Period.String(), "Amount", "Change %", ""},
		{"Income", ov.Income.Decimal(), round1(ov.IncomeDelta), ""},
		{"Expense", ov.Expense.Decimal(), round1(ov.ExpenseDelta), ""},
		{"Balance", ov.Balance.Decimal(), "", ""},
		{"", "", "", ""},
		{"Category", "Spent", "Share %", ""},
	}
	for _, ca := range ov.ByCategory {
		rows = append(rows, []any{
			reg.Resolve(ca.CategoryID).Name,
			ca.Amount.Decimal(),
			round1(core.PercentOfTotal(ca.Amount, ov.Expense)),
			"",
		})
	}
	if len(lines) > 0 {
		rows = append(rows, []any{"", "", "", ""}, []any{"Budget", "Spent", "Limit", "Status"})
		for _, l := range lines {
			rows = append(rows, []any{
				l.Category.Name,
				l.Evaluation.Spent.Decimal(),
				l.Evaluation.Limit.Decimal(),
				l.Evaluation.Status.String(),
			})
		}
	}
	return rows
}

func round1(f float64) float64 {
	if f < 0 {
		return -float64(int64(-f*10+0.5)) / 10
	}
	return float64(int64(f*10+0.5)) / 10
}

type serviceAPI struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (a *serviceAPI) EnsureSheet(ctx context.Context, title string) error {
	ss, err := a.svc.Spreadsheets.Get(a.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := a.svc.Spreadsheets.BatchUpdate(a.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	return nil
}

func (a *serviceAPI) Replace(ctx context.Context, rng string, rows [][]any) error {
	if _, err := a.svc.Spreadsheets.Values.Clear(a.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, rng, vr).ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// newHTTPClientWithPooling returns a client tuned for many small Sheets calls.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}
