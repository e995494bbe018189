package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
	"fintrack/internal/store/memory"
)

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	opts.Logger = logger
	srv := NewServer(opts,
		services.NewLedgerService(store, ports.NoopPublisher{}, logger),
		services.NewDashboardService(store))
	srv.now = func() time.Time { return time.Date(2025, time.January, 20, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (ts *testServer) seedJanuary() {
	ts.t.Helper()
	for _, body := range []string{
		`{"type":"income","amount":"150000.00","category_id":"8","description":"Monthly Salary","date":"2025-01-01"}`,
		`{"type":"expense","amount":"2500.00","category_id":"1","description":"Grocery Shopping","date":"2025-01-02"}`,
		`{"type":"expense","amount":"15000.00","category_id":"3","description":"Electricity Bill","date":"2025-01-03"}`,
	} {
		rec := ts.do(http.MethodPost, "/api/transactions", body)
		require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/readyz", "").Code)

	failing := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	assert.Equal(t, http.StatusServiceUnavailable, failing.do(http.MethodGet, "/readyz", "").Code)
}

func TestResponsesCarryMiddlewareHeaders(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestDashboardOverview(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.seedJanuary()

	rec := ts.do(http.MethodGet, "/api/dashboard?year=2025&month=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ov := decode[overviewResponse](t, rec)

	assert.Equal(t, "2025-01", ov.Period)
	assert.Equal(t, "150000.00", ov.Income.Value)
	assert.Equal(t, int64(1750000), ov.Expense.Cents)
	assert.Equal(t, int64(13250000), ov.Balance.Cents)
	assert.Equal(t, 3, ov.Count)
	require.Len(t, ov.ByCategory, 2)
	assert.Equal(t, "3", ov.ByCategory[0].CategoryID)
	assert.Equal(t, "Bills & Utilities", ov.ByCategory[0].Category.Name)
}

// writeAfterOverview lands a write after the first overview is computed but
// before its response goes out, as a concurrent request would.
type writeAfterOverview struct {
	DashboardReader
	write func()
	once  sync.Once
}

func (d *writeAfterOverview) Overview(ctx context.Context, userID string, p core.Period) (core.MonthOverview, error) {
	ov, err := d.DashboardReader.Overview(ctx, userID, p)
	d.once.Do(d.write)
	return ov, err
}

func TestOverviewReflectsCompletedWrites(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	ledger := services.NewLedgerService(store, ports.NoopPublisher{}, logger)
	dashboard := &writeAfterOverview{DashboardReader: services.NewDashboardService(store)}
	dashboard.write = func() {
		_, err := ledger.CreateTransaction(context.Background(), core.Transaction{
			UserID: "1", Type: core.Expense, Amount: core.Money{Cents: 50000},
			CategoryID: "2", Description: "Bus", Date: core.NewDate(2025, time.January, 10),
		})
		require.NoError(t, err)
	}
	srv := NewServer(Options{Logger: logger}, ledger, dashboard)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	ts := &testServer{t: t, srv: srv}

	first := decode[overviewResponse](t, ts.do(http.MethodGet, "/api/dashboard?year=2025&month=1", ""))
	assert.Equal(t, 0, first.Count)

	second := decode[overviewResponse](t, ts.do(http.MethodGet, "/api/dashboard?year=2025&month=1", ""))
	assert.Equal(t, 1, second.Count)
	assert.Equal(t, int64(50000), second.Expense.Cents)

	rec := ts.do(http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"500","category_id":"2","description":"Bus","date":"2025-01-11"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	third := decode[overviewResponse](t, ts.do(http.MethodGet, "/api/dashboard?year=2025&month=1", ""))
	assert.Equal(t, 2, third.Count)
	assert.Equal(t, int64(100000), third.Expense.Cents)
}

func TestBreakdownAndSeries(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.seedJanuary()

	shares := decode[[]shareResponse](t, ts.do(http.MethodGet, "/api/dashboard/categories?year=2025&month=1", ""))
	require.Len(t, shares, 2)
	assert.Equal(t, "Bills & Utilities", shares[0].Category.Name)
	assert.InDelta(t, 85.71, shares[0].Percent, 0.01)

	series := decode[[]totalsResponse](t, ts.do(http.MethodGet, "/api/dashboard/series?year=2025&month=1&window=3", ""))
	require.Len(t, series, 3)
	assert.Equal(t, "2024-11", series[0].Period)
	assert.Equal(t, "2025-01", series[2].Period)
	assert.Equal(t, int64(15000000), series[2].Income.Cents)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/dashboard/series?month=1&year=2025", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		ts.do(http.MethodGet, "/api/dashboard/series?window=25", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		ts.do(http.MethodGet, "/api/dashboard/series?window=0", "").Code)
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"2500","category_id":"1","description":"  Lunch  "}`, HeaderUserID, "7")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[transactionResponse](t, rec)
	assert.Equal(t, "7", created.UserID)
	assert.Equal(t, "Lunch", created.Description)
	assert.Equal(t, "2025-01-20", created.Date, "missing date defaults to today")
	assert.Equal(t, "Food & Dining", created.Category.Name)

	path := "/api/transactions/" + created.ID
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, "").Code, "other users cannot see it")
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, path, "", HeaderUserID, "7").Code)

	rec = ts.do(http.MethodPatch, path, `{"amount":"3000.50","category_id":"4"}`, HeaderUserID, "7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[transactionResponse](t, rec)
	assert.Equal(t, int64(300050), updated.Amount.Cents)
	assert.Equal(t, "4", updated.CategoryID)

	rec = ts.do(http.MethodPatch, path, `{"category_id":"8"}`, HeaderUserID, "7")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "income category on an expense")

	list := decode[[]transactionResponse](t, ts.do(http.MethodGet, "/api/transactions?type=expense", "", HeaderUserID, "7"))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, path, "", HeaderUserID, "7").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, path, "", HeaderUserID, "7").Code)
}

func TestCreateTransactionErrors(t *testing.T) {
	ts := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"type":`, http.StatusBadRequest},
		{"unknown field", `{"type":"expense","amount":"1","category_id":"1","description":"x","color":"red"}`, http.StatusBadRequest},
		{"zero amount", `{"type":"expense","amount":"0","category_id":"1","description":"x"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"type":"transfer","amount":"1","category_id":"1","description":"x"}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"type":"expense","amount":"1","category_id":"99","description":"x"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"type":"expense","amount":"1","category_id":"1","description":"  "}`, http.StatusUnprocessableEntity},
		{"bad date", `{"type":"expense","amount":"1","category_id":"1","description":"x","date":"2025-02-30"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, Options{})

	income := decode[[]categoryResponse](t, ts.do(http.MethodGet, "/api/categories?type=income", ""))
	assert.Len(t, income, 3)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/categories?type=gift", "").Code)

	rec := ts.do(http.MethodPost, "/api/categories", `{"name":"Pets","type":"expense","icon":"paw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pets := decode[categoryResponse](t, rec)
	assert.NotEmpty(t, pets.ID)
	assert.Equal(t, "#6b7280", pets.Color)

	assert.Equal(t, http.StatusConflict,
		ts.do(http.MethodPost, "/api/categories", `{"name":"pets","type":"expense"}`).Code)
	assert.Len(t, decode[[]categoryResponse](t, ts.do(http.MethodGet, "/api/categories", "")), 11)
}

func TestBudgets(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.seedJanuary()

	rec := ts.do(http.MethodPut, "/api/budgets", `{"category_id":"1","limit":"25000.00","year":2025,"month":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPut, "/api/budgets", `{"category_id":"3","limit":"16000","year":2025,"month":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	lines := decode[[]budgetLineResponse](t, ts.do(http.MethodGet, "/api/budgets?year=2025&month=1", ""))
	require.Len(t, lines, 2)
	byCat := map[string]budgetLineResponse{}
	for _, l := range lines {
		byCat[l.Category.ID] = l
	}
	assert.Equal(t, "on-track", byCat["1"].Status)
	assert.InDelta(t, 10.0, byCat["1"].Percentage, 0.001)
	assert.Equal(t, "over-threshold", byCat["3"].Status)
	assert.False(t, byCat["3"].IsOverBudget)

	bad := []struct {
		body string
		want int
	}{
		{`{"category_id":"8","limit":"100","year":2025,"month":1}`, http.StatusUnprocessableEntity},
		{`{"category_id":"1","limit":"0","year":2025,"month":1}`, http.StatusUnprocessableEntity},
		{`{"category_id":"1","limit":"100","year":2025,"month":13}`, http.StatusUnprocessableEntity},
		{`{"category_id":"99","limit":"100","year":2025,"month":1}`, http.StatusUnprocessableEntity},
	}
	for _, b := range bad {
		assert.Equal(t, b.want, ts.do(http.MethodPut, "/api/budgets", b.body).Code, b.body)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "/api/nope")
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 1})
	body := `{"type":"expense","amount":"1","category_id":"1","description":"x"}`

	assert.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/transactions", body).Code)
	rec := ts.do(http.MethodPost, "/api/transactions", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/transactions", "").Code)
	}
}
