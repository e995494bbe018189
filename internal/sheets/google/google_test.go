package google

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store/memory"
)

type fakeAPI struct {
	sheets  []string
	ranges  []string
	written [][]any
	err     error
}

func (f *fakeAPI) EnsureSheet(_ context.Context, title string) error {
	f.sheets = append(f.sheets, title)
	return nil
}

func (f *fakeAPI) Replace(_ context.Context, rng string, rows [][]any) error {
	f.ranges = append(f.ranges, rng)
	f.written = rows
	return f.err
}

func TestYearPrefixedName(t *testing.T) {
	assert.Equal(t, "2025 Summary", yearPrefixedName("Summary", 2025))
	assert.Equal(t, "2024 Summary", yearPrefixedName("2024 Summary", 2025))
	assert.Equal(t, "2025 20xx plan", yearPrefixedName("20xx plan", 2025))
	assert.Equal(t, "2025 Summary (7)", SheetTitle(" Summary ", 2025, "7"))
}

func TestColumnNamesAndRanges(t *testing.T) {
	cases := map[int]string{0: "A", 3: "D", 25: "Z", 26: "AA", 47: "AV", 701: "ZZ", 702: "AAA"}
	for i, want := range cases {
		assert.Equal(t, want, columnName(i), "index %d", i)
	}
	assert.Equal(t, "'2025 Summary (1)'!A1:D", monthRange("2025 Summary (1)", time.January))
	assert.Equal(t, "'2025 Summary (1)'!AS1:AV", monthRange("2025 Summary (1)", time.December))
}

func TestSummaryRows(t *testing.T) {
	reg := core.MustDefaultRegistry()
	ov := core.MonthOverview{
		Period:       core.NewPeriod(2025, time.January),
		Income:       core.Money{Cents: 15000000},
		Expense:      core.Money{Cents: 1750000},
		Balance:      core.Money{Cents: 13250000},
		ExpenseDelta: -12.5,
		ByCategory: []core.CategoryAmount{
			{CategoryID: "3", Amount: core.Money{Cents: 1500000}},
			{CategoryID: "gone", Amount: core.Money{Cents: 250000}},
		},
	}
	ev, err := core.EvaluateBudget(core.Money{Cents: 1500000}, core.Money{Cents: 1000000})
	require.NoError(t, err)
	lines := []core.BudgetLine{{Category: reg.Resolve("3"), Evaluation: ev}}

	rows := SummaryRows(ov, lines, reg)
	assert.Equal(t, []any{"2025-01", "Amount", "Change %", ""}, rows[0])
	assert.Equal(t, []any{"Expense", "17500.00", -12.5, ""}, rows[2])
	assert.Equal(t, []any{"Bills & Utilities", "15000.00", 85.7, ""}, rows[6])
	assert.Equal(t, core.FallbackCategoryName, rows[7][0])
	last := rows[len(rows)-1]
	assert.Equal(t, []any{"Bills & Utilities", "15000.00", "10000.00", "over-threshold"}, last)
}

func TestExportMonthSummary(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)
	api := &fakeAPI{}
	exp := newExporter(api, "", store, log.New(log.Config{Output: &bytes.Buffer{}}))

	ov := core.MonthOverview{Period: core.NewPeriod(2025, time.March)}
	require.NoError(t, exp.ExportMonthSummary(context.Background(), "1", ov, nil))
	assert.Equal(t, []string{"2025 Summary (1)"}, api.sheets)
	assert.Equal(t, []string{"'2025 Summary (1)'!I1:L"}, api.ranges)
	assert.Len(t, api.written, 6)

	api.err = errors.New("quota exceeded")
	assert.Error(t, exp.ExportMonthSummary(context.Background(), "1", ov, nil))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil, nil)
	assert.Error(t, err)
	_, err = New(context.Background(), Config{SpreadsheetID: "x"}, nil, nil)
	assert.ErrorContains(t, err, "oauth client")
}
