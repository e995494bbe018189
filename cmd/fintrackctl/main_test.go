package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	t.Setenv("SEED_FILE", "")
	t.Setenv("DEMO_USER_ID", "1")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummaryWithDemoData(t *testing.T) {
	out, err := run(t, "summary", "--demo", "--period", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01")
	assert.Contains(t, out, "LKR 150,000.00")
	assert.Contains(t, out, "LKR 17,500.00")
	assert.Contains(t, out, "Bills & Utilities")
}

func TestBudgetsWithDemoData(t *testing.T) {
	out, err := run(t, "budgets", "--demo", "-p", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Food & Dining")
	assert.Contains(t, out, "Transportation")
	assert.Contains(t, out, "on-track")
}

func TestOtherUserSeesNothing(t *testing.T) {
	out, err := run(t, "breakdown", "--demo", "-p", "2025-01", "--user", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses in this period.")
}

func TestInvalidPeriod(t *testing.T) {
	_, err := run(t, "summary", "--period", "2025-13")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestSeriesRejectsZeroWindow(t *testing.T) {
	_, err := run(t, "series", "--window", "0")
	assert.ErrorIs(t, err, core.ErrInvalidWindow)
}

func TestSetBudgetRejectsBadLimit(t *testing.T) {
	_, err := run(t, "budgets", "set", "1", "abc", "-p", "2025-01")
	assert.ErrorIs(t, err, core.ErrInvalidBudgetLimit)
}

func TestWriteSeries(t *testing.T) {
	var buf bytes.Buffer
	jan := core.Period{Year: 2025, Month: 1}
	err := writeSeries(&buf, []core.MonthTotals{
		{Period: jan, Income: core.Money{Cents: 10000}, Expense: core.Money{Cents: 2550}},
		{Period: jan.AddMonths(1)},
	}, core.FormatLKR)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2025-01")
	assert.Contains(t, buf.String(), "LKR 74.50")
	assert.Contains(t, buf.String(), "2025-02")
}

func TestSeriesCompact(t *testing.T) {
	out, err := run(t, "series", "--demo", "-p", "2025-01", "-w", "2", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-12")
	assert.Contains(t, out, "LKR 150.0K")
}

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.345, "+12.3%"},
		{0, "0.0%"},
		{-50, "-50.0%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDelta(tt.in))
	}
}
