package seed

import (
	"bytes"
	"context"
	"strings"
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

func newWriter(t *testing.T) (*services.LedgerService, *memory.Store, *log.Logger) {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	return services.NewLedgerService(store, ports.NoopPublisher{}, logger), store, logger
}

const custom = `
[[categories]]
id = "pets"
name = "Pets"
type = "expense"
icon = "paw"

[[categories]]
name = "food & dining"
type = "expense"

[[budgets]]
user = "7"
category = "pets"
limit = "5000"
period = "2025-03"

[[transactions]]
user = "7"
type = "expense"
amount = "1250.50"
category = "pets"
description = "Vet"
date = "2025-03-04"
`

func TestApplyCustomFile(t *testing.T) {
	f, err := Decode(strings.NewReader(custom))
	require.NoError(t, err)

	w, store, logger := newWriter(t)
	ctx := context.Background()
	res, err := Apply(ctx, f, w, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: 1, Budgets: 1, Transactions: 1, Skipped: 1}, res)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 11)

	txs, err := store.ListTransactions(ctx, "7")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(125050), txs[0].Amount.Cents)
	assert.Equal(t, core.NewDate(2025, time.March, 4), txs[0].Date)

	budgets, err := store.ListBudgets(ctx, "7", core.NewPeriod(2025, time.March))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, int64(500000), budgets[0].Limit.Cents)
}

func TestApplyDemo(t *testing.T) {
	w, store, logger := newWriter(t)
	ctx := context.Background()

	res, err := Apply(ctx, Demo(), w, logger)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Transactions)
	assert.Equal(t, 2, res.Budgets)

	jan := core.NewPeriod(2025, time.January)
	txs, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	totals := core.Totals(txs, jan)
	assert.Equal(t, int64(15000000), totals.Income.Cents)
	assert.Equal(t, int64(1750000), totals.Expense.Cents)
}

func TestApplyStopsOnInvalidRow(t *testing.T) {
	w, _, logger := newWriter(t)
	f := File{Transactions: []Transaction{
		{User: "1", Type: "income", Amount: "10", Category: "8", Date: "2025-01-01"},
		{User: "1", Type: "expense", Amount: "10", Category: "8", Date: "2025-01-02"},
	}}

	res, err := Apply(context.Background(), f, w, logger)
	require.ErrorIs(t, err, core.ErrCategoryTypeMismatch)
	assert.Equal(t, 1, res.Transactions)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[[transactions]]\nammount = \"1\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ammount")
}

func TestRowConversionErrors(t *testing.T) {
	cases := []struct {
		name string
		row  Transaction
		want error
	}{
		{"bad type", Transaction{Type: "transfer", Amount: "1", Date: "2025-01-01"}, core.ErrInvalidType},
		{"bad amount", Transaction{Type: "expense", Amount: "-1", Date: "2025-01-01"}, core.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.row.toCore()
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Budget{Limit: "100", Period: "2025-13"}.toCore()
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}
