package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func lkr(units int64) Money { return Money{Cents: units * 100} }

func tx(typ TransactionType, units int64, cat string, d Date) Transaction {
	return Transaction{UserID: "1", Type: typ, Amount: lkr(units), CategoryID: cat, Description: "t", Date: d}
}

// The three seed transactions of the demo account.
func seedTransactions() []Transaction {
	return []Transaction{
		tx(Income, 150000, "8", NewDate(2025, 1, 1)),
		tx(Expense, 2500, "1", NewDate(2025, 1, 2)),
		tx(Expense, 15000, "3", NewDate(2025, 1, 3)),
	}
}

func TestSeedScenarioTotals(t *testing.T) {
	jan := NewPeriod(2025, time.January)
	in := FilterByPeriod(seedTransactions(), jan)

	income := SumByType(in, Income)
	expense := SumByType(in, Expense)
	if income != lkr(150000) {
		t.Fatalf("income = %v", income)
	}
	if expense != lkr(17500) {
		t.Fatalf("expense = %v", expense)
	}
	if bal := income.Sub(expense); bal != lkr(132500) {
		t.Fatalf("balance = %v", bal)
	}
}

func TestSumsSaturateInsteadOfWrapping(t *testing.T) {
	d := NewDate(2025, 1, 1)
	huge := Transaction{UserID: "1", Type: Expense, Amount: Money{Cents: math.MaxInt64 / 2}, CategoryID: "1", Description: "t", Date: d}
	ts := []Transaction{huge, huge, huge}
	if got := SumByType(ts, Expense); got.Cents != math.MaxInt64 {
		t.Fatalf("SumByType = %d, want saturation at max", got.Cents)
	}
	if got := GroupByCategory(ts)["1"]; got.Cents != math.MaxInt64 {
		t.Fatalf("GroupByCategory = %d, want saturation at max", got.Cents)
	}
}

func TestFilterByPeriod(t *testing.T) {
	ts := []Transaction{
		tx(Expense, 1, "1", NewDate(2024, 12, 31)),
		tx(Expense, 2, "1", NewDate(2025, 1, 1)),
		tx(Expense, 3, "1", NewDate(2025, 1, 31)),
		tx(Expense, 4, "1", NewDate(2026, 1, 15)), // same month, other year
	}
	got := FilterByPeriod(ts, NewPeriod(2025, time.January))
	if len(got) != 2 || got[0].Amount != lkr(2) || got[1].Amount != lkr(3) {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if len(FilterByPeriod(nil, NewPeriod(2025, time.January))) != 0 {
		t.Fatalf("nil input should yield empty output")
	}
}

func TestSumByTypePartition(t *testing.T) {
	ts := []Transaction{
		tx(Income, 10, "8", NewDate(2025, 1, 1)),
		tx(Expense, 7, "1", NewDate(2025, 2, 1)),
		tx(Income, 3, "9", NewDate(2025, 3, 1)),
		tx(Expense, 5, "2", NewDate(2025, 4, 1)),
	}
	var all Money
	for _, x := range ts {
		all = all.Add(x.Amount)
	}
	if got := SumByType(ts, Income).Add(SumByType(ts, Expense)); got != all {
		t.Fatalf("partition broken: %v != %v", got, all)
	}
	if !SumByType(nil, Income).IsZero() {
		t.Fatalf("empty input must sum to zero")
	}
}

func TestGroupByCategorySumsToExpenseTotal(t *testing.T) {
	ts := []Transaction{
		tx(Expense, 2500, "1", NewDate(2025, 1, 2)),
		tx(Expense, 500, "1", NewDate(2025, 1, 5)),
		tx(Expense, 15000, "3", NewDate(2025, 1, 3)),
	}
	groups := GroupByCategory(ts)
	if len(groups) != 2 {
		t.Fatalf("expected only present categories, got %v", groups)
	}
	if groups["1"] != lkr(3000) || groups["3"] != lkr(15000) {
		t.Fatalf("unexpected groups: %v", groups)
	}
	var sum Money
	for _, m := range groups {
		sum = sum.Add(m)
	}
	if sum != SumByType(ts, Expense) {
		t.Fatalf("group sum %v != expense total", sum)
	}
}

func TestPercentOfTotal(t *testing.T) {
	if got := PercentOfTotal(lkr(2500), lkr(17500)); got < 14.28 || got > 14.29 {
		t.Fatalf("got %v", got)
	}
	for _, part := range []Money{{}, lkr(1), lkr(-5), lkr(1 << 40)} {
		if got := PercentOfTotal(part, Money{}); got != 0 {
			t.Fatalf("PercentOfTotal(%v, 0) = %v", part, got)
		}
	}
}

func TestPeriodDelta(t *testing.T) {
	cases := []struct {
		cur, prev Money
		want      float64
	}{
		{lkr(150), lkr(100), 50},
		{lkr(50), lkr(100), -50},
		{lkr(100), lkr(100), 0},
		{lkr(0), lkr(100), -100},
		{lkr(12345), Money{}, 0}, // zero baseline
		{Money{}, Money{}, 0},
	}
	for _, tc := range cases {
		if got := PeriodDelta(tc.cur, tc.prev); got != tc.want {
			t.Errorf("PeriodDelta(%v, %v) = %v, want %v", tc.cur, tc.prev, got, tc.want)
		}
	}
}

func TestPeriodAddMonths(t *testing.T) {
	cases := []struct {
		p    Period
		n    int
		want Period
	}{
		{NewPeriod(2025, time.January), -1, NewPeriod(2024, time.December)},
		{NewPeriod(2025, time.January), -13, NewPeriod(2023, time.December)},
		{NewPeriod(2024, time.December), 1, NewPeriod(2025, time.January)},
		{NewPeriod(2025, time.March), 0, NewPeriod(2025, time.March)},
		{NewPeriod(2025, time.June), 18, NewPeriod(2026, time.December)},
	}
	for _, tc := range cases {
		if got := tc.p.AddMonths(tc.n); got != tc.want {
			t.Errorf("%v.AddMonths(%d) = %v, want %v", tc.p, tc.n, got, tc.want)
		}
	}
	if NewPeriod(2024, time.February).End().Day() != 29 {
		t.Fatalf("leap February should end on the 29th")
	}
}

func TestMonthlySeriesRollsOverYear(t *testing.T) {
	ts := []Transaction{
		tx(Income, 1000, "8", NewDate(2024, 12, 1)),
		tx(Expense, 200, "1", NewDate(2024, 12, 24)),
		tx(Expense, 50, "1", NewDate(2024, 7, 1)), // outside the window
		tx(Income, 1500, "8", NewDate(2025, 1, 1)),
		tx(Expense, 300, "3", NewDate(2025, 1, 3)),
	}
	series, err := MonthlySeries(ts, NewPeriod(2025, time.January), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(series))
	}
	if series[0].Period != NewPeriod(2024, time.August) {
		t.Fatalf("oldest entry = %v", series[0].Period)
	}
	if series[4].Period != NewPeriod(2024, time.December) || series[5].Period != NewPeriod(2025, time.January) {
		t.Fatalf("tail periods = %v, %v", series[4].Period, series[5].Period)
	}
	if series[4].Income != lkr(1000) || series[4].Expense != lkr(200) {
		t.Fatalf("december totals = %+v", series[4])
	}
	if series[5].Income != lkr(1500) || series[5].Expense != lkr(300) {
		t.Fatalf("january totals = %+v", series[5])
	}
	for _, m := range series[:4] {
		if !m.Income.IsZero() || !m.Expense.IsZero() {
			t.Fatalf("expected empty month, got %+v", m)
		}
	}
}

func TestMonthlySeriesIncludesPreviousDecember(t *testing.T) {
	series, err := MonthlySeries(nil, NewPeriod(2025, time.January), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, m := range series {
		if m.Period == NewPeriod(2024, time.December) {
			found = true
		}
	}
	if !found {
		t.Fatalf("December 2024 missing from %v", series)
	}
}

func TestMonthlySeriesInvalidWindow(t *testing.T) {
	if _, err := MonthlySeries(nil, NewPeriod(2025, time.January), 0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := MonthlySeries(nil, Period{Year: 2025}, 3); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	ts := append(seedTransactions(),
		tx(Income, 100000, "8", NewDate(2024, 12, 1)),
		tx(Expense, 20000, "2", NewDate(2024, 12, 10)),
	)
	ov := Summarize(ts, NewPeriod(2025, time.January))

	if ov.Income != lkr(150000) || ov.Expense != lkr(17500) || ov.Balance != lkr(132500) {
		t.Fatalf("totals = %+v", ov)
	}
	if ov.Previous.Income != lkr(100000) || ov.Previous.Expense != lkr(20000) {
		t.Fatalf("previous = %+v", ov.Previous)
	}
	if ov.IncomeDelta != 50 {
		t.Fatalf("income delta = %v", ov.IncomeDelta)
	}
	if ov.ExpenseDelta != -12.5 {
		t.Fatalf("expense delta = %v", ov.ExpenseDelta)
	}
	if ov.BalanceChange != lkr(132500-80000) {
		t.Fatalf("balance change = %v", ov.BalanceChange)
	}
	if ov.Count != 3 {
		t.Fatalf("count = %d", ov.Count)
	}
	if len(ov.ByCategory) != 2 || ov.ByCategory[0].CategoryID != "3" || ov.ByCategory[1].CategoryID != "1" {
		t.Fatalf("by category = %+v", ov.ByCategory)
	}
}

func TestSummarizeEmptyPeriod(t *testing.T) {
	ov := Summarize(nil, NewPeriod(2025, time.January))
	if !ov.Income.IsZero() || !ov.Expense.IsZero() || !ov.Balance.IsZero() {
		t.Fatalf("expected zero totals: %+v", ov)
	}
	if ov.IncomeDelta != 0 || ov.ExpenseDelta != 0 {
		t.Fatalf("expected zero deltas: %+v", ov)
	}
	if len(ov.ByCategory) != 0 {
		t.Fatalf("expected no categories")
	}
}

func TestCategoryBreakdown(t *testing.T) {
	reg := MustDefaultRegistry()
	ts := append(seedTransactions(), tx(Expense, 500, "ghost", NewDate(2025, 1, 9)))

	shares := CategoryBreakdown(ts, NewPeriod(2025, time.January), reg)
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %+v", shares)
	}
	if shares[0].Category.Name != "Bills & Utilities" || shares[0].Category.Color != "#f59e0b" {
		t.Fatalf("first share = %+v", shares[0])
	}
	last := shares[2]
	if last.Category.Known || last.Category.Color != FallbackCategoryColor {
		t.Fatalf("unknown category should use fallback: %+v", last)
	}
	var pct float64
	for _, s := range shares {
		pct += s.Percent
	}
	if pct < 99.999 || pct > 100.001 {
		t.Fatalf("shares should add up to 100%%, got %v", pct)
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-01")
	if err != nil || p != NewPeriod(2025, time.January) || p.String() != "2025-01" {
		t.Fatalf("ParsePeriod = %v, %v", p, err)
	}
	for _, bad := range []string{"2025-13", "2025", "Jan 2025", ""} {
		if _, err := ParsePeriod(bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("ParsePeriod(%q) = %v, want ErrInvalidPeriod", bad, err)
		}
	}
}
