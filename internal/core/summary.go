package core

import "sort"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string
	Amount     Money
}

// MonthOverview is the dashboard summary for a specific year+month.
type MonthOverview struct {
	Period        Period
	Income        Money
	Expense       Money
	Balance       Money
	Previous      MonthTotals
	IncomeDelta   float64 // percent change vs previous period
	ExpenseDelta  float64 // percent change vs previous period
	BalanceChange Money   // absolute change vs previous balance
	ByCategory    []CategoryAmount
	Count         int
}

// Summarize computes the month overview for p, comparing it with the previous period.
func Summarize(ts []Transaction, p Period) MonthOverview {
	current := FilterByPeriod(ts, p)
	prev := Totals(ts, p.Previous())

	income := SumByType(current, Income)
	expense := SumByType(current, Expense)
	balance := income.Sub(expense)

	return MonthOverview{
		Period:        p,
		Income:        income,
		Expense:       expense,
		Balance:       balance,
		Previous:      prev,
		IncomeDelta:   PeriodDelta(income, prev.Income),
		ExpenseDelta:  PeriodDelta(expense, prev.Expense),
		BalanceChange: balance.Sub(prev.Balance()),
		ByCategory:    SortedCategoryAmounts(GroupByCategory(onlyType(current, Expense))),
		Count:         len(current),
	}
}

// SortedCategoryAmounts orders a grouping by amount descending, then by id.
func SortedCategoryAmounts(groups map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(groups))
	for id, amt := range groups {
		out = append(out, CategoryAmount{CategoryID: id, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// CategoryShare is one slice of the expense breakdown, resolved for display.
type CategoryShare struct {
	Category CategoryDisplay
	Amount   Money
	Percent  float64
}

// CategoryBreakdown returns the expense totals of p per category with their share of the total.
func CategoryBreakdown(ts []Transaction, p Period, reg *Registry) []CategoryShare {
	expenses := onlyType(FilterByPeriod(ts, p), Expense)
	total := SumByType(expenses, Expense)
	amounts := SortedCategoryAmounts(GroupByCategory(expenses))

	out := make([]CategoryShare, 0, len(amounts))
	for _, ca := range amounts {
		out = append(out, CategoryShare{
			Category: reg.Resolve(ca.CategoryID),
			Amount:   ca.Amount,
			Percent:  PercentOfTotal(ca.Amount, total),
		})
	}
	return out
}
