package core

import "errors"

var ErrInvalidWindow = errors.New("window must be at least one month")

// MonthTotals holds income and expense totals of one period.
type MonthTotals struct {
	Period  Period
	Income  Money
	Expense Money
}

// Balance is income minus expense; it may be negative.
func (m MonthTotals) Balance() Money {
	return m.Income.Sub(m.Expense)
}

// FilterByPeriod returns the transactions dated inside p, preserving order.
func FilterByPeriod(ts []Transaction, p Period) []Transaction {
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// SumByType sums the amounts of transactions of the given type.
func SumByType(ts []Transaction, typ TransactionType) Money {
	var total Money
	for _, t := range ts {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// GroupByCategory sums amounts per category id. Only categories present in ts appear.
func GroupByCategory(ts []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, t := range ts {
		out[t.CategoryID] = out[t.CategoryID].Add(t.Amount)
	}
	return out
}

// PercentOfTotal returns part as a percentage of total, or 0 when total is not positive.
func PercentOfTotal(part, total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}

// PeriodDelta returns the percentage change from previous to current.
// A zero baseline yields 0, not an infinite change.
func PeriodDelta(current, previous Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// Totals computes income and expense for p.
func Totals(ts []Transaction, p Period) MonthTotals {
	in := FilterByPeriod(ts, p)
	return MonthTotals{
		Period:  p,
		Income:  SumByType(in, Income),
		Expense: SumByType(in, Expense),
	}
}

// MonthlySeries returns totals for the window months ending at ref, oldest first.
func MonthlySeries(ts []Transaction, ref Period, window int) ([]MonthTotals, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	first := ref.AddMonths(-(window - 1))
	series := make([]MonthTotals, window)
	index := make(map[Period]int, window)
	for i := range series {
		p := first.AddMonths(i)
		series[i].Period = p
		index[p] = i
	}

	for _, t := range ts {
		i, ok := index[PeriodOf(t.Date)]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			series[i].Income = series[i].Income.Add(t.Amount)
		case Expense:
			series[i].Expense = series[i].Expense.Add(t.Amount)
		}
	}
	return series, nil
}

func onlyType(ts []Transaction, typ TransactionType) []Transaction {
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}
