package core

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	StatusOnTrack       BudgetStatus = "on-track"
	StatusWarning       BudgetStatus = "warning"
	StatusOverThreshold BudgetStatus = "over-threshold"
)

// Classification thresholds, in percent of the limit.
const (
	WarningThreshold  = 70
	CriticalThreshold = 90
)

var (
	ErrInvalidBudgetLimit = errors.New("budget limit must be positive")
	ErrNegativeSpent      = errors.New("spent amount cannot be negative")
)

type BudgetStatus string

func (s BudgetStatus) String() string {
	return string(s)
}

// BudgetEvaluation is the outcome of comparing spend against a limit.
type BudgetEvaluation struct {
	Spent        Money
	Limit        Money
	Percentage   float64
	Status       BudgetStatus
	IsOverBudget bool
	Remaining    Money // negative when over budget
	Overrun      Money // zero unless over budget
}

// BarPercent caps the percentage at 100 for progress displays.
func (e BudgetEvaluation) BarPercent() float64 {
	if e.Percentage > 100 {
		return 100
	}
	return e.Percentage
}

// EvaluateBudget classifies spent against limit. Thresholds are compared on
// integer cents so boundary values are exact.
func EvaluateBudget(spent, limit Money) (BudgetEvaluation, error) {
	if limit.Cents <= 0 {
		return BudgetEvaluation{}, fmt.Errorf("%w: got %d cents", ErrInvalidBudgetLimit, limit.Cents)
	}
	if spent.Cents < 0 {
		return BudgetEvaluation{}, fmt.Errorf("%w: got %d cents", ErrNegativeSpent, spent.Cents)
	}

	ev := BudgetEvaluation{
		Spent:        spent,
		Limit:        limit,
		Percentage:   float64(spent.Cents) / float64(limit.Cents) * 100,
		Status:       classify(spent.Cents, limit.Cents),
		IsOverBudget: spent.Cents > limit.Cents,
		Remaining:    limit.Sub(spent),
	}
	if ev.IsOverBudget {
		ev.Overrun = spent.Sub(limit)
	}
	return ev, nil
}

func classify(spent, limit int64) BudgetStatus {
	switch {
	case reaches(spent, limit, CriticalThreshold):
		return StatusOverThreshold
	case reaches(spent, limit, WarningThreshold):
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// reaches reports spent*100 >= pct*limit exactly, at any magnitude.
func reaches(spent, limit, pct int64) bool {
	lhs := new(big.Int).Mul(big.NewInt(spent), big.NewInt(100))
	rhs := new(big.Int).Mul(big.NewInt(pct), big.NewInt(limit))
	return lhs.Cmp(rhs) >= 0
}

// BudgetLine is a budget with its derived spend and evaluation.
type BudgetLine struct {
	Budget     Budget
	Category   CategoryDisplay
	Evaluation BudgetEvaluation
}

// BudgetReport evaluates every budget of p. Spend is derived from the expense
// transactions of the budget's category in p, never taken from the budget record.
func BudgetReport(budgets []Budget, ts []Transaction, p Period, reg *Registry) ([]BudgetLine, error) {
	spent := GroupByCategory(onlyType(FilterByPeriod(ts, p), Expense))

	lines := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		if b.Period != p {
			continue
		}
		ev, err := EvaluateBudget(spent[b.CategoryID], b.Limit)
		if err != nil {
			return nil, fmt.Errorf("evaluate budget %s: %w", b.ID, err)
		}
		lines = append(lines, BudgetLine{
			Budget:     b,
			Category:   reg.Resolve(b.CategoryID),
			Evaluation: ev,
		})
	}
	return lines, nil
}
