package http

import (
	"time"

	"fintrack/internal/core"
)

// amount carries money both as a decimal string and as integer cents.
type amount struct {
	Value string `json:"value"`
	Cents int64  `json:"cents"`
}

func toAmount(m core.Money) amount {
	return amount{Value: m.Decimal(), Cents: m.Cents}
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Known *bool  `json:"known,omitempty"`
}

func toCategory(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type), Color: c.Color, Icon: c.Icon}
}

func toCategoryDisplay(d core.CategoryDisplay) categoryResponse {
	known := d.Known
	return categoryResponse{ID: d.ID, Name: d.Name, Type: string(d.Type), Color: d.Color, Icon: d.Icon, Known: &known}
}

type categoryRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type transactionResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Type        string           `json:"type"`
	Amount      amount           `json:"amount"`
	CategoryID  string           `json:"category_id"`
	Category    categoryResponse `json:"category"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toTransaction(t core.Transaction, reg *core.Registry) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      toAmount(t.Amount),
		CategoryID:  t.CategoryID,
		Category:    toCategoryDisplay(reg.Resolve(t.CategoryID)),
		Description: t.Description,
		Date:        t.Date.String(),
		CreatedAt:   t.CreatedAt,
	}
}

type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// toCore parses the request; an empty date means today.
func (req createTransactionRequest) toCore(userID string, today core.Date) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	m, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date := today
	if req.Date != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      m,
		CategoryID:  sanitizeInput(req.CategoryID),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}, nil
}

type patchTransactionRequest struct {
	Type        *string `json:"type"`
	Amount      *string `json:"amount"`
	CategoryID  *string `json:"category_id"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (req patchTransactionRequest) toPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Type != nil {
		typ, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if req.Amount != nil {
		m, err := core.ParseMoney(*req.Amount)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if req.CategoryID != nil {
		id := sanitizeInput(*req.CategoryID)
		p.CategoryID = &id
	}
	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		p.Description = &d
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	return p, nil
}

type totalsResponse struct {
	Period  string `json:"period"`
	Income  amount `json:"income"`
	Expense amount `json:"expense"`
	Balance amount `json:"balance"`
}

func toTotals(m core.MonthTotals) totalsResponse {
	return totalsResponse{
		Period:  m.Period.String(),
		Income:  toAmount(m.Income),
		Expense: toAmount(m.Expense),
		Balance: toAmount(m.Balance()),
	}
}

type categoryAmountResponse struct {
	CategoryID string           `json:"category_id"`
	Category   categoryResponse `json:"category"`
	Amount     amount           `json:"amount"`
}

type overviewResponse struct {
	Period        string                   `json:"period"`
	Year          int                      `json:"year"`
	Month         int                      `json:"month"`
	Income        amount                   `json:"income"`
	Expense       amount                   `json:"expense"`
	Balance       amount                   `json:"balance"`
	Previous      totalsResponse           `json:"previous"`
	IncomeDelta   float64                  `json:"income_delta"`
	ExpenseDelta  float64                  `json:"expense_delta"`
	BalanceChange amount                   `json:"balance_change"`
	ByCategory    []categoryAmountResponse `json:"by_category"`
	Count         int                      `json:"count"`
}

func toOverview(ov core.MonthOverview, reg *core.Registry) overviewResponse {
	out := overviewResponse{
		Period:        ov.Period.String(),
		Year:          ov.Period.Year,
		Month:         int(ov.Period.Month),
		Income:        toAmount(ov.Income),
		Expense:       toAmount(ov.Expense),
		Balance:       toAmount(ov.Balance),
		Previous:      toTotals(ov.Previous),
		IncomeDelta:   ov.IncomeDelta,
		ExpenseDelta:  ov.ExpenseDelta,
		BalanceChange: toAmount(ov.BalanceChange),
		ByCategory:    make([]categoryAmountResponse, 0, len(ov.ByCategory)),
		Count:         ov.Count,
	}
	for _, ca := range ov.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountResponse{
			CategoryID: ca.CategoryID,
			Category:   toCategoryDisplay(reg.Resolve(ca.CategoryID)),
			Amount:     toAmount(ca.Amount),
		})
	}
	return out
}

type shareResponse struct {
	Category categoryResponse `json:"category"`
	Amount   amount           `json:"amount"`
	Percent  float64          `json:"percent"`
}

func toShares(shares []core.CategoryShare) []shareResponse {
	out := make([]shareResponse, 0, len(shares))
	for _, s := range shares {
		out = append(out, shareResponse{
			Category: toCategoryDisplay(s.Category),
			Amount:   toAmount(s.Amount),
			Percent:  s.Percent,
		})
	}
	return out
}

type budgetLineResponse struct {
	BudgetID     string           `json:"budget_id"`
	Period       string           `json:"period"`
	Category     categoryResponse `json:"category"`
	Limit        amount           `json:"limit"`
	Spent        amount           `json:"spent"`
	Remaining    amount           `json:"remaining"`
	Overrun      amount           `json:"overrun"`
	Percentage   float64          `json:"percentage"`
	BarPercent   float64          `json:"bar_percent"`
	Status       string           `json:"status"`
	IsOverBudget bool             `json:"is_over_budget"`
}

func toBudgetLines(lines []core.BudgetLine) []budgetLineResponse {
	out := make([]budgetLineResponse, 0, len(lines))
	for _, l := range lines {
		e := l.Evaluation
		out = append(out, budgetLineResponse{
			BudgetID:     l.Budget.ID,
			Period:       l.Budget.Period.String(),
			Category:     toCategoryDisplay(l.Category),
			Limit:        toAmount(e.Limit),
			Spent:        toAmount(e.Spent),
			Remaining:    toAmount(e.Remaining),
			Overrun:      toAmount(e.Overrun),
			Percentage:   e.Percentage,
			BarPercent:   e.BarPercent(),
			Status:       e.Status.String(),
			IsOverBudget: e.IsOverBudget,
		})
	}
	return out
}

type budgetRequest struct {
	CategoryID string `json:"category_id"`
	Limit      string `json:"limit"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

type budgetResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	CategoryID string `json:"category_id"`
	Period     string `json:"period"`
	Limit      amount `json:"limit"`
}

func toBudget(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		CategoryID: b.CategoryID,
		Period:     b.Period.String(),
		Limit:      toAmount(b.Limit),
	}
}
