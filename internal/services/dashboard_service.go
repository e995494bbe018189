package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// MaxSeriesWindow bounds MonthlySeries requests.
const MaxSeriesWindow = 24

// TransactionQuery combines the list filters of the transactions view.
type TransactionQuery struct {
	Filter core.TransactionFilter
	Search string
	Limit  int // zero means no limit
}

// DashboardService is the read path. Every call takes a fresh snapshot of the
// user's transactions and runs the engine over it; nothing is cached.
type DashboardService struct {
	transactions ports.TransactionRepository
	categories   ports.CategoryRepository
	budgets      ports.BudgetRepository
}

func NewDashboardService(store ports.Store) *DashboardService {
	return &DashboardService{transactions: store, categories: store, budgets: store}
}

func (s *DashboardService) snapshot(ctx context.Context, userID string) ([]core.Transaction, error) {
	ts, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return ts, nil
}

func (s *DashboardService) Registry(ctx context.Context) (*core.Registry, error) {
	return loadRegistry(ctx, s.categories)
}

func (s *DashboardService) Overview(ctx context.Context, userID string, p core.Period) (core.MonthOverview, error) {
	if err := p.Validate(); err != nil {
		return core.MonthOverview{}, err
	}
	ts, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.Summarize(ts, p), nil
}

func (s *DashboardService) Breakdown(ctx context.Context, userID string, p core.Period) ([]core.CategoryShare, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	reg, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return core.CategoryBreakdown(ts, p, reg), nil
}

func (s *DashboardService) Series(ctx context.Context, userID string, ref core.Period, window int) ([]core.MonthTotals, error) {
	if window > MaxSeriesWindow {
		return nil, fmt.Errorf("%w: at most %d months", core.ErrInvalidWindow, MaxSeriesWindow)
	}
	ts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.MonthlySeries(ts, ref, window)
}

// Budgets evaluates the user's budgets of p against derived spend.
func (s *DashboardService) Budgets(ctx context.Context, userID string, p core.Period) ([]core.BudgetLine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	budgets, err := s.budgets.ListBudgets(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	ts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	reg, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return core.BudgetReport(budgets, ts, p, reg)
}

// Transactions lists the user's transactions newest first.
func (s *DashboardService) Transactions(ctx context.Context, userID string, q TransactionQuery) ([]core.Transaction, error) {
	ts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	ts = core.Filter(ts, q.Filter)
	if q.Search != "" {
		reg, err := s.Registry(ctx)
		if err != nil {
			return nil, err
		}
		ts = core.Search(ts, q.Search, reg)
	}
	if q.Limit > 0 {
		return core.Recent(ts, q.Limit), nil
	}
	return core.SortByDateDesc(ts), nil
}

func (s *DashboardService) Transaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, userID, id)
}

// Categories lists categories, optionally restricted to one type.
func (s *DashboardService) Categories(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	reg, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return reg.All(), nil
	}
	return reg.ByType(typ), nil
}
