// Package ports declares the outbound interfaces the services depend on.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

type (
	TransactionRepository interface {
		// ListTransactions returns a snapshot of every transaction of userID.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// UpdateTransaction patches the current version. A non-nil check runs
		// in the same critical section as the write and can reject it.
		UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch, check func(cur, next core.Transaction) error) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryRepository interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	BudgetRepository interface {
		ListBudgets(ctx context.Context, userID string, p core.Period) ([]core.Budget, error)
		// SetBudget replaces any budget with the same user, category and period.
		SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		// BudgetUsers lists users owning at least one budget in p.
		BudgetUsers(ctx context.Context, p core.Period) ([]string, error)
	}

	// Store is a backend serving every repository.
	Store interface {
		TransactionRepository
		CategoryRepository
		BudgetRepository
		Close() error
	}

	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, e TransactionEvent) error
	}

	SummaryExporter interface {
		ExportMonthSummary(ctx context.Context, userID string, ov core.MonthOverview, lines []core.BudgetLine) error
	}
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent announces a ledger write. Previous* is set when an update
// moved the transaction to another period.
type TransactionEvent struct {
	Kind          EventKind `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	PreviousYear  int       `json:"previous_year,omitempty"`
	PreviousMonth int       `json:"previous_month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e TransactionEvent) Period() core.Period {
	return core.NewPeriod(e.Year, time.Month(e.Month))
}

// PreviousPeriod reports the period the transaction left, if any.
func (e TransactionEvent) PreviousPeriod() (core.Period, bool) {
	if e.PreviousYear == 0 || e.PreviousMonth == 0 {
		return core.Period{}, false
	}
	p := core.NewPeriod(e.PreviousYear, time.Month(e.PreviousMonth))
	return p, p != e.Period()
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionEvent(context.Context, TransactionEvent) error { return nil }
