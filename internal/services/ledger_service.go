package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// LedgerService is the write path: it validates, enforces category
// integrity, persists, then announces the change.
type LedgerService struct {
	store     ports.Store
	publisher ports.EventPublisher
	logger    *log.Logger
	audit     *log.StructuredLogger
	now       func() time.Time
}

func NewLedgerService(store ports.Store, publisher ports.EventPublisher, logger *log.Logger) *LedgerService {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		audit:     log.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

func (s *LedgerService) checkCategory(ctx context.Context, t core.Transaction) error {
	reg, err := loadRegistry(ctx, s.store)
	if err != nil {
		return err
	}
	c, ok := reg.Lookup(t.CategoryID)
	return core.CheckCategory(t, c, ok)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	t.ID = ""
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.audit.LogTransactionWritten(ctx, log.OpCreate, created.UserID, created.ID, string(created.Type), created.CategoryID, created.Amount.Cents)
	s.publish(ctx, ports.EventCreated, created, nil)
	return created, nil
}

// UpdateTransaction validates the patched transaction against the version
// the store is about to overwrite, not an earlier read.
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return s.store.GetTransaction(ctx, userID, id)
	}
	// Categories are append-only, so a registry loaded before the write
	// still holds every category the check can see.
	reg, err := loadRegistry(ctx, s.store)
	if err != nil {
		return core.Transaction{}, err
	}

	var cur core.Transaction
	var rejected error
	updated, err := s.store.UpdateTransaction(ctx, userID, id, patch, func(before, next core.Transaction) error {
		c, ok := reg.Lookup(next.CategoryID)
		if rejected = core.CheckCategory(next, c, ok); rejected != nil {
			return rejected
		}
		cur = before
		return nil
	})
	switch {
	case rejected != nil:
		return core.Transaction{}, rejected
	case err != nil:
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.audit.LogTransactionWritten(ctx, log.OpUpdate, userID, id, string(updated.Type), updated.CategoryID, updated.Amount.Cents)
	s.publish(ctx, ports.EventUpdated, updated, &cur)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	cur, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.audit.LogTransactionWritten(ctx, log.OpDelete, userID, id, string(cur.Type), cur.CategoryID, cur.Amount.Cents)
	s.publish(ctx, ports.EventDeleted, cur, nil)
	return nil
}

func (s *LedgerService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	added, err := s.store.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "category added", log.FieldCategoryID, added.ID, "name", added.Name)
	return added, nil
}

// SetBudget upserts a budget after checking it targets an expense category.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	reg, err := loadRegistry(ctx, s.store)
	if err != nil {
		return core.Budget{}, err
	}
	c, ok := reg.Lookup(b.CategoryID)
	if !ok {
		return core.Budget{}, fmt.Errorf("%w: %s", core.ErrUnknownCategory, b.CategoryID)
	}
	if c.Type != core.Expense {
		return core.Budget{}, fmt.Errorf("%w: budgets apply to expense categories, %q is %s", core.ErrCategoryTypeMismatch, c.Name, c.Type)
	}
	saved, err := s.store.SetBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.logger.InfoContext(ctx, "budget set",
		log.FieldUserID, saved.UserID,
		log.FieldCategoryID, saved.CategoryID,
		log.FieldPeriod, saved.Period.String(),
		log.FieldLimitCents, saved.Limit.Cents)
	return saved, nil
}

// publish is best effort; the write already succeeded.
func (s *LedgerService) publish(ctx context.Context, kind ports.EventKind, t core.Transaction, before *core.Transaction) {
	p := core.PeriodOf(t.Date)
	e := ports.TransactionEvent{
		Kind:          kind,
		TransactionID: t.ID,
		UserID:        t.UserID,
		Year:          p.Year,
		Month:         int(p.Month),
		Timestamp:     s.now().UTC(),
	}
	if before != nil {
		prev := core.PeriodOf(before.Date)
		e.PreviousYear, e.PreviousMonth = prev.Year, int(prev.Month)
	}
	if err := s.publisher.PublishTransactionEvent(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish transaction event",
			log.FieldTransactionID, t.ID,
			log.FieldEventKind, string(kind),
			log.FieldError, err)
	}
}

// Close releases the store and, when closable, the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func loadRegistry(ctx context.Context, repo ports.CategoryRepository) (*core.Registry, error) {
	cats, err := repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	reg, err := core.NewRegistry(cats...)
	if err != nil {
		return nil, fmt.Errorf("build category registry: %w", err)
	}
	return reg, nil
}
