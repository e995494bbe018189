// Package memory is the in-process store. Each user's transactions live in an
// immutable slice swapped atomically on write, so readers always get a
// consistent snapshot without taking a lock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type ledger struct {
	mu      sync.Mutex // serializes writers of this user
	snap    atomic.Pointer[[]core.Transaction]
	budgets []core.Budget
}

func (l *ledger) load() []core.Transaction {
	if p := l.snap.Load(); p != nil {
		return *p
	}
	return nil
}

type Store struct {
	mu         sync.Mutex
	ledgers    map[string]*ledger
	categories *core.Registry
	now        func() time.Time
}

// New returns a store seeded with categories. With no categories the
// default set is used.
func New(categories ...core.Category) (*Store, error) {
	if len(categories) == 0 {
		categories = core.DefaultCategories()
	}
	reg, err := core.NewRegistry(categories...)
	if err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	return &Store{
		ledgers:    make(map[string]*ledger),
		categories: reg,
		now:        time.Now,
	}, nil
}

// lookup returns the user's ledger or nil. Read paths use it so unknown
// users never allocate an entry.
func (s *Store) lookup(userID string) *ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledgers[userID]
}

func (s *Store) ledger(userID string) *ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		l = &ledger{}
		s.ledgers[userID] = l
	}
	return l
}

// ListTransactions returns the current snapshot. Callers must not modify it.
func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	l := s.lookup(userID)
	if l == nil {
		return nil, nil
	}
	return l.load(), nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	ts, _ := s.ListTransactions(ctx, userID)
	for _, t := range ts {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	l := s.ledger(t.UserID)
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.load()
	for _, x := range cur {
		if x.ID == t.ID {
			return core.Transaction{}, fmt.Errorf("transaction %s already exists", t.ID)
		}
	}
	next := make([]core.Transaction, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, t)
	l.snap.Store(&next)
	return t, nil
}

// UpdateTransaction applies patch to the current version. check, when set,
// sees the current and patched transaction under the user's write lock and
// can veto the write.
func (s *Store) UpdateTransaction(_ context.Context, userID, id string, patch core.TransactionPatch, check func(cur, next core.Transaction) error) (core.Transaction, error) {
	l := s.lookup(userID)
	if l == nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.load()
	for i, x := range cur {
		if x.ID != id {
			continue
		}
		updated := patch.Apply(x)
		if err := updated.Validate(); err != nil {
			return core.Transaction{}, err
		}
		if check != nil {
			if err := check(x, updated); err != nil {
				return core.Transaction{}, err
			}
		}
		next := append([]core.Transaction(nil), cur...)
		next[i] = updated
		l.snap.Store(&next)
		return updated, nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	l := s.lookup(userID)
	if l == nil {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.load()
	for i, x := range cur {
		if x.ID != id {
			continue
		}
		next := make([]core.Transaction, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		l.snap.Store(&next)
		return nil
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	return s.categories.All(), nil
}

func (s *Store) AddCategory(_ context.Context, c core.Category) (core.Category, error) {
	return s.categories.Add(c)
}

func (s *Store) ListBudgets(_ context.Context, userID string, p core.Period) ([]core.Budget, error) {
	l := s.lookup(userID)
	if l == nil {
		return []core.Budget{}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Budget, 0, len(l.budgets))
	for _, b := range l.budgets {
		if b.Period == p {
			out = append(out, b)
		}
	}
	return out, nil
}

// SetBudget upserts on (user, category, period). A replaced budget gets a new id.
func (s *Store) SetBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = uuid.NewString()

	l := s.ledger(b.UserID)
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.budgets {
		if x.CategoryID == b.CategoryID && x.Period == b.Period {
			l.budgets[i] = b
			return b, nil
		}
	}
	l.budgets = append(l.budgets, b)
	return b, nil
}

func (s *Store) BudgetUsers(_ context.Context, p core.Period) ([]string, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.ledgers))
	ledgers := make([]*ledger, 0, len(s.ledgers))
	for id, l := range s.ledgers {
		ids = append(ids, id)
		ledgers = append(ledgers, l)
	}
	s.mu.Unlock()

	var users []string
	for i, l := range ledgers {
		l.mu.Lock()
		for _, b := range l.budgets {
			if b.Period == p {
				users = append(users, ids[i])
				break
			}
		}
		l.mu.Unlock()
	}
	sort.Strings(users)
	return users, nil
}

func (s *Store) Close() error { return nil }
