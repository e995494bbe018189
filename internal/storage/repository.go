package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository implements every repository port on a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	version, err := RunMigrations(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "db_path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                  core.Transaction
		typ, date, created string
	)
	if err := s.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.CategoryID, &t.Description, &date, &created); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode date of %s: %w", t.ID, err)
	}
	t.Date = d
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.Transaction{}, fmt.Errorf("decode created_at of %s: %w", t.ID, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listTransactionsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return getTransaction(ctx, r.db, userID, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTransaction(ctx context.Context, q queryer, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, getTransactionSQL, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertTransactionSQL,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.CategoryID, t.Description,
		t.Date.Format(dateLayout), t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", translate(err))
	}
	return t, nil
}

// UpdateTransaction applies patch inside one transaction; check, when set,
// runs after the current row is read and can veto the write.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch, check func(cur, next core.Transaction) error) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	cur, err := getTransaction(ctx, tx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	updated := patch.Apply(cur)
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if check != nil {
		if err := check(cur, updated); err != nil {
			return core.Transaction{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, updateTransactionSQL,
		string(updated.Type), updated.Amount.Cents, updated.CategoryID, updated.Description,
		updated.Date.Format(dateLayout), userID, id); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", translate(err))
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTransactionSQL, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddCategory applies the registry rules against the stored set, then inserts.
func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	existing, err := r.ListCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	reg, err := core.NewRegistry(existing...)
	if err != nil {
		return core.Category{}, fmt.Errorf("load categories: %w", err)
	}
	added, err := reg.Add(c)
	if err != nil {
		return core.Category{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertCategorySQL,
		added.ID, added.Name, string(added.Type), added.Color, added.Icon); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", translate(err))
	}
	return added, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, p core.Period) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, listBudgetsSQL, userID, p.Year, int(p.Month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b           core.Budget
			year, month int
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Limit.Cents, &year, &month); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.NewPeriod(year, time.Month(month))
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx, upsertBudgetSQL,
		b.ID, b.UserID, b.CategoryID, b.Limit.Cents, b.Period.Year, int(b.Period.Month)); err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", translate(err))
	}
	return b, nil
}

func (r *SQLiteRepository) BudgetUsers(ctx context.Context, p core.Period) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, budgetUsersSQL, p.Year, int(p.Month))
	if err != nil {
		return nil, fmt.Errorf("list budget users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget user: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// translate maps constraint violations onto domain errors.
func translate(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: categories"):
		return fmt.Errorf("%w: %v", core.ErrDuplicateCategory, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrUnknownCategory, err)
	}
	return err
}
