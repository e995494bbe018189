// Package seed loads categories, budgets and transactions from a TOML file.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

//go:embed demo.toml
var demoTOML string

type File struct {
	Categories   []Category    `toml:"categories"`
	Budgets      []Budget      `toml:"budgets"`
	Transactions []Transaction `toml:"transactions"`
}

type Category struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Color string `toml:"color"`
	Icon  string `toml:"icon"`
}

type Budget struct {
	User     string `toml:"user"`
	Category string `toml:"category"`
	Limit    string `toml:"limit"`
	Period   string `toml:"period"`
}

type Transaction struct {
	User        string `toml:"user"`
	Type        string `toml:"type"`
	Amount      string `toml:"amount"`
	Category    string `toml:"category"`
	Description string `toml:"description"`
	Date        string `toml:"date"`
}

// Writer is the write path the seed goes through; services.LedgerService
// satisfies it.
type Writer interface {
	AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
}

// Result counts what was applied.
type Result struct {
	Categories   int
	Budgets      int
	Transactions int
	Skipped      int
}

func Decode(r io.Reader) (File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return File{}, fmt.Errorf("decode seed: unknown keys %v", undec)
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Demo returns the bundled demo account.
func Demo() File {
	var f File
	if _, err := toml.Decode(demoTOML, &f); err != nil {
		panic(fmt.Sprintf("embedded demo seed: %v", err))
	}
	return f
}

// Apply writes categories first so later rows can reference them. Categories
// that already exist are skipped; any other error stops the run.
func Apply(ctx context.Context, f File, w Writer, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSeed)
	var res Result

	for i, c := range f.Categories {
		typ, err := core.ParseTransactionType(c.Type)
		if err != nil {
			return res, fmt.Errorf("category %d: %w", i, err)
		}
		_, err = w.AddCategory(ctx, core.Category{ID: c.ID, Name: c.Name, Type: typ, Color: c.Color, Icon: c.Icon})
		if errors.Is(err, core.ErrDuplicateCategory) {
			logger.DebugContext(ctx, "category already present", "name", c.Name)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("category %d (%s): %w", i, c.Name, err)
		}
		res.Categories++
	}

	for i, b := range f.Budgets {
		budget, err := b.toCore()
		if err != nil {
			return res, fmt.Errorf("budget %d: %w", i, err)
		}
		if _, err := w.SetBudget(ctx, budget); err != nil {
			return res, fmt.Errorf("budget %d: %w", i, err)
		}
		res.Budgets++
	}

	for i, t := range f.Transactions {
		tx, err := t.toCore()
		if err != nil {
			return res, fmt.Errorf("transaction %d: %w", i, err)
		}
		if _, err := w.CreateTransaction(ctx, tx); err != nil {
			return res, fmt.Errorf("transaction %d (%s): %w", i, t.Description, err)
		}
		res.Transactions++
	}

	logger.InfoContext(ctx, "seed applied",
		log.FieldOperation, log.OpSeed,
		"categories", res.Categories,
		"budgets", res.Budgets,
		"transactions", res.Transactions,
		"skipped", res.Skipped)
	return res, nil
}

func (b Budget) toCore() (core.Budget, error) {
	limit, err := core.ParseMoney(b.Limit)
	if err != nil {
		return core.Budget{}, err
	}
	p, err := core.ParsePeriod(b.Period)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{UserID: b.User, CategoryID: b.Category, Limit: limit, Period: p}, nil
}

func (t Transaction) toCore() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(t.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(t.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      t.User,
		Type:        typ,
		Amount:      amount,
		CategoryID:  t.Category,
		Description: t.Description,
		Date:        date,
	}, nil
}
