package core

import (
	"errors"
	"sync"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := MustDefaultRegistry()
	if reg.Len() != 10 {
		t.Fatalf("expected 10 seed categories, got %d", reg.Len())
	}
	expense := reg.ByType(Expense)
	income := reg.ByType(Income)
	if len(expense) != 7 || len(income) != 3 {
		t.Fatalf("expense=%d income=%d", len(expense), len(income))
	}
	if expense[0].Name != "Food & Dining" || income[0].Name != "Salary" {
		t.Fatalf("registration order not preserved: %v / %v", expense[0].Name, income[0].Name)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := MustDefaultRegistry()

	d := reg.Resolve("3")
	if !d.Known || d.Name != "Bills & Utilities" || d.Color != "#f59e0b" || d.Type != Expense {
		t.Fatalf("unexpected display: %+v", d)
	}

	d = reg.Resolve("does-not-exist")
	if d.Known || d.Color != "#6b7280" || d.Name != FallbackCategoryName || d.ID != "does-not-exist" {
		t.Fatalf("unexpected fallback: %+v", d)
	}

	var nilReg *Registry
	if d := nilReg.Resolve("1"); d.Known || d.Color != FallbackCategoryColor {
		t.Fatalf("nil registry should resolve to fallback: %+v", d)
	}
}

func TestRegistryAdd(t *testing.T) {
	reg := MustDefaultRegistry()

	c, err := reg.Add(Category{Name: "  Pets ", Type: Expense})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" || c.Name != "Pets" || c.Color != FallbackCategoryColor || c.Icon != FallbackCategoryIcon {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if got, ok := reg.ByName("pets"); !ok || got.ID != c.ID {
		t.Fatalf("ByName lookup failed: %+v %v", got, ok)
	}

	if _, err := reg.Add(Category{Name: "food & dining", Type: Expense}); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	if _, err := reg.Add(Category{ID: "1", Name: "Other", Type: Expense}); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := reg.Add(Category{Name: "Gifts", Type: "transfer"}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := reg.Add(Category{Type: Income}); !errors.Is(err, ErrEmptyCategoryName) {
		t.Fatalf("expected ErrEmptyCategoryName, got %v", err)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Category{ID: "a", Name: "Rent", Type: Expense},
		Category{ID: "b", Name: "RENT", Type: Expense},
	)
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := MustDefaultRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.Add(Category{Type: Expense, Name: "c" + string(rune('a'+i))})
		}()
		go func() {
			defer wg.Done()
			_ = reg.Resolve("1")
			_ = reg.ByType(Expense)
		}()
	}
	wg.Wait()
	if reg.Len() != 18 {
		t.Fatalf("expected 18 categories, got %d", reg.Len())
	}
}
