package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Display attributes used when a category id cannot be resolved.
const (
	FallbackCategoryName  = "Uncategorized"
	FallbackCategoryColor = "#6b7280"
	FallbackCategoryIcon  = "tag"
)

// CategoryDisplay is what the presentation layer needs to render a category.
type CategoryDisplay struct {
	ID    string
	Name  string
	Type  TransactionType
	Color string
	Icon  string
	Known bool
}

// DefaultCategories returns the seed set available at startup.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food & Dining", Type: Expense, Color: "#ef4444", Icon: "utensils"},
		{ID: "2", Name: "Transportation", Type: Expense, Color: "#3b82f6", Icon: "car"},
		{ID: "3", Name: "Bills & Utilities", Type: Expense, Color: "#f59e0b", Icon: "receipt"},
		{ID: "4", Name: "Entertainment", Type: Expense, Color: "#8b5cf6", Icon: "film"},
		{ID: "5", Name: "Shopping", Type: Expense, Color: "#ec4899", Icon: "shopping-bag"},
		{ID: "6", Name: "Healthcare", Type: Expense, Color: "#10b981", Icon: "heart"},
		{ID: "7", Name: "Travel", Type: Expense, Color: "#06b6d4", Icon: "plane"},
		{ID: "8", Name: "Salary", Type: Income, Color: "#22c55e", Icon: "banknote"},
		{ID: "9", Name: "Business", Type: Income, Color: "#f97316", Icon: "briefcase"},
		{ID: "10", Name: "Investments", Type: Income, Color: "#6366f1", Icon: "trending-up"},
	}
}

// Registry resolves category ids to display attributes. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	cats   []Category
	byID   map[string]int
	byName map[string]int
}

// NewRegistry builds a registry, rejecting duplicate ids or names.
func NewRegistry(categories ...Category) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]int, len(categories)),
		byName: make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		if _, err := r.add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustDefaultRegistry returns a registry holding DefaultCategories.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCategories()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Add appends a category. An empty id is replaced with a generated one.
func (r *Registry) Add(c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(c)
}

func (r *Registry) add(c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Color == "" {
		c.Color = FallbackCategoryColor
	}
	if c.Icon == "" {
		c.Icon = FallbackCategoryIcon
	}
	if _, ok := r.byID[c.ID]; ok {
		return Category{}, fmt.Errorf("%w: id %q", ErrDuplicateCategory, c.ID)
	}
	key := nameKey(c.Name)
	if _, ok := r.byName[key]; ok {
		return Category{}, fmt.Errorf("%w: name %q", ErrDuplicateCategory, c.Name)
	}
	r.cats = append(r.cats, c)
	r.byID[c.ID] = len(r.cats) - 1
	r.byName[key] = len(r.cats) - 1
	return c, nil
}

func (r *Registry) Lookup(id string) (Category, bool) {
	if r == nil {
		return Category{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Category{}, false
	}
	return r.cats[i], true
}

// ByName finds a category by case-insensitive name.
func (r *Registry) ByName(name string) (Category, bool) {
	if r == nil {
		return Category{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[nameKey(name)]
	if !ok {
		return Category{}, false
	}
	return r.cats[i], true
}

// Resolve never fails: unknown ids map to the fallback display.
func (r *Registry) Resolve(id string) CategoryDisplay {
	c, ok := r.Lookup(id)
	if !ok {
		return CategoryDisplay{
			ID:    id,
			Name:  FallbackCategoryName,
			Color: FallbackCategoryColor,
			Icon:  FallbackCategoryIcon,
		}
	}
	return CategoryDisplay{ID: c.ID, Name: c.Name, Type: c.Type, Color: c.Color, Icon: c.Icon, Known: true}
}

// ByType lists categories of typ in registration order.
func (r *Registry) ByType(typ TransactionType) []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.cats))
	for _, c := range r.cats {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) All() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Category(nil), r.cats...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cats)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
