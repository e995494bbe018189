package core

import (
	"sort"
	"strings"
)

// TransactionFilter narrows a transaction list. Zero fields match everything;
// From and To are inclusive.
type TransactionFilter struct {
	Type       TransactionType
	CategoryID string
	From       Date
	To         Date
}

func (f TransactionFilter) match(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

// Filter returns the transactions matching f, preserving order.
func Filter(ts []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Search matches query case-insensitively against the description and the
// resolved category name. An empty query matches everything.
func Search(ts []Transaction, query string, reg *Registry) []Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]Transaction(nil), ts...)
	}
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(reg.Resolve(t.CategoryID).Name), q) {
			out = append(out, t)
		}
	}
	return out
}

// SortByDateDesc returns a copy ordered newest first. Same-day transactions
// keep the most recently created first.
func SortByDateDesc(ts []Transaction) []Transaction {
	out := append([]Transaction(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Recent returns up to n transactions, newest first.
func Recent(ts []Transaction, n int) []Transaction {
	sorted := SortByDateDesc(ts)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
