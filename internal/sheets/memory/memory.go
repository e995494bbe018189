// Package memory keeps exported month summaries in process, laid out the
// same way the Google Sheets exporter writes them.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	gsheet "fintrack/internal/sheets/google"
)

// Summary is one exported month block.
type Summary struct {
	UserID   string
	Sheet    string
	Overview core.MonthOverview
	Rows     [][]any
}

type Exporter struct {
	mu        sync.Mutex
	sheetBase string
	reg       *core.Registry
	blocks    map[string]Summary
	history   []Summary
	err       error
}

var _ ports.SummaryExporter = (*Exporter)(nil)

// New returns an exporter resolving category names against reg. A nil reg
// uses the default categories.
func New(sheetBase string, reg *core.Registry) *Exporter {
	if sheetBase == "" {
		sheetBase = "Summary"
	}
	if reg == nil {
		reg = core.MustDefaultRegistry()
	}
	return &Exporter{sheetBase: sheetBase, reg: reg, blocks: map[string]Summary{}}
}

// FailWith makes every following export return err; nil restores success.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// ExportMonthSummary replaces the block for the user's month.
func (e *Exporter) ExportMonthSummary(_ context.Context, userID string, ov core.MonthOverview, lines []core.BudgetLine) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	s := Summary{
		UserID:   userID,
		Sheet:    gsheet.SheetTitle(e.sheetBase, ov.Period.Year, userID),
		Overview: ov,
		Rows:     gsheet.SummaryRows(ov, lines, e.reg),
	}
	e.blocks[key(userID, ov.Period)] = s
	e.history = append(e.history, s)
	return nil
}

// Latest returns the current block for userID and p.
func (e *Exporter) Latest(userID string, p core.Period) (Summary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.blocks[key(userID, p)]
	return s, ok
}

// History returns every successful export in call order.
func (e *Exporter) History() []Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Summary(nil), e.history...)
}

// Reset forgets all exports.
func (e *Exporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocks = map[string]Summary{}
	e.history = nil
}

func key(userID string, p core.Period) string {
	return fmt.Sprintf("%s|%s", userID, p)
}
