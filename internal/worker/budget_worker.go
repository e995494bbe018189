package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// EventSource delivers transaction events until ctx ends.
type EventSource interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// BudgetWorker re-evaluates budgets whenever the ledger changes and
// reconciles the current period on a timer.
type BudgetWorker struct {
	dashboard *services.DashboardService
	budgets   ports.BudgetRepository
	exporter  ports.SummaryExporter
	logger    *log.Logger
	now       func() time.Time
}

// NewBudgetWorker builds a worker; exporter may be nil.
func NewBudgetWorker(store ports.Store, exporter ports.SummaryExporter, logger *log.Logger) *BudgetWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BudgetWorker{
		dashboard: services.NewDashboardService(store),
		budgets:   store,
		exporter:  exporter,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// HandleEvent evaluates the event's period, and the period the transaction
// left when an update moved it.
func (w *BudgetWorker) HandleEvent(ctx context.Context, e ports.TransactionEvent) error {
	periods := []core.Period{e.Period()}
	if prev, moved := e.PreviousPeriod(); moved {
		periods = append(periods, prev)
	}
	for _, p := range periods {
		if _, err := w.Evaluate(ctx, e.UserID, p); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate logs every budget of userID in p that needs attention and returns
// those lines. The month summary is exported when an exporter is set.
func (w *BudgetWorker) Evaluate(ctx context.Context, userID string, p core.Period) ([]core.BudgetLine, error) {
	lines, err := w.dashboard.Budgets(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("evaluate budgets of %s for %s: %w", userID, p, err)
	}

	var alerts []core.BudgetLine
	for _, l := range lines {
		ev := l.Evaluation
		if ev.Status == core.StatusOnTrack {
			continue
		}
		alerts = append(alerts, l)
		fields := log.NewFields().
			WithBudget(l.Budget.CategoryID, ev.Spent.Cents, ev.Limit.Cents, ev.Percentage, ev.Status.String()).
			WithOperation(log.OpEvaluate)
		fields[log.FieldUserID] = userID
		fields[log.FieldPeriod] = p.String()

		if ev.IsOverBudget {
			w.logger.ErrorContext(ctx, "budget exceeded", append(fields.ToSlice(), "overrun", core.FormatLKR(ev.Overrun))...)
		} else {
			w.logger.WarnContext(ctx, "budget nearing limit", fields.ToSlice()...)
		}
	}

	if w.exporter != nil {
		w.export(ctx, userID, p, lines)
	}
	return alerts, nil
}

// export failures are logged only; the evaluation itself succeeded.
func (w *BudgetWorker) export(ctx context.Context, userID string, p core.Period, lines []core.BudgetLine) {
	ov, err := w.dashboard.Overview(ctx, userID, p)
	if err == nil {
		err = w.exporter.ExportMonthSummary(ctx, userID, ov, lines)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "month summary export failed",
			log.FieldUserID, userID,
			log.FieldPeriod, p.String(),
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
	}
}

// Reconcile re-evaluates the current period for every user with budgets.
func (w *BudgetWorker) Reconcile(ctx context.Context) error {
	p := core.PeriodOf(core.DateOf(w.now()))
	users, err := w.budgets.BudgetUsers(ctx, p)
	if err != nil {
		return fmt.Errorf("list budget users: %w", err)
	}
	var errs []error
	for _, u := range users {
		if _, err := w.Evaluate(ctx, u, p); err != nil {
			errs = append(errs, err)
		}
	}
	w.logger.InfoContext(ctx, "reconciliation finished",
		log.FieldOperation, log.OpReconcile,
		log.FieldPeriod, p.String(),
		"users", len(users),
		"failures", len(errs))
	return errors.Join(errs...)
}

// Run consumes events and reconciles every interval until ctx ends or the
// consumer fails. A non-positive interval disables reconciliation.
func (w *BudgetWorker) Run(ctx context.Context, source EventSource, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if source != nil {
		g.Go(func() error {
			return source.Consume(ctx, w.HandleEvent)
		})
	}

	if interval > 0 {
		g.Go(func() error {
			if err := w.Reconcile(ctx); err != nil {
				w.logger.ErrorContext(ctx, "startup reconciliation failed", log.FieldError, err)
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.Reconcile(ctx); err != nil {
						w.logger.ErrorContext(ctx, "periodic reconciliation failed", log.FieldError, err)
					}
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
