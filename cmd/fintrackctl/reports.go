package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the month overview",
		Args:  cobra.NoArgs,
	}
	period := periodFlag(cmd)
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		p, err := period()
		if err != nil {
			return err
		}
		ov, err := e.res.Dashboard.Overview(ctx, e.user, p)
		if err != nil {
			return err
		}
		reg, err := e.res.Dashboard.Registry(ctx)
		if err != nil {
			return err
		}
		return writeOverview(cmd.OutOrStdout(), ov, reg)
	})
	return cmd
}

func breakdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show expense share per category",
		Args:  cobra.NoArgs,
	}
	period := periodFlag(cmd)
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		p, err := period()
		if err != nil {
			return err
		}
		shares, err := e.res.Dashboard.Breakdown(ctx, e.user, p)
		if err != nil {
			return err
		}
		return writeBreakdown(cmd.OutOrStdout(), shares)
	})
	return cmd
}

func seriesCmd() *cobra.Command {
	var (
		window  int
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show income and expense per month, oldest first",
		Args:  cobra.NoArgs,
	}
	period := periodFlag(cmd)
	cmd.Flags().IntVarP(&window, "window", "w", 6, "number of months ending at --period")
	cmd.Flags().BoolVar(&compact, "compact", false, "abbreviate amounts (LKR 1.5M)")
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		p, err := period()
		if err != nil {
			return err
		}
		series, err := e.res.Dashboard.Series(ctx, e.user, p, window)
		if err != nil {
			return err
		}
		format := core.FormatLKR
		if compact {
			format = core.FormatCompactLKR
		}
		return writeSeries(cmd.OutOrStdout(), series, format)
	})
	return cmd
}

func writeOverview(out io.Writer, ov core.MonthOverview, reg *core.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Period\t%s\n", ov.Period)
	fmt.Fprintf(w, "Income\t%s\t%s\n", core.FormatLKR(ov.Income), formatDelta(ov.IncomeDelta))
	fmt.Fprintf(w, "Expense\t%s\t%s\n", core.FormatLKR(ov.Expense), formatDelta(ov.ExpenseDelta))
	fmt.Fprintf(w, "Balance\t%s\t%s\n", core.FormatLKR(ov.Balance), signedLKR(ov.BalanceChange))
	fmt.Fprintf(w, "Transactions\t%d\n", ov.Count)
	if len(ov.ByCategory) > 0 {
		fmt.Fprintln(w, "\nCategory\tSpent")
		for _, ca := range ov.ByCategory {
			fmt.Fprintf(w, "%s\t%s\n", reg.Resolve(ca.CategoryID).Name, core.FormatLKR(ca.Amount))
		}
	}
	return w.Flush()
}

func writeBreakdown(out io.Writer, shares []core.CategoryShare) error {
	if len(shares) == 0 {
		_, err := fmt.Fprintln(out, "No expenses in this period.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Category\tAmount\tShare")
	for _, s := range shares {
		fmt.Fprintf(w, "%s\t%s\t%s%%\n", s.Category.Name, core.FormatLKR(s.Amount), strconv.FormatFloat(s.Percent, 'f', 2, 64))
	}
	return w.Flush()
}

func writeSeries(out io.Writer, series []core.MonthTotals, format func(core.Money) string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Month\tIncome\tExpense\tBalance")
	for _, m := range series {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Period, format(m.Income), format(m.Expense), format(m.Balance()))
	}
	return w.Flush()
}

func writeBudgets(out io.Writer, lines []core.BudgetLine) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(out, "No budgets set for this period.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Category\tLimit\tSpent\tRemaining\tUsed\tStatus")
	for _, l := range lines {
		e := l.Evaluation
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%%\t%s\n",
			l.Category.Name,
			core.FormatLKR(e.Limit),
			core.FormatLKR(e.Spent),
			core.FormatLKR(e.Remaining),
			strconv.FormatFloat(e.Percentage, 'f', 1, 64),
			e.Status)
	}
	return w.Flush()
}

func formatDelta(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64) + "%"
	if pct > 0 {
		return "+" + s
	}
	return s
}

func signedLKR(m core.Money) string {
	if m.Cents > 0 {
		return "+" + core.FormatLKR(m)
	}
	return core.FormatLKR(m)
}
