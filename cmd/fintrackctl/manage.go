package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/seed"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Show budget status for a month",
		Args:  cobra.NoArgs,
	}
	period := periodFlag(cmd)
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		p, err := period()
		if err != nil {
			return err
		}
		lines, err := e.res.Dashboard.Budgets(ctx, e.user, p)
		if err != nil {
			return err
		}
		return writeBudgets(cmd.OutOrStdout(), lines)
	})
	cmd.AddCommand(setBudgetCmd())
	return cmd
}

func setBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <category-id> <limit>",
		Short:   "Create or replace a monthly budget",
		Example: "  fintrackctl budgets set 1 25000 --period 2025-01",
		Args:    cobra.ExactArgs(2),
	}
	period := periodFlag(cmd)
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		p, err := period()
		if err != nil {
			return err
		}
		limit, err := core.ParseMoney(args[1])
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrInvalidBudgetLimit, args[1])
		}
		b, err := e.res.Ledger.SetBudget(ctx, core.Budget{UserID: e.user, CategoryID: args[0], Limit: limit, Period: p})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Budget %s: category %s, %s, limit %s\n", b.ID, b.CategoryID, b.Period, core.FormatLKR(b.Limit))
		return nil
	})
	return cmd
}

func categoriesCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
			var filter core.TransactionType
			if typ != "" {
				t, err := core.ParseTransactionType(typ)
				if err != nil {
					return err
				}
				filter = t
			}
			cats, err := e.res.Dashboard.Categories(ctx, filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tName\tType\tColor")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Color)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only income or expense categories")
	cmd.AddCommand(addCategoryCmd())
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var c core.Category
	var typ string
	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := core.ParseTransactionType(typ)
			if err != nil {
				return err
			}
			c.ID, c.Name, c.Type = args[0], args[1], t
			added, err := e.res.Ledger.AddCategory(ctx, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %s (%s, %s)\n", added.ID, added.Name, added.Type)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "expense", "income or expense")
	cmd.Flags().StringVar(&c.Color, "color", "", "hex display color")
	cmd.Flags().StringVar(&c.Icon, "icon", "", "display icon name")
	return cmd
}

func addCmd() *cobra.Command {
	var typ, category, desc, date string
	cmd := &cobra.Command{
		Use:     "add <amount>",
		Short:   "Record a transaction",
		Example: "  fintrackctl add 2500 --category 1 --desc Groceries --date 2025-01-15",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := core.ParseTransactionType(typ)
			if err != nil {
				return err
			}
			amount, err := core.ParseMoney(args[0])
			if err != nil {
				return err
			}
			d := core.DateOf(time.Now())
			if date != "" {
				if d, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			created, err := e.res.Ledger.CreateTransaction(ctx, core.Transaction{
				UserID:      e.user,
				Type:        t,
				Amount:      amount,
				CategoryID:  category,
				Description: desc,
				Date:        d,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (%s)\n", created.Type, core.FormatLKR(created.Amount), created.Date, created.ID)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "expense", "income or expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("desc")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.toml]",
		Short: "Load categories, budgets and transactions from a TOML file",
		Long:  "Load a TOML seed file. Without a file the built-in demo data is loaded.\nCategories that already exist are skipped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			f := seed.Demo()
			if len(args) == 1 {
				var err error
				if f, err = seed.LoadFile(args[0]); err != nil {
					return err
				}
			}
			res, err := seed.Apply(ctx, f, e.res.Ledger, e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d budgets, %d transactions (%d skipped)\n",
				res.Categories, res.Budgets, res.Transactions, res.Skipped)
			return nil
		}),
	}
}
