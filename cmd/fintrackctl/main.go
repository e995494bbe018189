// Command fintrackctl prints reports and manages categories and budgets
// against the configured fintrack backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "Inspect and manage fintrack data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("user", "u", "", "user id (default: DEMO_USER_ID)")
	root.PersistentFlags().Bool("demo", false, "load the built-in demo data before running")
	root.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")

	root.AddCommand(summaryCmd())
	root.AddCommand(breakdownCmd())
	root.AddCommand(seriesCmd())
	root.AddCommand(budgetsCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(addCmd())
	root.AddCommand(seedCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
