package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/seed"
)

// env is what every subcommand works against.
type env struct {
	logger *log.Logger
	res    *backend.Result
	user   string
}

// openEnv loads the configuration and opens the backend. Logs go to stderr
// so stdout stays parseable.
func openEnv(cmd *cobra.Command) (*env, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: log.ComponentCLI, Output: os.Stderr})

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	// Reports never need to notify the worker.
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), bcfg)
	if err != nil {
		return nil, err
	}

	e := &env{logger: logger, res: res, user: cfg.DemoUserID}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		e.user = u
	}
	demo, _ := cmd.Flags().GetBool("demo")
	if demo {
		if _, err := seed.Apply(cmd.Context(), seed.Demo(), res.Ledger, logger); err != nil {
			_ = res.Cleanup()
			return nil, fmt.Errorf("load demo data: %w", err)
		}
	}
	if bcfg.Type == backend.MemoryBackend && bcfg.SeedFile == "" && !demo {
		logger.Warn("Using the memory backend; set DATA_BACKEND=sqlite or pass --demo to see data")
	}
	return e, nil
}

func (e *env) Close() error {
	return e.res.Cleanup()
}

// withEnv wraps a command body with openEnv and Close.
func withEnv(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd.Context(), cmd, e, args)
	}
}

// periodFlag adds --period and returns a resolver defaulting to the
// current month.
func periodFlag(cmd *cobra.Command) func() (core.Period, error) {
	var raw string
	cmd.Flags().StringVarP(&raw, "period", "p", "", "month as YYYY-MM (default: current month)")
	return func() (core.Period, error) {
		if raw == "" {
			return core.PeriodOf(core.DateOf(time.Now())), nil
		}
		return core.ParsePeriod(raw)
	}
}
