package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SeedFile: "seed.toml"}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, got.Type)
	assert.Equal(t, "seed.toml", got.SeedFile)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "mongo"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"memory", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(quietLogger()).CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.IsType(t, ports.NoopPublisher{}, res.Publisher)
	cats, err := res.Dashboard.Categories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cats, 10)
}

func TestCreateSQLiteBackendWithSeed(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.toml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
[[transactions]]
user = "1"
type = "expense"
amount = "2500"
category = "1"
description = "Groceries"
date = "2025-01-02"
`), 0o600))

	ctx := context.Background()
	res, err := NewFactory(quietLogger()).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(dir, "fintrack.db"),
		SeedFile:     seedPath,
	})
	require.NoError(t, err)
	defer res.Cleanup()

	ov, err := res.Dashboard.Overview(ctx, "1", core.NewPeriod(2025, time.January))
	require.NoError(t, err)
	assert.Equal(t, int64(250000), ov.Expense.Cents)
}

func TestCreateBackendBadSeed(t *testing.T) {
	_, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{
		Type:     MemoryBackend,
		SeedFile: filepath.Join(t.TempDir(), "missing.toml"),
	})
	assert.ErrorContains(t, err, "apply seed")
}
