package app

import (
	"context"
	"errors"
	"testing"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/service"
	"github.com/article-ingest/internal/store"
	"github.com/article-ingest/internal/store/sanity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			Backend:    config.BackendSanity,
			ProjectID:  "proj",
			Dataset:    "production",
			Token:      "sk-test",
			APIVersion: "2023-10-01",
			RateLimit:  10,
		},
		Import: config.ImportConfig{
			Strategy:     config.StrategyReplace,
			DocumentType: "policyAnalysis",
		},
	}
}

func TestNew_SanityBackend(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB, "no database is opened without the ledger or postgres backend")
	assert.IsType(t, &sanity.Client{}, a.Store)
	require.NotNil(t, a.Services)
	assert.NotNil(t, a.Services.Import)
	assert.NotNil(t, a.Services.Runs)
}

func TestNew_PostgresDryRunUsesNoopStore(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = config.BackendPostgres
	cfg.Import.DryRun = true

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	_, err = a.Store.Create(context.Background(), &models.Article{})
	var rwe *store.RemoteWriteError
	assert.True(t, errors.As(err, &rwe))
}

func unreachableDatabase() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host: "127.0.0.1", Port: "1", User: "importer", Name: "articles", SSLMode: "disable",
		MigrationsPath: "../../migrations",
	}
}

func TestNew_UnreachableLedgerIsNotFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.Import.RecordRuns = true
	cfg.Database = unreachableDatabase()

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.IsType(t, &sanity.Client{}, a.Store)
	_, err = a.Services.Runs.GetRun(context.Background(), "any")
	assert.ErrorIs(t, err, service.ErrLedgerDisabled)
}

func TestNew_UnreachablePostgresStoreIsFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = config.BackendPostgres
	cfg.Database = unreachableDatabase()

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = "mongo"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "STORE_BACKEND", cfgErr.Key)
}
