package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/linkward/internal/config"
	"github.com/tempizhere/linkward/internal/policy"
	"github.com/tempizhere/linkward/internal/repository"
	"go.uber.org/zap"
)

func TestNewRepository(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		cfg := config.Default()
		repo, db, err := newRepository(ctx, cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, db)
		assert.IsType(t, &repository.MemoryRepository{}, repo)
	})

	t.Run("file when path is set", func(t *testing.T) {
		cfg := config.Default()
		cfg.FileStoragePath = filepath.Join(t.TempDir(), "links.jsonl")
		repo, db, err := newRepository(ctx, cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, db)
		assert.IsType(t, &repository.FileRepository{}, repo)
	})

	t.Run("invalid dsn", func(t *testing.T) {
		cfg := config.Default()
		cfg.DatabaseDSN = "://not-a-dsn"
		_, _, err := newRepository(ctx, cfg, logger)
		assert.Error(t, err)
	})
}

func TestNewService(t *testing.T) {
	cfg := config.Default()
	list, err := policy.Parse([]byte("[[urls.blocklist]]\npattern = 'bit\\.ly$'\ncategory = 'shortener'\n"))
	require.NoError(t, err)

	svc := newService(cfg, repository.NewMemoryRepository(), list, zap.NewNop())
	info, err := svc.CreateLink(context.Background(), "docs", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, cfg.BaseURL+"/docs", info.ShortURL)

	_, err = svc.CreateLink(context.Background(), "", "https://bit.ly/x")
	assert.Error(t, err)
}

func TestRun_MissingPolicyList(t *testing.T) {
	cfg := config.Default()
	cfg.PolicyListPath = filepath.Join(t.TempDir(), "missing.toml")
	err := run(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "lists.toml")
	require.NoError(t, os.WriteFile(listPath, []byte("[names]\nblocklist = [ { pattern = 'paypal' } ]\n"), 0o600))

	cfg := config.Default()
	cfg.PolicyListPath = listPath
	cfg.RunAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, run(ctx, cfg, zap.NewNop()))
}
