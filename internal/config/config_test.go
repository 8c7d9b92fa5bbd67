package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/continuum-pay/continuum/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `mode: MANUAL
api:
  baseUrl: https://api.example.com
  apiKey: sk_test_1
  timeoutSeconds: 10
poll:
  pendingIntervalMs: 500
  retrySeconds: 2
sandbox:
  addr: ":9000"
  pendingPolls: 4
`
	err := os.WriteFile(filepath.Join(dir, "continuum.yaml"), []byte(content), 0o644)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.HandlingManual, cfg.Mode)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "sk_test_1", cfg.API.APIKey)
	assert.Equal(t, 500, cfg.Poll.PendingIntervalMS)
	assert.Equal(t, ":9000", cfg.Sandbox.Addr)
	assert.Equal(t, 4, cfg.Sandbox.PendingPolls)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `api:
  baseUrl: https://api.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "continuum.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.HandlingAuto, cfg.Mode)
	assert.Equal(t, ":8620", cfg.Sandbox.Addr)
	assert.Equal(t, 2, cfg.Sandbox.PendingPolls)
	assert.Equal(t, types.DefaultPendingInterval, cfg.Poll.PendingInterval())
	assert.Equal(t, types.DefaultRetryInterval, cfg.Poll.RetryInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "continuum.yaml"), []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = Load(dir)
	assert.Error(t, err)
}

func TestValidation_MissingBaseURL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "continuum.yaml"), []byte("mode: AUTO\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "api.baseUrl is required")
}

func TestValidation_BadMode(t *testing.T) {
	dir := t.TempDir()
	content := `mode: SEMI
api:
  baseUrl: https://api.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "continuum.yaml"), []byte(content), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be")
}
