package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, "13", cfg.Gateway.DeclineSuffix)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
store_driver: memory
retry:
  attempts: 5
  delay: 2s
gateway:
  fee: "0.50"
  max_latency: 10ms
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TRANSFER_RETRY_ATTEMPTS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 7, cfg.Retry.Attempts, "env wins over file")
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, "0.50", cfg.Gateway.Fee)
	assert.Equal(t, 10*time.Millisecond, cfg.Gateway.MaxLatency)
	assert.Equal(t, "13", cfg.Gateway.DeclineSuffix, "untouched keys keep defaults")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("WORKER_COUNT", "many")
	_, err := Load()
	assert.ErrorContains(t, err, "WORKER_COUNT")

	t.Setenv("WORKER_COUNT", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown driver")
}
