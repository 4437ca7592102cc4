package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 25, cfg.Engine.MaxIterations)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_iterations: 10
  step_timeout: 5s
store:
  backend: sqlite
  path: /tmp/sb.db
log:
  format: json
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Engine.MaxIterations)
	assert.Equal(t, 5*time.Second, cfg.Engine.StepTimeout)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr, "untouched defaults survive")
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: floppy\n"), 0o644))
	_, err = config.Load(path)
	assert.ErrorContains(t, err, "store.backend")
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	err := cfg.ApplyEnv([]string{
		"SWITCHBOARD_STORE_BACKEND=redis",
		"SWITCHBOARD_STORE_REDIS_ADDR=redis:6380",
		"SWITCHBOARD_STORE_REDIS_DB=2",
		"SWITCHBOARD_STORE_REDIS_TTL=1h",
		"SWITCHBOARD_STORE_REDIS_LOCK_TTL=2m",
		"SWITCHBOARD_ENGINE_MAX_ITERATIONS=7",
		"SWITCHBOARD_SECURITY_MASK_PII=true",
		"SWITCHBOARD_SECURITY_PII_PATTERNS=a+,b+",
		"SWITCHBOARD_UNKNOWN=ignored",
		"PATH=/usr/bin",
	})
	require.NoError(t, err)

	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Store.Redis.LockTTL)
	assert.Equal(t, 7, cfg.Engine.MaxIterations)
	assert.True(t, cfg.Security.MaskPII)
	assert.Equal(t, []string{"a+", "b+"}, cfg.Security.PIIPatterns)
	assert.Equal(t, "switchboard:session:", cfg.Store.Redis.Prefix)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	cfg := config.Default()
	err := cfg.ApplyEnv([]string{"SWITCHBOARD_ENGINE_MAX_ITERATIONS=lots"})
	assert.Error(t, err)
}

func TestApplyEnv_Tools(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv([]string{
		"SWITCHBOARD_TOOLS_PATH=/etc/switchboard/tools.yaml",
		"SWITCHBOARD_TOOLS_BASE_DIR=/opt/scripts",
	}))
	assert.Equal(t, "/etc/switchboard/tools.yaml", cfg.Tools.Path)
	assert.Equal(t, "/opt/scripts", cfg.Tools.BaseDir)
}
