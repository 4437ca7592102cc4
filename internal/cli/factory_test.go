package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/config"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = backend
	switch backend {
	case config.BackendFile:
		cfg.Store.Path = filepath.Join(t.TempDir(), "sessions")
	case config.BackendSQLite:
		cfg.Store.Path = filepath.Join(t.TempDir(), "switchboard.db")
	case config.BackendRedis:
		mr := miniredis.RunT(t)
		cfg.Store.Redis.Addr = mr.Addr()
	}
	return cfg
}

func TestNewApp_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite, config.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			app, err := NewApp(ctx, testConfig(t, backend), nil)
			require.NoError(t, err)
			defer app.Close()

			resp, err := app.Engine.Submit(ctx, switchboard.SubmitRequest{SessionID: "s1", Input: "I can't log in", UserID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, domain.IssueLogin, resp.StateSummary.IssueType)

			state, err := app.Engine.Inspect(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, state.Messages, 2)

			n, err := testutil.GatherAndCount(app.Registry, "switchboard_steps_total")
			require.NoError(t, err)
			assert.Positive(t, n)
		})
	}
}

const testAccounts = `
accounts:
  cultpass:
    customers:
      - user_id: a4ab87
        full_name: Alice Doe
        email: alice@example.com
        subscription:
          tier: premium
          status: active
          monthly_quota: 8
          started_at: 2025-06-01T00:00:00Z
`

func TestNewApp_AccountLookups(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)
			cfg.Accounts.Path = filepath.Join(t.TempDir(), "accounts.yaml")
			require.NoError(t, os.WriteFile(cfg.Accounts.Path, []byte(testAccounts), 0o600))

			app, err := NewApp(ctx, cfg, nil)
			require.NoError(t, err)
			defer app.Close()

			res := app.Engine.InvokeTool(ctx, "lookup_subscription", map[string]any{"account_id": "cultpass", "user_id": "a4ab87"})
			require.True(t, res.OK(), "%v", res.Error)

			resp, err := app.Engine.Submit(ctx, switchboard.SubmitRequest{
				Input: "what does my subscription plan include", UserID: "a4ab87", AccountID: "cultpass",
			})
			require.NoError(t, err)
			assert.Contains(t, resp.Reply, "Your premium plan is active with a monthly quota of 8.")
		})
	}
}

func TestNewApp_NoAccountsNoLookupTools(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t, config.BackendMemory), nil)
	require.NoError(t, err)
	defer app.Close()

	for _, info := range app.Engine.Tools() {
		assert.False(t, strings.HasPrefix(info.Name, "lookup_"), info.Name)
	}
}

func TestNewApp_EncryptedFileStore(t *testing.T) {
	ctx := context.Background()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	t.Setenv("SB_TEST_KEY", key)

	cfg := testConfig(t, config.BackendFile)
	cfg.Security.EncryptionKeyEnv = "SB_TEST_KEY"
	app, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)

	_, err = app.Engine.Submit(ctx, switchboard.SubmitRequest{SessionID: "secret", Input: "my card was charged twice"})
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.Store.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(filepath.Join(cfg.Store.Path, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "charged twice")
	assert.Contains(t, string(raw), "switchboard.sealed/v1")
}

func TestNewApp_MasksPII(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendMemory)
	cfg.Security.MaskPII = true
	app, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)

	_, err = app.Engine.Submit(ctx, switchboard.SubmitRequest{SessionID: "s1", Input: "my email is jane@example.com and I can't log in"})
	require.NoError(t, err)

	state, err := app.Engine.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, state.Messages[0].Content, "jane@example.com")
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, config.BackendMemory)
	cfg.Security.EncryptionKeyEnv = "SB_TEST_MISSING_KEY"
	_, err := NewApp(ctx, cfg, nil)
	assert.ErrorContains(t, err, "SB_TEST_MISSING_KEY")

	cfg = testConfig(t, config.BackendMemory)
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKeyEnv = "SB_TEST_MISSING_OPENAI"
	_, err = NewApp(ctx, cfg, nil)
	assert.ErrorContains(t, err, "SB_TEST_MISSING_OPENAI")

	cfg = testConfig(t, config.BackendMemory)
	cfg.Knowledge.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewApp(ctx, cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t, config.BackendMemory)
	cfg.Engine.EntryStep = "nowhere"
	_, err = NewApp(ctx, cfg, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownStep)
}

func TestDecodeKey(t *testing.T) {
	raw := strings.Repeat("k", 32)
	key, err := decodeKey(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), key)

	key, err = decodeKey(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), key)

	_, err = decodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
	_, err = decodeKey("not base64 !!")
	assert.Error(t, err)
}

func TestChat_Headless(t *testing.T) {
	eng, err := switchboard.New()
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("I want to speak to a manager\n")
	require.NoError(t, chat(context.Background(), eng, ChatOptions{SessionID: "c1"}, in, &out, true))
	assert.Contains(t, out.String(), "ESC-")
	assert.NotContains(t, out.String(), "saved", "headless mode prints replies only")
}

func TestNewApp_ExternalTools(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	toolsPath := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(toolsPath, []byte(`
tools:
  - name: process_refund
    command: sh
    args: ["-c", "echo '{\"refund_id\":\"RF-'$SWITCHBOARD_ARG_ORDER_ID'\"}'"]
    description: Refund via the billing CLI
`), 0o644))

	cfg := testConfig(t, config.BackendMemory)
	cfg.Tools.Path = toolsPath
	app, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)

	var desc string
	for _, info := range app.Engine.Tools() {
		if info.Name == "process_refund" {
			desc = info.Description
		}
	}
	assert.Equal(t, "Refund via the billing CLI", desc, "configured tool replaces the built-in")

	res := app.Engine.InvokeTool(context.Background(), "process_refund", map[string]any{"order_id": "77"})
	require.True(t, res.OK(), "%+v", res.Error)
	assert.Equal(t, map[string]any{"refund_id": "RF-77"}, res.Result)
}
