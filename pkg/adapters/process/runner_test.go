package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shTool(name, script string) ToolConfig {
	return ToolConfig{Name: name, Command: "sh", Args: []string{"-c", script}}
}

func newRegistry(t *testing.T, opts ...RunnerOption) *tools.Registry {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tool tests use sh")
	}
	reg := tools.NewRegistry()
	NewRunner(opts...).RegisterAll(reg)
	return reg
}

func TestRunner_Tools(t *testing.T) {
	dir := t.TempDir()
	reg := newRegistry(t,
		WithBaseDir(dir),
		WithTools([]ToolConfig{
			shTool("echo_env", "echo $SWITCHBOARD_ARG_MSG"),
			shTool("echo_json", `echo '{"status":"queued","amount":'$SWITCHBOARD_ARG_AMOUNT'}'`),
			shTool("pwd", "pwd"),
			shTool("fail", "echo boom >&2; exit 3"),
			{Name: "configured_env", Command: "sh", Args: []string{"-c", "echo $REGION"}, Environment: map[string]string{"REGION": "eu"}},
			{Name: "slow", Command: "sh", Args: []string{"-c", "sleep 5"}, Timeout: 50 * time.Millisecond},
		}),
	)
	ctx := context.Background()

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		res := reg.Invoke(ctx, "echo_env", map[string]any{"msg": "SecretMessage"})
		require.True(t, res.OK(), "%+v", res.Error)
		assert.Equal(t, "SecretMessage", res.Result)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		res := reg.Invoke(ctx, "echo_json", map[string]any{"amount": 42.5})
		require.True(t, res.OK(), "%+v", res.Error)
		assert.Equal(t, map[string]any{"status": "queued", "amount": 42.5}, res.Result)
	})

	t.Run("Runs In Base Dir", func(t *testing.T) {
		res := reg.Invoke(ctx, "pwd", nil)
		require.True(t, res.OK())
		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(res.Result.(string))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Applies Configured Env", func(t *testing.T) {
		res := reg.Invoke(ctx, "configured_env", nil)
		require.True(t, res.OK())
		assert.Equal(t, "eu", res.Result)
	})

	t.Run("Non-Zero Exit Fails", func(t *testing.T) {
		res := reg.Invoke(ctx, "fail", nil)
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ToolFailed, res.Error.Kind)
		assert.Contains(t, res.Error.Message, "boom")
	})

	t.Run("Rejects Unsafe Argument Names", func(t *testing.T) {
		res := reg.Invoke(ctx, "echo_env", map[string]any{"msg; rm -rf /": "x"})
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ToolInvalidArgs, res.Error.Kind)
	})

	t.Run("Times Out", func(t *testing.T) {
		res := reg.Invoke(ctx, "slow", nil)
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ToolTimeout, res.Error.Kind)
	})

	t.Run("Unregistered Tool Is Not Found", func(t *testing.T) {
		res := reg.Invoke(ctx, "hacker_script", nil)
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ToolNotFound, res.Error.Kind)
	})
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
tools:
  - name: lookup_order
    command: ./scripts/lookup.sh
    description: Look up an order
    timeout: 2s
  - name: ""
    command: ignored
  - name: no_command
`), 0o644))
	list, err := LoadTools(yamlPath)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "lookup_order", list[0].Name)
	assert.Equal(t, 2*time.Second, list[0].Timeout)

	jsonPath := filepath.Join(dir, "tools.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tools":[{"name":"a","command":"true"}]}`), 0o644))
	list, err = LoadTools(jsonPath)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "true", list[0].Command)

	list, err = LoadTools(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, os.WriteFile(yamlPath, []byte("tools: [unterminated"), 0o644))
	_, err = LoadTools(yamlPath)
	assert.Error(t, err)
}
