package tools_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Invoke(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("echo", func(ctx context.Context, args map[string]any) (any, error) {
		return args["msg"], nil
	})
	r.Register("broken", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("backend down")
	})
	r.Register("picky", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, &tools.ArgsError{Msg: "missing msg"}
	})
	r.Register("panics", func(ctx context.Context, args map[string]any) (any, error) {
		panic("boom")
	})
	r.Register("slow", func(ctx context.Context, args map[string]any) (any, error) {
		time.Sleep(time.Second)
		return "late", nil
	}, tools.WithTimeout(20*time.Millisecond))

	tests := []struct {
		name   string
		tool   string
		kind   domain.ToolErrorKind
		result any
	}{
		{"success", "echo", "", "hi"},
		{"not found", "missing", domain.ToolNotFound, nil},
		{"failure", "broken", domain.ToolFailed, nil},
		{"invalid args", "picky", domain.ToolInvalidArgs, nil},
		{"panic is a failure", "panics", domain.ToolFailed, nil},
		{"timeout", "slow", domain.ToolTimeout, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res domain.ToolResult
			require.NotPanics(t, func() {
				res = r.Invoke(context.Background(), tt.tool, map[string]any{"msg": "hi"})
			})
			assert.Equal(t, tt.tool, res.Name)
			if tt.kind == "" {
				assert.True(t, res.OK())
				assert.Equal(t, tt.result, res.Result)
				return
			}
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.kind, res.Error.Kind)
		})
	}
}

func TestRegistry_List(t *testing.T) {
	r := tools.NewRegistry()
	tools.RegisterSupportTools(r, tools.DefaultKnowledge(), nil)

	names := []string{}
	for _, info := range r.List() {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.Description)
	}
	assert.Equal(t, []string{tools.KeywordSearchTool, tools.ProcessRefundTool, tools.SearchKnowledgeTool}, names)
}
