package tools_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticSearch_RanksRelevantArticleFirst(t *testing.T) {
	kb := tools.DefaultKnowledge()

	hits := tools.SemanticSearch(kb, "I forgot my password and cannot login", 3)
	require.NotEmpty(t, hits)
	assert.LessOrEqual(t, len(hits), 3)
	assert.Equal(t, "kb-login-reset", hits[0].ArticleID)

	assert.Empty(t, tools.SemanticSearch(kb, "a an of", 3))
}

func TestKeywordSearch_Scoring(t *testing.T) {
	kb := tools.NewKnowledgeBase([]tools.Article{
		{ID: "kb-a", Title: "Refund policy", Content: "Nothing relevant."},
		{ID: "kb-b", Title: "Other", Content: "How a refund works."},
		{ID: "kb-c", Title: "Misc", Content: "Unrelated.", Tags: []string{"refund"}},
		{ID: "kb-d", Title: "Unrelated", Content: "Nothing."},
		{Title: "No id is skipped", Content: "refund"},
	})

	hits := tools.KeywordSearch(kb, "refund", 0)
	require.Len(t, hits, 3)
	assert.Equal(t, "kb-a", hits[0].ArticleID)
	assert.Equal(t, 3.0, hits[0].Score)
	assert.Equal(t, "kb-b", hits[1].ArticleID)
	assert.Equal(t, 2.0, hits[1].Score)
	assert.Equal(t, "kb-c", hits[2].ArticleID)
	assert.Equal(t, 1.0, hits[2].Score)
}

func TestSearchTools_ArgsValidation(t *testing.T) {
	r := tools.NewRegistry()
	tools.RegisterSupportTools(r, tools.DefaultKnowledge(), nil)
	ctx := context.Background()

	res := r.Invoke(ctx, tools.KeywordSearchTool, map[string]any{})
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ToolInvalidArgs, res.Error.Kind)

	res = r.Invoke(ctx, tools.KeywordSearchTool, map[string]any{"query": "refund", "bogus": 1})
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ToolInvalidArgs, res.Error.Kind)

	res = r.Invoke(ctx, tools.SearchKnowledgeTool, map[string]any{"query": "refund", "limit": "1"})
	require.True(t, res.OK())
	hits, ok := res.Result.([]tools.Hit)
	require.True(t, ok)
	assert.Len(t, hits, 1)
}

func TestProcessRefund(t *testing.T) {
	r := tools.NewRegistry()
	tools.RegisterSupportTools(r, tools.DefaultKnowledge(), nil)
	ctx := context.Background()

	res := r.Invoke(ctx, tools.ProcessRefundTool, map[string]any{"user_id": "u1"})
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ToolInvalidArgs, res.Error.Kind)

	res = r.Invoke(ctx, tools.ProcessRefundTool, map[string]any{"user_id": "u1", "reason": "cancelled", "amount": 12})
	require.True(t, res.OK())
	req := res.Result.(tools.RefundRequest)
	assert.Equal(t, "pending_approval", req.Status)
	assert.Equal(t, 12.0, req.Amount)
}

func TestLoadKnowledge(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "kb.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("articles:\n  - id: kb-x\n    title: X\n    content: x content\n"), 0o644))
	kb, err := tools.LoadKnowledge(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, kb.Len())

	jsonPath := filepath.Join(dir, "kb.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"articles":[{"id":"kb-y","title":"Y"},{"id":"kb-z","title":"Z"}]}`), 0o644))
	kb, err = tools.LoadKnowledge(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 2, kb.Len())

	_, err = tools.LoadKnowledge(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	kb, err = tools.LoadKnowledge("")
	require.NoError(t, err)
	assert.Positive(t, kb.Len())
}
