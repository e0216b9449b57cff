package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/contentguard"
	"github.com/arborix/tot/internal/evaluation"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/memory"
	"github.com/arborix/tot/internal/metrics"
	"github.com/arborix/tot/internal/reasoning"
	"github.com/arborix/tot/internal/tools"
)

func TestTracePathSingleNode(t *testing.T) {
	root := &TreeNode{ID: "root"}
	idx := map[string]*TreeNode{"root": root}
	path := tracePath(root, idx)
	require.Len(t, path, 1)
	assert.Equal(t, "root", path[0].ID)
}

func TestTracePathWalksRootFirst(t *testing.T) {
	root := &TreeNode{ID: "root"}
	child := &TreeNode{ID: "child", ParentID: "root"}
	grandchild := &TreeNode{ID: "grandchild", ParentID: "child"}
	idx := map[string]*TreeNode{"root": root, "child": child, "grandchild": grandchild}

	path := tracePath(grandchild, idx)
	require.Len(t, path, 3)
	assert.Equal(t, "root", path[0].ID)
	assert.Equal(t, "child", path[1].ID)
	assert.Equal(t, "grandchild", path[2].ID)
}

func TestTracePathIncludesPeekedButNeverPoppedNode(t *testing.T) {
	root := &TreeNode{ID: "root"}
	peeked := &TreeNode{ID: "peeked", ParentID: "root"}
	idx := map[string]*TreeNode{"root": root, "peeked": peeked}

	path := tracePath(peeked, idx)
	require.Len(t, path, 2)
	assert.Equal(t, "root", path[0].ID)
	assert.Equal(t, "peeked", path[1].ID)
}

func TestKeysOf(t *testing.T) {
	m := map[string]struct{}{"a": {}, "b": {}}
	out := keysOf(m)
	assert.ElementsMatch(t, []string{"a", "b"}, out)
}

func TestKeysOfEmpty(t *testing.T) {
	assert.Empty(t, keysOf(map[string]struct{}{}))
}

func TestInjectDefaultsCorrectiveRagFilterGetsCollectedDocs(t *testing.T) {
	params := injectDefaults("corrective_rag_filter", map[string]any{}, nil, nil)
	_, ok := params["documents"]
	assert.True(t, ok)
}

func TestInjectDefaultsMemoryRetrievalGetsSessionID(t *testing.T) {
	memCtx := &memory.MemoryContext{SessionID: "sess-123"}
	params := injectDefaults("memory_retrieval", map[string]any{}, nil, memCtx)
	assert.Equal(t, "sess-123", params["session_id"])
}

func TestInjectDefaultsDoesNotOverrideExplicitParams(t *testing.T) {
	memCtx := &memory.MemoryContext{SessionID: "sess-123"}
	params := injectDefaults("memory_retrieval", map[string]any{"session_id": "explicit"}, nil, memCtx)
	assert.Equal(t, "explicit", params["session_id"])
}

func noopRouter() *llm.Router {
	return llm.NewRouter(&config.Config{}, nil, nil)
}

func buildOrchestrator(cfg config.ToTConfig, registry *tools.Registry) *Orchestrator {
	router := noopRouter()
	return New(cfg, router, reasoning.New(router), evaluation.New(router), registry,
		contentguard.New(config.ContentGuardConfig{Enabled: false}, router, metrics.NewNop()),
		memory.NewManager(nil, nil, config.MemoryConfig{}), nil, nil, nil)
}

func TestSearchMaxDepthZeroExploresRootOnlyOnce(t *testing.T) {
	cfg := config.ToTConfig{MaxDepth: 0, BranchingFactor: 0, CompletenessThreshold: 2.0}
	o := buildOrchestrator(cfg, tools.NewRegistry())

	result, err := o.Search(context.Background(), "sess", "query", "beginner", nil)
	require.NoError(t, err)
	require.Len(t, result.ExploredNodes, 1)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, "", result.ExploredNodes[0].ParentID)
}

type fakeTool struct {
	name string
	res  tools.Result
}

func (f *fakeTool) Name() string { return f.name }
func (f *fakeTool) Execute(ctx context.Context, params tools.Params) tools.Result {
	return f.res
}

func TestSearchReachesGoalViaToolExecution(t *testing.T) {
	thoughtsReply := `{"thoughts":[{"reasoning":"search for it","tool_name":"web_search","tool_params":{}}]}`
	evalReply := `{"completeness":0.95,"relevance":0.9,"quality":0.9}`

	callCount := 0
	router := llm.NewRouter(&config.Config{
		ModelRouting: map[config.Task]config.Tier{
			config.TaskThoughtGeneration:       config.TierExpensive,
			config.TaskPromiseEvaluation:       config.TierCheap,
			config.TaskPostExecutionEvaluation: config.TierCheap,
		},
	},
		llm.ModelFunc(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
			return thoughtsReply, nil
		}),
		llm.ModelFunc(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
			callCount++
			if callCount == 1 {
				return "0.9", nil
			}
			return evalReply, nil
		}),
	)

	registry := tools.NewRegistry()
	registry.Register("web_search", func() tools.Tool {
		return &fakeTool{name: "web_search", res: tools.Success(nil, nil)}
	})

	cfg := config.ToTConfig{MaxDepth: 5, BranchingFactor: 2, CompletenessThreshold: 0.8, PromiseThreshold: 0.1}
	o := New(cfg, router, reasoning.New(router), evaluation.New(router), registry,
		contentguard.New(config.ContentGuardConfig{Enabled: false}, router, metrics.NewNop()),
		memory.NewManager(nil, nil, config.MemoryConfig{}), nil, nil, nil)

	result, err := o.Search(context.Background(), "sess", "how does quicksort work", "beginner", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.FinalCompleteness, 0.8)
	assert.Contains(t, result.ToolsUsed, "web_search")
	require.NotEmpty(t, result.BestPath)
	assert.Equal(t, "", result.BestPath[0].ParentID, "best path always starts at the root")
}

func TestSearchStopsShortOfGoalWhenNoToolRegistered(t *testing.T) {
	thoughtsReply := `{"thoughts":[{"reasoning":"search for it","tool_name":"unregistered_tool","tool_params":{}}]}`
	router := llm.NewRouter(&config.Config{
		ModelRouting: map[config.Task]config.Tier{
			config.TaskThoughtGeneration:       config.TierExpensive,
			config.TaskPromiseEvaluation:       config.TierCheap,
			config.TaskPostExecutionEvaluation: config.TierCheap,
		},
	},
		llm.ModelFunc(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
			return thoughtsReply, nil
		}),
		llm.ModelFunc(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
			return "0.9", nil
		}),
	)

	cfg := config.ToTConfig{MaxDepth: 3, BranchingFactor: 1, CompletenessThreshold: 0.99, PromiseThreshold: 0.1,
		DeadEndRelevance: 0, DeadEndQuality: 0}
	o := New(cfg, router, reasoning.New(router), evaluation.New(router), tools.NewRegistry(),
		contentguard.New(config.ContentGuardConfig{Enabled: false}, router, metrics.NewNop()),
		memory.NewManager(nil, nil, config.MemoryConfig{}), nil, nil, nil)

	result, err := o.Search(context.Background(), "sess", "query", "beginner", nil)
	require.NoError(t, err)
	assert.False(t, result.FinalCompleteness >= cfg.CompletenessThreshold)
}
