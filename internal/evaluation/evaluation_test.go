package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/reasoning"
)

func routerWithCheap(fn llm.ModelFunc) *llm.Router {
	return llm.NewRouter(&config.Config{ModelRouting: map[config.Task]config.Tier{
		config.TaskPromiseEvaluation:       config.TierCheap,
		config.TaskPostExecutionEvaluation: config.TierCheap,
	}}, nil, fn)
}

func TestPromiseUsesModelScore(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "0.73", nil
	})
	chain := New(router)
	p := chain.Promise(context.Background(), reasoning.Thought{ToolName: "web_search"}, reasoning.NodeState{}, "query")
	assert.InDelta(t, 0.73, p, 1e-9)
}

func TestPromiseFallsBackOnModelError(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "", assertErr{}
	})
	chain := New(router)
	p := chain.Promise(context.Background(), reasoning.Thought{ToolName: "adaptive_rag_search"}, reasoning.NodeState{}, "query")
	assert.Equal(t, 0.9, p)
}

func TestPromiseFallsBackOnUnparseableReply(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "not a number", nil
	})
	chain := New(router)
	p := chain.Promise(context.Background(), reasoning.Thought{ToolName: "unknown_tool"}, reasoning.NodeState{}, "query")
	assert.Equal(t, defaultHeuristic, p)
}

func TestPromiseClampsOutOfRangeScore(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "1.9", nil
	})
	chain := New(router)
	p := chain.Promise(context.Background(), reasoning.Thought{ToolName: "web_search"}, reasoning.NodeState{}, "query")
	assert.Equal(t, 1.0, p)
}

func TestEvaluateNodeParsesModelJSON(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return `{"completeness":0.9,"relevance":0.8,"quality":0.7}`, nil
	})
	chain := New(router)
	eval := chain.EvaluateNode(context.Background(), []*document.Document{document.New("x", "src")}, "query")
	assert.Equal(t, 0.9, eval.Completeness)
	assert.Equal(t, 0.8, eval.Relevance)
	assert.Equal(t, 0.7, eval.Quality)
	assert.False(t, eval.ShouldContinue)
}

func TestEvaluateNodeHeuristicFallbackOnModelError(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "", assertErr{}
	})
	chain := New(router)
	collected := []*document.Document{document.New("a", "s"), document.New("b", "s")}
	eval := chain.EvaluateNode(context.Background(), collected, "query")
	assert.InDelta(t, 0.3, eval.Completeness, 1e-9)
	assert.Equal(t, 0.8, eval.Relevance)
	assert.Equal(t, 0.8, eval.Quality)
	assert.True(t, eval.ShouldContinue)
}

func TestEvaluateNodeHeuristicFallbackOnUnparseableReply(t *testing.T) {
	router := routerWithCheap(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return "not json", nil
	})
	chain := New(router)
	eval := chain.EvaluateNode(context.Background(), nil, "query")
	assert.Equal(t, 0.0, eval.Completeness)
	assert.True(t, eval.ShouldContinue)
}

type assertErr struct{}

func (assertErr) Error() string { return "model unavailable" }
