// Package evaluation implements the Evaluation Chain (§4.4): promise
// scoring for not-yet-executed candidates and post-execution scoring of an
// executed node, both Cheap-tier with a heuristic fallback so a model outage
// degrades the search instead of aborting it.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/reasoning"
	"github.com/arborix/tot/internal/scoring"
)

// promiseBudget is the Evaluation Chain's documented 5s promise() budget.
const promiseBudget = 5 * time.Second

// NodeEvaluation is the four-score post-execution result (§3's TreeNode score set).
type NodeEvaluation struct {
	Completeness  float64
	Relevance     float64
	Quality       float64
	ShouldContinue bool
}

// Chain implements promise and evaluate_node over the Cheap model tier.
type Chain struct {
	router *llm.Router
}

func New(router *llm.Router) *Chain {
	return &Chain{router: router}
}

// toolHeuristics is the fallback promise score keyed by planned tool name,
// used only when the Cheap model is unavailable or times out.
var toolHeuristics = map[string]float64{
	"adaptive_rag_search":  0.9,
	"memory_retrieval":     0.8,
	"corrective_rag_filter": 0.7,
	"web_search":           0.6,
	"concept_extractor":    0.6,
}

const defaultHeuristic = 0.5

// Promise scores one candidate's promise in [0,1]. On model failure or
// budget expiry it returns the tool-name heuristic, never an error.
func (c *Chain) Promise(ctx context.Context, candidate reasoning.Thought, state reasoning.NodeState, query string) float64 {
	model := c.router.ModelFor(config.TaskPromiseEvaluation)
	prompt := fmt.Sprintf(
		"Query: %s\nDepth: %d, completeness so far: %.2f\nCandidate action: %s (%s)\nRate how promising this action is for answering the query, from 0 to 1. Reply with only the number.",
		query, state.Depth, state.Completeness, candidate.ToolName, candidate.Reasoning)

	raw, err := model.Invoke(ctx, prompt, promiseBudget)
	if err != nil {
		return heuristicPromise(candidate.ToolName)
	}
	v, ok := parseFloat(raw)
	if !ok {
		return heuristicPromise(candidate.ToolName)
	}
	return scoring.Clamp01(v)
}

func heuristicPromise(toolName string) float64 {
	if v, ok := toolHeuristics[toolName]; ok {
		return v
	}
	return defaultHeuristic
}

// EvaluateNode scores an executed node's four-dimension quality. On model
// failure, applies the documented heuristic: completeness = min(1, 0.15 *
// |collected|); relevance = quality = 0.8; should_continue = completeness < 0.85.
func (c *Chain) EvaluateNode(ctx context.Context, collected []*document.Document, query string) NodeEvaluation {
	model := c.router.ModelFor(config.TaskPostExecutionEvaluation)
	prompt := buildEvalPrompt(query, collected)

	raw, err := model.Invoke(ctx, prompt, 0)
	if err != nil {
		return heuristicEvaluation(collected)
	}
	eval, ok := parseEvaluation(raw)
	if !ok {
		return heuristicEvaluation(collected)
	}
	return eval
}

func buildEvalPrompt(query string, collected []*document.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query)
	start := max(0, len(collected)-3)
	b.WriteString("Latest evidence:\n")
	for _, d := range collected[start:] {
		fmt.Fprintf(&b, "- %s\n", truncate(d.Content, 200))
	}
	b.WriteString("Rate completeness, relevance, and quality of the answer so far, each 0 to 1, as JSON {\"completeness\":_, \"relevance\":_, \"quality\":_}.")
	return b.String()
}

func parseEvaluation(raw string) (NodeEvaluation, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return NodeEvaluation{}, false
	}
	var parsed struct {
		Completeness float64 `json:"completeness"`
		Relevance    float64 `json:"relevance"`
		Quality      float64 `json:"quality"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return NodeEvaluation{}, false
	}
	eval := NodeEvaluation{
		Completeness: scoring.Clamp01(parsed.Completeness),
		Relevance:    scoring.Clamp01(parsed.Relevance),
		Quality:      scoring.Clamp01(parsed.Quality),
	}
	eval.ShouldContinue = eval.Completeness < 0.85
	return eval, true
}

func heuristicEvaluation(collected []*document.Document) NodeEvaluation {
	completeness := scoring.Clamp01(0.15 * float64(len(collected)))
	return NodeEvaluation{
		Completeness:  completeness,
		Relevance:     0.8,
		Quality:       0.8,
		ShouldContinue: completeness < 0.85,
	}
}

func parseFloat(raw string) (float64, bool) {
	var v float64
	raw = strings.TrimSpace(raw)
	if _, err := fmt.Sscanf(raw, "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
