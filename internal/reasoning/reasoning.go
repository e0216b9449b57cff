// Package reasoning implements the Reasoning Chain (§4.4): the
// generate_thoughts operation that turns one tree node's state into up to
// branching_factor candidate next actions. Grounded on the teacher's
// prompt-template + JSON-parse pattern in ai/model/chat (chat completion
// request building, then strict response parsing).
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
)

// NodeState is the subset of a tree node's state the Reasoning and
// Evaluation chains need, independent of the Orchestrator's TreeNode type to
// avoid a package cycle.
type NodeState struct {
	Depth         int
	Completeness  float64
	CollectedDocs []*document.Document
}

// Thought is one candidate action the Reasoning Chain proposes.
type Thought struct {
	Reasoning  string
	ToolName   string
	ToolParams map[string]any
}

// Chain implements generate_thoughts over the Expensive model tier.
type Chain struct {
	router *llm.Router
}

func New(router *llm.Router) *Chain {
	return &Chain{router: router}
}

// Generate builds the thought-generation prompt and returns up to
// branchingFactor candidates. Returns an error (never a panic) on model
// unavailability or unparsable output; the Orchestrator is responsible for
// invoking Fallback in that case.
func (c *Chain) Generate(ctx context.Context, query, userLevel string, state NodeState, proceduralHints string, branchingFactor int, toolCatalog []ToolDescriptor) ([]Thought, error) {
	model := c.router.ModelFor(config.TaskThoughtGeneration)
	prompt := buildPrompt(query, userLevel, state, proceduralHints, branchingFactor, toolCatalog)

	raw, err := model.Invoke(ctx, prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("reasoning: generate_thoughts: %w", err)
	}

	thoughts, err := parseThoughts(raw)
	if err != nil {
		return nil, fmt.Errorf("reasoning: generate_thoughts: %w", err)
	}
	if len(thoughts) == 0 {
		return nil, fmt.Errorf("reasoning: generate_thoughts: model returned no thoughts")
	}
	if len(thoughts) > branchingFactor {
		thoughts = thoughts[:branchingFactor]
	}
	return thoughts, nil
}

// ToolDescriptor is one entry in the tool catalog embedded in the prompt.
type ToolDescriptor struct {
	Name        string
	Description string
}

func buildPrompt(query, userLevel string, state NodeState, hints string, branchingFactor int, catalog []ToolDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nUser level: %s\nDepth: %d\nCompleteness so far: %.2f\n\n", query, userLevel, state.Depth, state.Completeness)
	b.WriteString(summarizeCollected(state.CollectedDocs))
	if hints != "" {
		b.WriteString("\n")
		b.WriteString(hints)
	}
	b.WriteString("\nAvailable tools:\n")
	for _, t := range catalog {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	fmt.Fprintf(&b, "\nPropose up to %d next actions as JSON: {\"thoughts\":[{\"reasoning\":\"...\",\"tool_name\":\"...\",\"tool_params\":{...}}]}\n", branchingFactor)
	return b.String()
}

// summarizeCollected groups collected documents by source family and lists
// the last three content snippets, per §4.4's prompt-construction rule.
func summarizeCollected(docs []*document.Document) string {
	if len(docs) == 0 {
		return "Collected documents: none yet.\n"
	}
	bySource := make(map[string]int)
	for _, d := range docs {
		bySource[d.Source]++
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Collected documents: %d total, by source: %s\n", len(docs), familyCounts(bySource))
	start := max(0, len(docs)-3)
	b.WriteString("Most recent snippets:\n")
	for _, d := range docs[start:] {
		fmt.Fprintf(&b, "- %s\n", truncate(d.Content, 200))
	}
	return b.String()
}

func familyCounts(m map[string]int) string {
	var parts []string
	for source, n := range m {
		parts = append(parts, fmt.Sprintf("%s=%d", source, n))
	}
	return strings.Join(parts, ", ")
}

func parseThoughts(raw string) ([]Thought, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no json object found in model response")
	}
	var parsed struct {
		Thoughts []struct {
			Reasoning  string         `json:"reasoning"`
			ToolName   string         `json:"tool_name"`
			ToolParams map[string]any `json:"tool_params"`
		} `json:"thoughts"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, err
	}
	out := make([]Thought, 0, len(parsed.Thoughts))
	for _, t := range parsed.Thoughts {
		if t.ToolName == "" {
			continue
		}
		out = append(out, Thought{Reasoning: t.Reasoning, ToolName: t.ToolName, ToolParams: t.ToolParams})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Fallback synthesizes one rule-based candidate when the Expensive model is
// unavailable or its output fails to parse, per the depth-indexed table of
// §4.4: depth 0 -> adaptive RAG, 1 -> corrective RAG, 2 -> web search, 3+ ->
// concept extraction.
func Fallback(depth int, query string) Thought {
	switch depth {
	case 0:
		return Thought{
			Reasoning:  "fallback: retrieve from the indexed corpus first",
			ToolName:   "adaptive_rag_search",
			ToolParams: map[string]any{"query": query},
		}
	case 1:
		return Thought{
			Reasoning:  "fallback: filter collected evidence for relevance",
			ToolName:   "corrective_rag_filter",
			ToolParams: map[string]any{"query": query},
		}
	case 2:
		return Thought{
			Reasoning:  "fallback: broaden search to the open web",
			ToolName:   "web_search",
			ToolParams: map[string]any{"query": query},
		}
	default:
		return Thought{
			Reasoning:  "fallback: extract key concepts from what has been gathered",
			ToolName:   "concept_extractor",
			ToolParams: map[string]any{"text": query},
		}
	}
}
