// Package memoryretrieval implements the Memory Retrieval tool (§4.2): a
// read-only window onto the Memory Subsystem (internal/memory), formatting
// working-memory steps and procedural patterns as Documents so the
// reasoning chain can treat prior memory the same as any other tool result.
package memoryretrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/memory"
	"github.com/arborix/tot/internal/tools"
)

// Name is the canonical registry name of this tool.
const Name = "memory_retrieval"

const (
	defaultLimit      = 5
	defaultMinSuccess = 0.0
)

// Tool implements tools.Tool for memory_retrieval.
type Tool struct {
	manager *memory.Manager
}

func New(manager *memory.Manager) *Tool {
	return &Tool{manager: manager}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params, defaultLimit, defaultMinSuccess)
	if err != nil {
		return tools.Failure(err)
	}

	sessionID := params.GetReply("session_id").String()

	var docs []*document.Document
	if p.MemoryType == TypeWorking || p.MemoryType == TypeAll {
		docs = append(docs, workingDocs(t.manager.WorkingTrace(sessionID))...)
	}
	if p.MemoryType == TypeProcedural || p.MemoryType == TypeAll {
		patterns := t.manager.ProceduralPatterns(ctx, p.Query, p.MinSuccessScore, p.Limit)
		docs = append(docs, proceduralDocs(patterns)...)
	}
	if len(docs) > p.Limit {
		docs = docs[:p.Limit]
	}

	return tools.Success(docs, map[string]any{
		"memory_type": string(p.MemoryType),
		"count":       len(docs),
	})
}

func workingDocs(entries []memory.WorkingMemoryEntry) []*document.Document {
	out := make([]*document.Document, 0, len(entries))
	for _, e := range entries {
		content := fmt.Sprintf("Step %d (depth %d): %s -> tool=%s, observation=%s",
			e.Iteration, e.Depth, e.Thought, e.ToolUsed, truncate(e.Observation, 280))
		d := document.New(content, "working_memory")
		d.Metadata = map[string]any{
			"node_id":      e.NodeID,
			"iteration":    e.Iteration,
			"depth":        e.Depth,
			"tool_used":    e.ToolUsed,
			"completeness": e.Completeness,
		}
		out = append(out, d)
	}
	return out
}

func proceduralDocs(patterns []memory.ProceduralPattern) []*document.Document {
	out := make([]*document.Document, 0, len(patterns))
	for _, p := range patterns {
		content := fmt.Sprintf("Pattern for %s queries (level=%s): sequence %s succeeded with score %.2f across %d prior uses.",
			p.Category, p.UserLevel, strings.Join(p.ToolSequence, " -> "), p.SuccessScore, p.UsageCount)
		d := document.New(content, "procedural_memory")
		d.Score = p.SuccessScore
		d.Metadata = map[string]any{
			"pattern_id":   p.PatternID,
			"category":     p.Category,
			"success":      p.SuccessScore,
			"usage_count":  p.UsageCount,
		}
		out = append(out, d)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
