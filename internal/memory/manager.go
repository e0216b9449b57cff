package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/relational"
	"github.com/arborix/tot/internal/vectorstore"
)

// Manager is the single entry point the Orchestrator uses to load prior
// context at search start and persist a successful generation at search end.
type Manager struct {
	working    *WorkingStore
	procedural *ProceduralStore
	cfg        config.MemoryConfig
}

func NewManager(vs vectorstore.Store, rel relational.Store, cfg config.MemoryConfig) *Manager {
	return &Manager{
		working:    NewWorkingStore(vs, cfg.WorkingTTL),
		procedural: NewProceduralStore(vs, rel),
		cfg:        cfg,
	}
}

// LoadContext fetches procedural hints relevant to the query's category and
// the session's working-memory trace (typically empty for a new session).
func (m *Manager) LoadContext(ctx context.Context, sessionID, userID, query, userLevel string) *MemoryContext {
	category := categoryOf(query)
	patterns := m.procedural.Retrieve(ctx, query, category, m.cfg.ProceduralMinSuccessScore, m.cfg.ProceduralMaxPatterns)

	return &MemoryContext{
		SessionID:       sessionID,
		UserID:          userID,
		ProceduralHints: summarizeHints(patterns),
		RawPatterns:     patterns,
	}
}

// RecordStep appends one working-memory entry for the session; called once
// per explored ToT node.
func (m *Manager) RecordStep(ctx context.Context, entry WorkingMemoryEntry) {
	m.working.Append(ctx, entry)
}

// WorkingTrace returns a session's working-memory entries, typically empty
// for a session that has not yet recorded any ToT nodes.
func (m *Manager) WorkingTrace(sessionID string) []WorkingMemoryEntry {
	return m.working.Load(sessionID)
}

// ProceduralPatterns exposes a raw procedural-memory lookup for the
// memory_retrieval tool, independent of the category auto-detection
// LoadContext applies at search start.
func (m *Manager) ProceduralPatterns(ctx context.Context, query string, minSuccess float64, limit int) []ProceduralPattern {
	return m.procedural.Retrieve(ctx, query, "", minSuccess, limit)
}

// SaveSuccessfulGeneration writes a new procedural pattern iff the
// generation's final completeness cleared the configured threshold.
func (m *Manager) SaveSuccessfulGeneration(ctx context.Context, query, userLevel string, gen SuccessfulGeneration) error {
	if gen.FinalCompleteness < m.cfg.ProceduralSaveThreshold {
		return nil
	}
	pattern := ProceduralPattern{
		Category:         categoryOf(query),
		UserLevel:        userLevel,
		ToolSequence:     gen.ToolSequence,
		AvgIterations:    float64(gen.Iterations),
		SuccessScore:     gen.FinalCompleteness,
		UsageCount:       1,
		ReasoningPattern: reasoningSummary(gen.Thoughts),
	}
	return m.procedural.Save(ctx, pattern)
}

// UsePattern marks a procedural pattern as having informed a new search.
func (m *Manager) UsePattern(ctx context.Context, patternID string) {
	m.procedural.IncrementUsage(ctx, patternID)
}

// categoryBuckets maps keyword markers to the coarse category labels used to
// scope procedural-memory retrieval; order matters, first match wins.
var categoryBuckets = []struct {
	category string
	markers  []string
}{
	{"sorting", []string{"sort", "сортировк", "quicksort", "merge sort", "bubble"}},
	{"graphs", []string{"graph", "граф", "dijkstra", "bfs", "dfs", "shortest path"}},
	{"dynamic_programming", []string{"dynamic programming", "dp", "динамическо", "memoization", "memoiz"}},
	{"data_structures", []string{"data structure", "структур", "tree", "дерево", "hash table", "stack", "queue"}},
	{"complexity", []string{"complexity", "сложност", "big o", "big-o"}},
	{"recursion", []string{"recursion", "рекурс"}},
	{"greedy", []string{"greedy", "жадн"}},
}

// categoryOf maps a query to a coarse procedural-memory category via keyword
// scan, defaulting to "general" when no marker matches.
func categoryOf(query string) string {
	lower := strings.ToLower(query)
	for _, b := range categoryBuckets {
		for _, marker := range b.markers {
			if strings.Contains(lower, marker) {
				return b.category
			}
		}
	}
	return "general"
}

func summarizeHints(patterns []ProceduralPattern) string {
	if len(patterns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Prior successful approaches for similar queries:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- [%s] tools: %s (success=%.2f, used %d times)\n",
			p.Category, strings.Join(p.ToolSequence, " -> "), p.SuccessScore, p.UsageCount)
	}
	return b.String()
}

func reasoningSummary(thoughts []string) string {
	if len(thoughts) == 0 {
		return ""
	}
	const maxThoughts = 5
	if len(thoughts) > maxThoughts {
		thoughts = thoughts[:maxThoughts]
	}
	return strings.Join(thoughts, " | ")
}
