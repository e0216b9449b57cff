// Package memory implements the Memory Subsystem (§4.6): working memory (a
// per-session append-only trace) and procedural memory (a durable,
// similarity-queryable store of successful tool sequences), both degrading
// gracefully to an in-process fallback when the vector store is unavailable.
package memory

import "time"

// MemoryContext is the per-search memory snapshot the Orchestrator consumes.
type MemoryContext struct {
	SessionID        string
	UserID           string
	ProceduralHints  string
	RawPatterns      []ProceduralPattern
}

// ProceduralPattern is an immutable-after-save summary of a successful
// generation. Invariant: SuccessScore >= the configured save threshold.
type ProceduralPattern struct {
	PatternID        string
	Category         string
	UserLevel        string
	ToolSequence     []string
	AvgIterations    float64
	SuccessScore     float64
	UsageCount       int
	ReasoningPattern string
	CreatedAt        time.Time
	LastUsedAt       time.Time
}

// WorkingMemoryEntry is one append-only step within a session's trace.
type WorkingMemoryEntry struct {
	SessionID    string
	Iteration    int
	NodeID       string
	Depth        int
	Thought      string
	ToolUsed     string
	ToolParams   map[string]any
	Observation  string
	Completeness float64
	Timestamp    time.Time
}

// SuccessfulGeneration is the orchestrator-independent input to
// SaveSuccessfulGeneration, decoupling this package from the orchestrator's
// ToTResult type.
type SuccessfulGeneration struct {
	FinalCompleteness float64
	ToolSequence      []string
	Iterations        int
	Thoughts          []string // thoughts along best_path, for the reasoning-pattern prose
}
