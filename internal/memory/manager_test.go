package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborix/tot/internal/config"
)

func TestCategoryOfMatchesKeywords(t *testing.T) {
	assert.Equal(t, "sorting", categoryOf("How does quicksort work?"))
	assert.Equal(t, "graphs", categoryOf("Explain Dijkstra's shortest path algorithm"))
	assert.Equal(t, "dynamic_programming", categoryOf("What is memoization?"))
	assert.Equal(t, "data_structures", categoryOf("How does a hash table work?"))
	assert.Equal(t, "complexity", categoryOf("What is Big-O notation?"))
	assert.Equal(t, "recursion", categoryOf("Explain recursion"))
	assert.Equal(t, "greedy", categoryOf("What makes an algorithm greedy?"))
	assert.Equal(t, "general", categoryOf("What is the capital of France?"))
}

func TestCategoryOfFirstMatchWins(t *testing.T) {
	assert.Equal(t, "sorting", categoryOf("merge sort vs quicksort"))
}

func TestSummarizeHintsEmpty(t *testing.T) {
	assert.Equal(t, "", summarizeHints(nil))
}

func TestSummarizeHintsFormatsPatterns(t *testing.T) {
	patterns := []ProceduralPattern{
		{Category: "sorting", ToolSequence: []string{"adaptive_rag_search", "web_search"}, SuccessScore: 0.91, UsageCount: 3},
	}
	out := summarizeHints(patterns)
	assert.Contains(t, out, "sorting")
	assert.Contains(t, out, "adaptive_rag_search -> web_search")
	assert.Contains(t, out, "0.91")
	assert.Contains(t, out, "3 times")
}

func TestReasoningSummaryEmpty(t *testing.T) {
	assert.Equal(t, "", reasoningSummary(nil))
}

func TestReasoningSummaryTruncatesToFive(t *testing.T) {
	thoughts := []string{"a", "b", "c", "d", "e", "f", "g"}
	out := reasoningSummary(thoughts)
	assert.Equal(t, "a | b | c | d | e", out)
}

func TestManagerLoadContextWithNoVectorStore(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{ProceduralMaxPatterns: 5})
	mc := mgr.LoadContext(context.Background(), "sess-1", "user-1", "how does quicksort work", "beginner")
	require.NotNil(t, mc)
	assert.Equal(t, "sess-1", mc.SessionID)
	assert.Equal(t, "user-1", mc.UserID)
	assert.Empty(t, mc.ProceduralHints, "no vector store means no procedural hints to surface")
	assert.Empty(t, mc.RawPatterns)
}

func TestManagerRecordStepAndWorkingTrace(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{})
	entry := WorkingMemoryEntry{SessionID: "sess-2", Iteration: 0, NodeID: "root", Thought: "first thought"}
	mgr.RecordStep(context.Background(), entry)

	trace := mgr.WorkingTrace("sess-2")
	require.Len(t, trace, 1)
	assert.Equal(t, "first thought", trace[0].Thought)
}

func TestManagerWorkingTraceEmptyForUnknownSession(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{})
	assert.Empty(t, mgr.WorkingTrace("never-seen"))
}

func TestManagerSaveSuccessfulGenerationBelowThresholdSkipsSave(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{ProceduralSaveThreshold: 0.8})
	err := mgr.SaveSuccessfulGeneration(context.Background(), "query", "beginner", SuccessfulGeneration{
		FinalCompleteness: 0.5,
		ToolSequence:      []string{"web_search"},
		Iterations:        2,
	})
	assert.NoError(t, err)
}

func TestManagerSaveSuccessfulGenerationAboveThresholdNoBackingStoreNoError(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{ProceduralSaveThreshold: 0.5})
	err := mgr.SaveSuccessfulGeneration(context.Background(), "query", "beginner", SuccessfulGeneration{
		FinalCompleteness: 0.9,
		ToolSequence:      []string{"adaptive_rag_search", "web_search"},
		Iterations:        3,
		Thoughts:          []string{"t1", "t2"},
	})
	assert.NoError(t, err, "no vector/relational store configured means Save degrades to a no-op")
}

func TestManagerUsePatternNoBackingStoreDoesNotPanic(t *testing.T) {
	mgr := NewManager(nil, nil, config.MemoryConfig{})
	assert.NotPanics(t, func() {
		mgr.UsePattern(context.Background(), "pattern-1")
	})
}

func TestWorkingStoreDefaultsTTLWhenZero(t *testing.T) {
	ws := NewWorkingStore(nil, 0)
	require.NotNil(t, ws)
	ws.Append(context.Background(), WorkingMemoryEntry{SessionID: "s", Thought: "x", Timestamp: time.Now()})
	assert.Len(t, ws.Load("s"), 1)
}

func TestWorkingStoreAppendOrdersEntries(t *testing.T) {
	ws := NewWorkingStore(nil, time.Minute)
	ws.Append(context.Background(), WorkingMemoryEntry{SessionID: "s", Iteration: 0, Thought: "first"})
	ws.Append(context.Background(), WorkingMemoryEntry{SessionID: "s", Iteration: 1, Thought: "second"})
	trace := ws.Load("s")
	require.Len(t, trace, 2)
	assert.Equal(t, "first", trace[0].Thought)
	assert.Equal(t, "second", trace[1].Thought)
}

func TestProceduralStoreRetrieveNilVectorStoreReturnsEmpty(t *testing.T) {
	ps := NewProceduralStore(nil, nil)
	out := ps.Retrieve(context.Background(), "query", "", 0, 5)
	assert.Empty(t, out)
}

func TestProceduralStoreRetrieveZeroLimitReturnsEmpty(t *testing.T) {
	ps := NewProceduralStore(nil, nil)
	out := ps.Retrieve(context.Background(), "query", "", 0, 0)
	assert.Empty(t, out)
}

func TestProceduralStoreSaveNoBackingStoreNoError(t *testing.T) {
	ps := NewProceduralStore(nil, nil)
	err := ps.Save(context.Background(), ProceduralPattern{Category: "sorting", SuccessScore: 0.9})
	assert.NoError(t, err)
}

func TestProceduralStoreIncrementUsageNoBackingStoreDoesNotPanic(t *testing.T) {
	ps := NewProceduralStore(nil, nil)
	assert.NotPanics(t, func() {
		ps.IncrementUsage(context.Background(), "pattern-1")
	})
}
