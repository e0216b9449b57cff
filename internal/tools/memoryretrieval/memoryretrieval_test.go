package memoryretrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/memory"
	"github.com/arborix/tot/internal/tools"
)

func TestExecuteInvalidParamsFails(t *testing.T) {
	tool := New(memory.NewManager(nil, nil, config.MemoryConfig{}))
	res := tool.Execute(context.Background(), tools.Params{})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestExecuteReturnsWorkingMemorySteps(t *testing.T) {
	mgr := memory.NewManager(nil, nil, config.MemoryConfig{})
	mgr.RecordStep(context.Background(), memory.WorkingMemoryEntry{
		SessionID: "sess-1", Iteration: 0, NodeID: "root", Thought: "first step", ToolUsed: "web_search",
	})

	tool := New(mgr)
	res := tool.Execute(context.Background(), tools.Params{
		"query":       "quicksort",
		"memory_type": "working",
		"session_id":  "sess-1",
	})
	require.True(t, res.Success)
	require.Len(t, res.Documents, 1)
	assert.Contains(t, res.Documents[0].Content, "first step")
	assert.Equal(t, Name, tool.Name())
}

func TestExecuteEmptySessionReturnsNoDocuments(t *testing.T) {
	mgr := memory.NewManager(nil, nil, config.MemoryConfig{})
	tool := New(mgr)
	res := tool.Execute(context.Background(), tools.Params{
		"query":       "quicksort",
		"memory_type": "working",
		"session_id":  "never-recorded",
	})
	require.True(t, res.Success)
	assert.Empty(t, res.Documents)
}

func TestExecuteProceduralWithNoVectorStoreReturnsNoDocuments(t *testing.T) {
	mgr := memory.NewManager(nil, nil, config.MemoryConfig{})
	tool := New(mgr)
	res := tool.Execute(context.Background(), tools.Params{
		"query":       "quicksort",
		"memory_type": "procedural",
	})
	require.True(t, res.Success)
	assert.Empty(t, res.Documents)
}
