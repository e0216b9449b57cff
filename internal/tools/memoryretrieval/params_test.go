package memoryretrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

func TestParseParamsRequiresQuery(t *testing.T) {
	_, err := ParseParams(tools.Params{}, defaultLimit, defaultMinSuccess)
	require.Error(t, err)
	assert.True(t, coreerrors.Is(err, coreerrors.KindToolExecution))
}

func TestParseParamsDefaultsToTypeAll(t *testing.T) {
	p, err := ParseParams(tools.Params{"query": "quicksort"}, defaultLimit, defaultMinSuccess)
	require.NoError(t, err)
	assert.Equal(t, TypeAll, p.MemoryType)
	assert.Equal(t, defaultLimit, p.Limit)
	assert.Equal(t, defaultMinSuccess, p.MinSuccessScore)
}

func TestParseParamsAcceptsExplicitMemoryType(t *testing.T) {
	p, err := ParseParams(tools.Params{"query": "q", "memory_type": "working"}, defaultLimit, defaultMinSuccess)
	require.NoError(t, err)
	assert.Equal(t, TypeWorking, p.MemoryType)
}

func TestParseParamsRejectsUnknownMemoryType(t *testing.T) {
	_, err := ParseParams(tools.Params{"query": "q", "memory_type": "bogus"}, defaultLimit, defaultMinSuccess)
	require.Error(t, err)
	assert.True(t, coreerrors.Is(err, coreerrors.KindToolExecution))
}

func TestParseParamsLimitFallsBackWhenNonPositive(t *testing.T) {
	p, err := ParseParams(tools.Params{"query": "q", "limit": 0}, 7, defaultMinSuccess)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Limit)
}

func TestParseParamsLimitOverride(t *testing.T) {
	p, err := ParseParams(tools.Params{"query": "q", "limit": 3}, defaultLimit, defaultMinSuccess)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Limit)
}

func TestParseParamsMinSuccessScoreOverride(t *testing.T) {
	p, err := ParseParams(tools.Params{"query": "q", "min_success_score": 0.75}, defaultLimit, defaultMinSuccess)
	require.NoError(t, err)
	assert.Equal(t, 0.75, p.MinSuccessScore)
}
