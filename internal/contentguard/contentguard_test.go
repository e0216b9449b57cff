package contentguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/metrics"
)

func routerWithToxicity(fn llm.ModelFunc) *llm.Router {
	return llm.NewRouter(&config.Config{ModelRouting: map[config.Task]config.Tier{
		config.TaskToxicityCheck: config.TierCheap,
	}}, nil, fn)
}

func TestCheckEmptyInput(t *testing.T) {
	g := New(config.ContentGuardConfig{Enabled: true}, routerWithToxicity(nil), metrics.NewNop())
	out, report := g.Check(context.Background(), nil)
	assert.Nil(t, out)
	assert.Equal(t, 0, report.TotalChecked)
}

func TestCheckDisabledPassesEverythingThrough(t *testing.T) {
	g := New(config.ContentGuardConfig{Enabled: false}, routerWithToxicity(nil), metrics.NewNop())
	docs := []*document.Document{document.New("anything at all", "src")}
	out, report := g.Check(context.Background(), docs)
	require.Len(t, out, 1)
	assert.Equal(t, 1, report.Passed)
}

func TestCheckFullPipelineSurvivesCleanDocument(t *testing.T) {
	cfg := config.ContentGuardConfig{
		Enabled:            true,
		ToxicityThreshold:  0.5,
		ToxicityBatchSize:  10,
		PolicyCheckEnabled: true,
		MinLength:          5,
		MinSentences:       1,
	}
	router := routerWithToxicity(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return `{"scores": [0.0]}`, nil
	})
	g := New(cfg, router, metrics.NewNop())
	docs := []*document.Document{document.New("Merge sort runs in O(n log n) time.", "src")}

	out, report := g.Check(context.Background(), docs)
	require.Len(t, out, 1)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0, report.FilteredByToxicity)
	assert.Equal(t, 0, report.FilteredByQuality)
}

func TestCheckFiltersToxicDocument(t *testing.T) {
	cfg := config.ContentGuardConfig{
		Enabled:           true,
		ToxicityThreshold: 0.5,
		ToxicityBatchSize: 10,
	}
	router := routerWithToxicity(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return `{"scores": [0.9]}`, nil
	})
	g := New(cfg, router, metrics.NewNop())
	docs := []*document.Document{document.New("toxic content", "src")}

	out, report := g.Check(context.Background(), docs)
	assert.Len(t, out, 0)
	assert.Equal(t, 1, report.FilteredByToxicity)
	assert.Equal(t, 0, report.Passed)
}

func TestCheckShortCircuitsAfterToxicityWipesOut(t *testing.T) {
	cfg := config.ContentGuardConfig{
		Enabled:            true,
		ToxicityThreshold:  0.1,
		PolicyCheckEnabled: true,
	}
	router := routerWithToxicity(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return `{"scores": [0.9, 0.9]}`, nil
	})
	g := New(cfg, router, metrics.NewNop())
	docs := []*document.Document{
		document.New("one toxic doc", "src"),
		document.New("another toxic doc", "src"),
	}
	out, report := g.Check(context.Background(), docs)
	assert.Empty(t, out)
	assert.Equal(t, 2, report.FilteredByToxicity)
	assert.Equal(t, 0, report.FilteredByPolicy, "policy stage never runs once toxicity empties the batch")
}

func TestCheckFiltersByPolicy(t *testing.T) {
	cfg := config.ContentGuardConfig{
		Enabled:            true,
		ToxicityThreshold:  0.5,
		PolicyCheckEnabled: true,
		BlacklistWords:     []string{"blocked"},
	}
	router := routerWithToxicity(func(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
		return `{"scores": [0.0, 0.0]}`, nil
	})
	g := New(cfg, router, metrics.NewNop())
	docs := []*document.Document{
		document.New("clean prose here", "src"),
		document.New("this mentions blocked term", "src"),
	}
	out, report := g.Check(context.Background(), docs)
	require.Len(t, out, 1)
	assert.Equal(t, 1, report.FilteredByPolicy)
	assert.Equal(t, "clean prose here", out[0].Content)
}
