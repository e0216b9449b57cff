package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/relational"
	"github.com/arborix/tot/internal/vectorstore"
)

// ProceduralStore persists successful tool sequences and makes them
// retrievable by similarity + success-score/category filter. It degrades to
// skip-writes (never fails the caller's search) when the vector store is
// down, logging nothing beyond what the relational audit trail records.
type ProceduralStore struct {
	vs  vectorstore.Store // may be nil
	rel relational.Store  // may be nil
	mu  sync.Mutex
	// usageCounts counts IncrementUsage calls per pattern within this
	// process; the durable count is bumped separately in the relational
	// store.
	usageCounts map[string]int
}

func NewProceduralStore(vs vectorstore.Store, rel relational.Store) *ProceduralStore {
	return &ProceduralStore{vs: vs, rel: rel, usageCounts: make(map[string]int)}
}

// Save writes a new procedural pattern. Called only when the generation's
// success score cleared the configured threshold (§4.6); the caller is
// responsible for that check.
func (s *ProceduralStore) Save(ctx context.Context, p ProceduralPattern) error {
	if p.PatternID == "" {
		p.PatternID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.LastUsedAt = p.CreatedAt

	if s.vs != nil {
		doc := patternToDocument(p)
		if err := s.vs.Upsert(ctx, vectorstore.CollectionProceduralMemory, p.PatternID, doc); err != nil {
			// Degrade: vector store failure does not fail the save path;
			// the relational row below remains the durable record.
			_ = err
		}
	}
	if s.rel != nil {
		row := relational.ProceduralPatternRow{
			PatternID:     p.PatternID,
			Category:      p.Category,
			UserLevel:     p.UserLevel,
			ToolSequence:  p.ToolSequence,
			AvgIterations: p.AvgIterations,
			SuccessScore:  p.SuccessScore,
			UsageCount:    p.UsageCount,
			ReasoningText: p.ReasoningPattern,
			CreatedAt:     p.CreatedAt,
			LastUsedAt:    p.LastUsedAt,
		}
		return s.rel.UpsertProceduralPatternRow(ctx, row)
	}
	return nil
}

// Retrieve performs a similarity search against the query, filtered by
// success_score >= minSuccess, and returns the top `limit` patterns.
// Returns nil, never an error, when the vector store is unavailable or limit
// is not positive: procedural hints are an enrichment, not a dependency.
func (s *ProceduralStore) Retrieve(ctx context.Context, query string, category string, minSuccess float64, limit int) []ProceduralPattern {
	if s.vs == nil || limit <= 0 {
		return nil
	}
	filter := vectorstore.Filter{}
	if category != "" {
		filter["category"] = category
	}
	docs, err := s.vs.SimilaritySearch(ctx, vectorstore.CollectionProceduralMemory, query, limit*3, filter)
	if err != nil {
		return nil
	}

	out := make([]ProceduralPattern, 0, limit)
	for _, d := range docs {
		p, ok := documentToPattern(d)
		if !ok || p.SuccessScore < minSuccess {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// IncrementUsage bumps a pattern's usage count idempotently per call; safe
// under concurrent invocation from multiple goroutines within one process.
func (s *ProceduralStore) IncrementUsage(ctx context.Context, patternID string) {
	s.mu.Lock()
	s.usageCounts[patternID]++
	s.mu.Unlock()

	if s.rel != nil {
		_ = s.rel.BumpProceduralUsage(ctx, patternID, time.Now())
	}
}

func patternToDocument(p ProceduralPattern) *document.Document {
	summary := fmt.Sprintf("Pattern %s (%s, level=%s): tools [%s] over ~%.1f iterations, success=%.2f.",
		p.PatternID, p.Category, p.UserLevel, strings.Join(p.ToolSequence, " -> "), p.AvgIterations, p.SuccessScore)
	if p.ReasoningPattern != "" {
		summary += " " + p.ReasoningPattern
	}
	d := document.New(summary, "procedural_memory")
	d.Metadata = map[string]any{
		"pattern_id":     p.PatternID,
		"category":       p.Category,
		"user_level":     p.UserLevel,
		"tool_sequence":  strings.Join(p.ToolSequence, ","),
		"avg_iterations": p.AvgIterations,
		"success_score":  p.SuccessScore,
		"usage_count":    p.UsageCount,
	}
	return d
}

func documentToPattern(d *document.Document) (ProceduralPattern, bool) {
	if d == nil || d.Metadata == nil {
		return ProceduralPattern{}, false
	}
	patternID, _ := d.Metadata["pattern_id"].(string)
	if patternID == "" {
		return ProceduralPattern{}, false
	}
	category, _ := d.Metadata["category"].(string)
	userLevel, _ := d.Metadata["user_level"].(string)
	toolSeq, _ := d.Metadata["tool_sequence"].(string)
	var tools []string
	if toolSeq != "" {
		tools = strings.Split(toolSeq, ",")
	}
	successScore := asFloat(d.Metadata["success_score"])
	avgIterations := asFloat(d.Metadata["avg_iterations"])
	usageCount := int(asFloat(d.Metadata["usage_count"]))
	return ProceduralPattern{
		PatternID:     patternID,
		Category:      category,
		UserLevel:     userLevel,
		ToolSequence:  tools,
		AvgIterations: avgIterations,
		SuccessScore:  successScore,
		UsageCount:    usageCount,
	}, true
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
