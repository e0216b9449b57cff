// Package correctiverag implements the Corrective RAG tool (§4.2): a batch
// relevance filter over already-retrieved documents, with per-document
// fallback and a default-0.5 last resort.
package correctiverag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/scoring"
	"github.com/arborix/tot/internal/tools"
)

// Name is the canonical registry name of this tool.
const Name = "corrective_rag_filter"

// domainVocabulary is the small built-in vocabulary used for the optional
// concept-coverage score.
var domainVocabulary = []string{
	"сортировка", "сложность", "алгоритм", "дерево", "граф", "рекурсия",
	"динамическое программирование", "жадный", "хеш", "стек", "очередь",
	"sort", "complexity", "algorithm", "tree", "graph", "recursion", "hash",
}

// Tool implements tools.Tool for corrective_rag_filter.
type Tool struct {
	router *llm.Router
	cfg    config.CorrectiveRAGConfig
}

func New(router *llm.Router, cfg config.CorrectiveRAGConfig) *Tool {
	return &Tool{router: router, cfg: cfg}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params, t.cfg.MinRelevance)
	if err != nil {
		return tools.Failure(err)
	}
	if len(p.Documents) == 0 {
		return tools.Success(nil, map[string]any{"filtered": 0})
	}

	scores := t.scoreAll(ctx, p.Query, p.Documents)

	survivors := make([]*document.Document, 0, len(p.Documents))
	for i, d := range p.Documents {
		if scores[i] < p.MinRelevance {
			continue
		}
		clone := d.Clone()
		clone.Score = scores[i]
		survivors = append(survivors, clone)
	}

	meta := map[string]any{
		"input_count":  len(p.Documents),
		"kept_count":   len(survivors),
		"min_relevance": p.MinRelevance,
	}
	if p.EvaluateCoverage {
		meta["concept_coverage"] = conceptCoverage(p.Query, survivors)
	}
	return tools.Success(survivors, meta)
}

// scoreAll batches documents (default batch size 10) through the Cheap
// model; on batch failure falls back to per-document scoring; on
// per-document failure assigns 0.5.
func (t *Tool) scoreAll(ctx context.Context, query string, docs []*document.Document) []float64 {
	scores := make([]float64, len(docs))
	batchSize := t.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]
		batchScores, err := t.scoreBatch(ctx, query, batch)
		if err != nil {
			for i, d := range batch {
				s, err := t.scoreOne(ctx, query, d)
				if err != nil {
					s = 0.5
				}
				scores[start+i] = s
			}
			continue
		}
		copy(scores[start:end], batchScores)
	}
	return scores
}

func (t *Tool) scoreBatch(ctx context.Context, query string, docs []*document.Document) ([]float64, error) {
	model := t.router.ModelFor(config.TaskRelevanceScoring)
	prompt := buildBatchPrompt(query, docs)
	raw, err := model.Invoke(ctx, prompt, t.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Scores) != len(docs) {
		return nil, fmt.Errorf("corrective_rag_filter: batch returned %d scores for %d documents", len(parsed.Scores), len(docs))
	}
	for i := range parsed.Scores {
		parsed.Scores[i] = scoring.Clamp01(parsed.Scores[i])
	}
	return parsed.Scores, nil
}

func (t *Tool) scoreOne(ctx context.Context, query string, d *document.Document) (float64, error) {
	model := t.router.ModelFor(config.TaskRelevanceScoring)
	prompt := fmt.Sprintf("Query: %s\nDocument: %s\nRate relevance in [0,1] as JSON {\"score\": <float>}.", query, truncate(d.Content, 500))
	raw, err := model.Invoke(ctx, prompt, t.cfg.Timeout)
	if err != nil {
		return 0, err
	}
	var parsed struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return 0, err
	}
	return scoring.Clamp01(parsed.Score), nil
}

func buildBatchPrompt(query string, docs []*document.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nRate the relevance of each document in [0,1].\n", query)
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s\n", i, truncate(d.Content, 400))
	}
	b.WriteString(`Respond as JSON {"scores": [<float>, ...]} in document order.`)
	return b.String()
}

// conceptCoverage is the fraction of the domain vocabulary present in the
// query that is also present across the surviving documents.
func conceptCoverage(query string, docs []*document.Document) float64 {
	lowerQuery := strings.ToLower(query)
	var inQuery []string
	for _, term := range domainVocabulary {
		if strings.Contains(lowerQuery, term) {
			inQuery = append(inQuery, term)
		}
	}
	if len(inQuery) == 0 {
		return 0
	}
	var combined strings.Builder
	for _, d := range docs {
		combined.WriteString(strings.ToLower(d.Content))
		combined.WriteByte(' ')
	}
	body := combined.String()
	covered := 0
	for _, term := range inQuery {
		if strings.Contains(body, term) {
			covered++
		}
	}
	return float64(covered) / float64(len(inQuery))
}

func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
