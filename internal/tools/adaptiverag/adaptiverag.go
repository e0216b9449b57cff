// Package adaptiverag implements the Adaptive RAG tool (§4.2): tf-idf,
// semantic, and hybrid (RRF-fused) retrieval over the RAG corpus collection,
// with deterministic auto-strategy classification.
package adaptiverag

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/tools"
	"github.com/arborix/tot/internal/vectorstore"
)

// Name is the canonical registry name of this tool.
const Name = "adaptive_rag_search"

var comparisonMarkers = []string{"vs", "сравнение", "разница", "versus", "compare", "comparison"}

// Tool implements tools.Tool for adaptive_rag_search.
type Tool struct {
	store vectorstore.Store
	index *Index // nil means "index missing" -> fall back to semantic
	cfg   config.AdaptiveRAGConfig
}

// New constructs the tool. index may be nil if the offline tf-idf sidecar
// could not be loaded; the tool then degrades tfidf requests to semantic.
func New(store vectorstore.Store, index *Index, cfg config.AdaptiveRAGConfig) *Tool {
	return &Tool{store: store, index: index, cfg: cfg}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params, t.cfg.DefaultK)
	if err != nil {
		return tools.Failure(err)
	}

	strategy := p.Strategy
	if strategy == StrategyAuto {
		strategy = classify(p.Query, t.cfg)
	}

	var docs []*document.Document
	var execErr error
	switch strategy {
	case StrategyTFIDF:
		docs, execErr = t.searchTFIDF(p.Query, p.K)
	case StrategyHybrid:
		docs, execErr = t.searchHybrid(ctx, p.Query, p.K)
	default:
		docs, execErr = t.searchSemantic(ctx, p.Query, p.K)
	}

	if execErr != nil {
		// Fallback chain: requested strategy -> semantic -> empty success=false.
		if strategy != StrategySemantic {
			docs, execErr = t.searchSemantic(ctx, p.Query, p.K)
		}
		if execErr != nil {
			return tools.Result{Success: false, Error: execErr.Error(), Metadata: map[string]any{"strategy": string(strategy)}}
		}
	}

	return tools.Success(docs, map[string]any{"strategy": string(strategy), "count": len(docs)})
}

// classify implements the deterministic auto-strategy rule of §4.2.
func classify(query string, cfg config.AdaptiveRAGConfig) Strategy {
	words := len(strings.Fields(query))
	chars := len([]rune(query))

	lower := strings.ToLower(query)
	for _, marker := range comparisonMarkers {
		if strings.Contains(lower, marker) {
			return StrategyHybrid
		}
	}
	if chars > cfg.ComplexThresholdChars {
		return StrategyHybrid
	}
	if words < cfg.SimpleThresholdWords && chars < cfg.SimpleThresholdChars {
		return StrategyTFIDF
	}
	return StrategySemantic
}

func (t *Tool) searchTFIDF(query string, k int) ([]*document.Document, error) {
	if t.index == nil {
		return nil, errIndexMissing
	}
	results := t.index.Search(query, k)
	docs := make([]*document.Document, 0, len(results))
	for _, r := range results {
		d := document.New(r.doc.Content, r.doc.Source)
		d.Score = r.score
		docs = append(docs, d)
	}
	return docs, nil
}

func (t *Tool) searchSemantic(ctx context.Context, query string, k int) ([]*document.Document, error) {
	if t.store == nil {
		return nil, errStoreMissing
	}
	return t.store.SimilaritySearch(ctx, vectorstore.CollectionRAGCorpus, query, k, nil)
}

// searchHybrid runs tfidf and semantic concurrently (§5 "hybrid RAG strategy
// runs tfidf and semantic concurrently") and fuses with Reciprocal Rank Fusion.
func (t *Tool) searchHybrid(ctx context.Context, query string, k int) ([]*document.Document, error) {
	var tfidfDocs, semanticDocs []*document.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := t.searchTFIDF(query, k*2)
		if err != nil {
			// tf-idf's own unavailability is tolerated within hybrid: an
			// empty list still participates correctly in RRF.
			tfidfDocs = nil
			return nil
		}
		tfidfDocs = docs
		return nil
	})
	g.Go(func() error {
		docs, err := t.searchSemantic(gctx, query, k*2)
		if err != nil {
			return err
		}
		semanticDocs = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := ReciprocalRankFusion(t.cfg.RRFKConstant, tfidfDocs, semanticDocs)
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

// errIndexMissing marks the tfidf strategy's "index missing" fallback trigger.
var errIndexMissing = indexMissingError{}

type indexMissingError struct{}

func (indexMissingError) Error() string { return "tfidf index missing" }

// errStoreMissing is returned by the semantic strategy when the tool has no vector store.
var errStoreMissing = storeMissingError{}

type storeMissingError struct{}

func (storeMissingError) Error() string { return "vector store not configured" }
