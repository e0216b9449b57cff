package correctiverag

import (
	"strings"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/tools"
)

// Params is the parsed parameter set for one corrective_rag_filter call.
type Params struct {
	Query            string
	Documents        []*document.Document
	MinRelevance     float64
	EvaluateCoverage bool
}

// ParseParams validates tool_params before any model call is made.
func ParseParams(p tools.Params, defaultMinRelevance float64) (*Params, error) {
	query := p.GetReply("query").String()
	if strings.TrimSpace(query) == "" {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "corrective_rag_filter: query is required")
	}

	raw, ok := p.Value("documents")
	if !ok {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "corrective_rag_filter: documents is required")
	}
	docs, ok := raw.([]*document.Document)
	if !ok {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "corrective_rag_filter: documents must be []*document.Document")
	}

	minRel := defaultMinRelevance
	if _, ok := p.Value("min_relevance"); ok {
		minRel = p.GetReply("min_relevance").Float64()
	}

	return &Params{
		Query:            query,
		Documents:        docs,
		MinRelevance:     minRel,
		EvaluateCoverage: p.GetReply("evaluate_coverage").Bool(),
	}, nil
}
