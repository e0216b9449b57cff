package adaptiverag

import (
	"fmt"
	"strings"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

// Strategy is one of the adaptive RAG retrieval strategies.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategyTFIDF    Strategy = "tfidf"
	StrategySemantic Strategy = "semantic"
	StrategyHybrid   Strategy = "hybrid"
)

// Params is the parsed, validated parameter set for one adaptive_rag_search call.
type Params struct {
	Query    string
	Strategy Strategy
	K        int
}

// ParseParams validates the tagged tool_params map at the registry boundary,
// per Design Note "tagged variant per tool with a parser at the registry
// boundary", rejecting ill-typed invocations before any I/O.
func ParseParams(p tools.Params, defaultK int) (*Params, error) {
	query := p.GetReply("query").String()
	if strings.TrimSpace(query) == "" {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "adaptive_rag_search: query is required")
	}

	strategyStr := string(StrategyAuto)
	if _, ok := p.Value("strategy"); ok {
		strategyStr = strings.ToLower(p.GetReply("strategy").String())
	}
	strategy := Strategy(strategyStr)
	switch strategy {
	case StrategyAuto, StrategyTFIDF, StrategySemantic, StrategyHybrid:
	default:
		return nil, coreerrors.New(coreerrors.KindToolExecution, fmt.Sprintf("adaptive_rag_search: unknown strategy %q", strategy))
	}

	k := defaultK
	if _, ok := p.Value("k"); ok {
		k = p.GetReply("k").Int()
	}
	if k <= 0 {
		k = defaultK
	}

	return &Params{Query: query, Strategy: strategy, K: k}, nil
}
