package conceptextractor

import (
	"strings"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

// Method is one of the concept-extraction strategies.
type Method string

const (
	MethodAuto      Method = "auto"
	MethodKeyBERT   Method = "keybert"
	MethodSpacy     Method = "spacy"
	MethodHybrid    Method = "hybrid"
	MethodHeuristic Method = "heuristic"
)

// Params is the parsed parameter set for one concept_extractor call.
type Params struct {
	Text   string
	Method Method
	TopN   int
}

func ParseParams(p tools.Params, defaultTopN int) (*Params, error) {
	text := p.GetReply("text").String()
	if strings.TrimSpace(text) == "" {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "concept_extractor: text is required")
	}

	methodStr := string(MethodAuto)
	if _, ok := p.Value("method"); ok {
		methodStr = strings.ToLower(p.GetReply("method").String())
	}
	method := Method(methodStr)
	switch method {
	case MethodAuto, MethodKeyBERT, MethodSpacy, MethodHybrid, MethodHeuristic:
	default:
		return nil, coreerrors.New(coreerrors.KindToolExecution, "concept_extractor: unknown method "+methodStr)
	}

	topN := defaultTopN
	if _, ok := p.Value("top_n"); ok {
		topN = p.GetReply("top_n").Int()
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	return &Params{Text: text, Method: method, TopN: topN}, nil
}
