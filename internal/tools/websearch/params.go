package websearch

import (
	"strings"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

// Params is the parsed parameter set for one web_search call.
type Params struct {
	Query         string
	NumResults    int
	ScrapeContent bool
}

func ParseParams(p tools.Params, defaultNumResults int) (*Params, error) {
	query := p.GetReply("query").String()
	if strings.TrimSpace(query) == "" {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "web_search: query is required")
	}
	num := defaultNumResults
	if _, ok := p.Value("num_results"); ok {
		num = p.GetReply("num_results").Int()
	}
	if num <= 0 {
		num = defaultNumResults
	}
	return &Params{
		Query:         query,
		NumResults:    num,
		ScrapeContent: p.GetReply("scrape_content").Bool(),
	}, nil
}
