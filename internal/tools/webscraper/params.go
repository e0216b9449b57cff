package webscraper

import (
	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

// Params is the parsed parameter set for one web_scraper call.
type Params struct {
	URLs    []string
	Timeout int // seconds; 0 means "use configured default"
}

func ParseParams(p tools.Params) (*Params, error) {
	raw, ok := p.Value("urls")
	if !ok {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "web_scraper: urls is required")
	}
	urls, ok := raw.([]string)
	if !ok {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "web_scraper: urls must be []string")
	}
	timeout := 0
	if _, ok := p.Value("timeout"); ok {
		timeout = p.GetReply("timeout").Int()
	}
	return &Params{URLs: urls, Timeout: timeout}, nil
}
