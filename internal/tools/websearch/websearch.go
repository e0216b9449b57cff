// Package websearch implements the Web Search tool (§4.2): a metasearch
// HTTP GET with mirror fallback, a domain blacklist, and domain-priority
// sorting, optionally handing URLs off to the Web Scraper.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/retry"
	"github.com/arborix/tot/internal/tools"
)

// Name is the canonical registry name of this tool.
const Name = "web_search"

// Scraper is the subset of the Web Scraper tool this tool depends on, kept
// as a narrow interface so the two tools can be wired independently.
type Scraper interface {
	Scrape(ctx context.Context, urls []string) ([]*document.Document, error)
}

type searchResponse struct {
	Web []searchHit `json:"web"`
}

type searchHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Tool implements tools.Tool for web_search.
type Tool struct {
	httpClient *http.Client
	scraper    Scraper
	cfg        config.WebSearchConfig
}

func New(httpClient *http.Client, scraper Scraper, cfg config.WebSearchConfig) *Tool {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Tool{httpClient: httpClient, scraper: scraper, cfg: cfg}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params, t.cfg.ResultsLimit)
	if err != nil {
		return tools.Failure(err)
	}

	hits, mirrorUsed, err := t.fetchWithMirrors(ctx, p.Query)
	if err != nil {
		return tools.Result{Success: false, Error: err.Error(), Metadata: map[string]any{}}
	}

	hits = filterBlacklist(hits, t.cfg.Blacklist)
	sortByPriority(hits)
	if len(hits) > p.NumResults {
		hits = hits[:p.NumResults]
	}

	meta := map[string]any{"mirror_used": mirrorUsed, "result_count": len(hits)}

	if !p.ScrapeContent || t.scraper == nil {
		docs := make([]*document.Document, 0, len(hits))
		for _, h := range hits {
			d := document.New(h.Description, h.URL)
			d.Metadata["title"] = h.Title
			docs = append(docs, d)
		}
		return tools.Success(docs, meta)
	}

	urls := make([]string, len(hits))
	for i, h := range hits {
		urls[i] = h.URL
	}
	docs, err := t.scraper.Scrape(ctx, urls)
	if err != nil {
		return tools.Result{Success: false, Error: err.Error(), Metadata: meta}
	}
	return tools.Success(docs, meta)
}

// fetchWithMirrors tries the primary URL then each fallback in order, each
// retried up to cfg.RetryCount times.
func (t *Tool) fetchWithMirrors(ctx context.Context, query string) ([]searchHit, string, error) {
	mirrors := append([]string{t.cfg.BaseURL}, t.cfg.FallbackURLs...)
	var lastErr error
	for _, base := range mirrors {
		hits, err := t.fetchOnce(ctx, base, query)
		if err == nil {
			return hits, base, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("web_search: all mirrors failed: %w", lastErr)
}

func (t *Tool) fetchOnce(ctx context.Context, base, query string) ([]searchHit, error) {
	policy := retry.Policy{MaxAttempts: t.cfg.RetryCount + 1, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var hits []searchHit
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		reqURL := fmt.Sprintf("%s/api/v1/web?s=%s&nsfw=no", strings.TrimRight(base, "/"), url.QueryEscape(query))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("web_search: %s returned status %d", base, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var parsed searchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return err
		}
		hits = parsed.Web
		return nil
	})
	return hits, err
}

func filterBlacklist(hits []searchHit, blacklist []string) []searchHit {
	if len(blacklist) == 0 {
		return hits
	}
	out := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		blocked := false
		for _, b := range blacklist {
			if strings.Contains(h.URL, b) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, h)
		}
	}
	return out
}

// sortByPriority stably sorts hits by domain priority: edu > gov > org >
// wikipedia > habr > stackoverflow > com/ru > else.
func sortByPriority(hits []searchHit) {
	less := func(i, j int) bool { return priorityOf(hits[i].URL) < priorityOf(hits[j].URL) }
	insertionSortStable(hits, less)
}

func priorityOf(rawURL string) int {
	u, err := url.Parse(rawURL)
	host := rawURL
	if err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	switch {
	case strings.HasSuffix(host, ".edu"):
		return 0
	case strings.HasSuffix(host, ".gov"):
		return 1
	case strings.HasSuffix(host, ".org"):
		return 2
	case strings.Contains(host, "wikipedia"):
		return 3
	case strings.Contains(host, "habr"):
		return 4
	case strings.Contains(host, "stackoverflow"):
		return 5
	case strings.HasSuffix(host, ".com"), strings.HasSuffix(host, ".ru"):
		return 6
	default:
		return 7
	}
}

// insertionSortStable is a stable sort; used instead of sort.SliceStable so
// the comparator can stay simple while ties keep their original order.
func insertionSortStable(hits []searchHit, less func(i, j int) bool) {
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && less(j, j-1) {
			hits[j], hits[j-1] = hits[j-1], hits[j]
			j--
		}
	}
}
