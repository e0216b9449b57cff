// Package webscraper implements the Web Scraper tool (§4.2): bounded
// concurrent HTML fetch and text extraction with User-Agent rotation, noise
// tag stripping, and a prioritized content-selector scan.
package webscraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/tools"
)

// Name is the canonical registry name of this tool.
const Name = "web_scraper"

// Tool implements tools.Tool for web_scraper and the websearch.Scraper contract.
type Tool struct {
	httpClient *http.Client
	cfg        config.WebScraperConfig
	uaIndex    atomic.Uint64
}

func New(httpClient *http.Client, cfg config.WebScraperConfig) *Tool {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Tool{httpClient: httpClient, cfg: cfg}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params)
	if err != nil {
		return tools.Failure(err)
	}
	scraper := t
	if p.Timeout > 0 {
		cfg := t.cfg
		cfg.Timeout = time.Duration(p.Timeout) * time.Second
		scraper = New(t.httpClient, cfg)
	}
	docs, err := scraper.Scrape(ctx, p.URLs)
	if err != nil {
		return tools.Result{Success: false, Error: err.Error(), Metadata: map[string]any{}}
	}
	return tools.Success(docs, map[string]any{"requested": len(p.URLs), "scraped": len(docs)})
}

// Scrape fetches each URL in bounded concurrent batches (default 5) and
// returns one Document per URL that yielded usable text. An empty URL list
// returns immediately with no documents and zero time waited.
func (t *Tool) Scrape(ctx context.Context, urls []string) ([]*document.Document, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	batchSize := t.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	results := make([]*document.Document, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)

	var mu sync.Mutex
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			doc := t.fetchOne(gctx, u)
			mu.Lock()
			results[i] = doc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*document.Document, 0, len(urls))
	for _, d := range results {
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *Tool) fetchOne(ctx context.Context, rawURL string) *document.Document {
	body, err := t.fetch(ctx, rawURL, t.cfg.Timeout)
	if err != nil {
		// Timeout -> retry once at the extended timeout; any other failure
		// fails the URL outright.
		if ctxDeadlineLike(err) {
			body, err = t.fetch(ctx, rawURL, t.cfg.ExtendedTimeout)
		}
		if err != nil {
			return nil
		}
	}

	text := extractText(body, t.cfg.RemoveTags, t.cfg.ContentSelectors)
	text = collapseWhitespace(text)
	if t.cfg.MaxLength > 0 && len(text) > t.cfg.MaxLength {
		text = text[:t.cfg.MaxLength]
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return document.New(text, rawURL)
}

func (t *Tool) fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.nextUserAgent())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &nonOKStatusError{status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (t *Tool) nextUserAgent() string {
	if len(t.cfg.UserAgents) == 0 {
		return "tot-webscraper/1.0"
	}
	i := t.uaIndex.Add(1) - 1
	return t.cfg.UserAgents[int(i)%len(t.cfg.UserAgents)]
}

type nonOKStatusError struct{ status int }

func (e *nonOKStatusError) Error() string { return "web_scraper: non-2xx status" }

func ctxDeadlineLike(err error) bool {
	return strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "context deadline")
}

// extractText parses the HTML body, removes noise tags, and extracts text
// from the first matching content selector, falling back to <body>.
func extractText(body []byte, removeTags, selectors []string) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	removeSet := make(map[string]struct{}, len(removeTags))
	for _, tag := range removeTags {
		removeSet[tag] = struct{}{}
	}

	var bodyNode *html.Node
	candidates := make(map[string]*html.Node)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "body" {
				bodyNode = n
			}
			if _, skip := removeSet[n.Data]; skip {
				return
			}
			if _, ok := candidates[n.Data]; !ok {
				candidates[n.Data] = n
			}
			for _, attr := range n.Attr {
				if attr.Key == "class" || attr.Key == "id" {
					for _, cls := range strings.Fields(attr.Val) {
						key := "." + cls
						if attr.Key == "id" {
							key = "#" + cls
						}
						if _, ok := candidates[key]; !ok {
							candidates[key] = n
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, sel := range selectors {
		if node, ok := candidates[sel]; ok {
			return textOf(node, removeSet)
		}
	}
	if bodyNode != nil {
		return textOf(bodyNode, removeSet)
	}
	return ""
}

func textOf(n *html.Node, removeSet map[string]struct{}) string {
	if n.Type == html.ElementNode {
		if _, skip := removeSet[n.Data]; skip {
			return ""
		}
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c, removeSet))
		b.WriteByte(' ')
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
