package contentguard

import (
	"context"
	"strings"
	"sync"

	"github.com/arborix/tot/internal/document"
)

// suspiciousURLPatterns flags documents whose content looks like it is
// trying to smuggle instructions or credentials rather than informational
// prose. Grounded on the Input Validator's injection-pattern scan (§4.4),
// reused here for tool output rather than user input.
var suspiciousURLPatterns = []string{
	"javascript:", "data:text/html", "<script", "onerror=", "onload=",
}

// runPolicy discards documents that look like markup injection or carry a
// blacklisted term, fanning the per-document check out across a bounded
// worker pool since policy checks are pure CPU/string work with no shared
// state to contend over.
func (g *Guard) runPolicy(ctx context.Context, docs []*document.Document) []*document.Document {
	pass := make([]bool, len(docs))

	var wg sync.WaitGroup
	for i, d := range docs {
		i, d := i, d
		wg.Add(1)
		err := g.policyPool().Submit(func() {
			defer wg.Done()
			pass[i] = passesPolicy(d, g.cfg.BlacklistWords)
		})
		if err != nil {
			// Pool saturated or closed: fall back to inline evaluation so a
			// transient pool failure never silently drops a document.
			pass[i] = passesPolicy(d, g.cfg.BlacklistWords)
			wg.Done()
		}
	}
	wg.Wait()

	out := make([]*document.Document, 0, len(docs))
	for i, d := range docs {
		if pass[i] {
			out = append(out, d)
		}
	}
	return out
}

func passesPolicy(d *document.Document, blacklist []string) bool {
	lower := strings.ToLower(d.Content)
	for _, pattern := range suspiciousURLPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	for _, term := range blacklist {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}
