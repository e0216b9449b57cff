package contentguard

import (
	"strings"

	"github.com/arborix/tot/internal/document"
)

// qualityGate drops documents too short, too long, lacking a full sentence,
// or dominated by raw URLs rather than prose, per cfg's length/sentence/
// URL-ratio thresholds.
func (g *Guard) qualityGate(docs []*document.Document) []*document.Document {
	out := make([]*document.Document, 0, len(docs))
	for _, d := range docs {
		if passesQuality(d.Content, g.cfg.MinLength, g.cfg.MaxLength, g.cfg.MinSentences, g.cfg.MaxURLRatio) {
			out = append(out, d)
		}
	}
	return out
}

func passesQuality(content string, minLen, maxLen, minSentences int, maxURLRatio float64) bool {
	length := len(content)
	if minLen > 0 && length < minLen {
		return false
	}
	if maxLen > 0 && length > maxLen {
		return false
	}
	if minSentences > 0 && countSentences(content) < minSentences {
		return false
	}
	if maxURLRatio > 0 && urlRatio(content) > maxURLRatio {
		return false
	}
	return true
}

func countSentences(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	return n
}

func urlRatio(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	urls := 0
	for _, f := range fields {
		if strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") || strings.HasPrefix(f, "www.") {
			urls++
		}
	}
	return float64(urls) / float64(len(fields))
}
