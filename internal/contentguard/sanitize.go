package contentguard

import (
	"regexp"
	"strings"

	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/pkg/text"
)

var (
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	repeatedSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// sanitize strips control characters and caps content length for every
// document, and additionally strips HTML markup for web-sourced documents
// only (§9.4: the strip is scoped to content that can actually carry markup).
// Unlike the other stages this never removes a document, only its content.
func (g *Guard) sanitize(docs []*document.Document) []*document.Document {
	maxLen := g.cfg.SanitizeMaxLength
	for _, d := range docs {
		clean := d.Content
		if isWebSourced(d.Source) {
			clean = htmlTagRe.ReplaceAllString(clean, " ")
		}
		clean = controlCharRe.ReplaceAllString(clean, "")
		clean = repeatedSpaceRe.ReplaceAllString(clean, " ")
		clean = strings.TrimSpace(text.TrimAdjacentBlankLines(clean))
		if maxLen > 0 && len(clean) > maxLen {
			clean = clean[:maxLen]
		}
		d.Content = clean
	}
	return docs
}

// isWebSourced reports whether source is a URL, per the webscraper and web
// search tools' convention of setting Document.Source to the page URL.
func isWebSourced(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
