// Package document defines the unit of evidence passed between tools, the
// Content Guard pipeline, and the reasoning tree.
package document

// dedupPrefixLen is the number of leading content bytes used for equality
// and hashing. Chosen for dedup without embedding lookups; preserve this
// rule rather than switching to full-content or embedding-based comparison.
const dedupPrefixLen = 100

// Document is a retrieved or processed text chunk.
type Document struct {
	Content  string
	Source   string
	Metadata map[string]any
	Score    float64
}

// New builds a Document with an empty metadata map ready for use.
func New(content, source string) *Document {
	return &Document{
		Content:  content,
		Source:   source,
		Metadata: make(map[string]any),
	}
}

// Key returns the dedup key: the first dedupPrefixLen bytes of content.
// Two documents are considered equal (and hash equal) iff their Keys match.
func (d *Document) Key() string {
	if d == nil {
		return ""
	}
	if len(d.Content) <= dedupPrefixLen {
		return d.Content
	}
	return d.Content[:dedupPrefixLen]
}

// Equal reports whether two documents share the same dedup key.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Key() == other.Key()
}

// Dedup removes later documents whose Key matches an earlier one, preserving
// the order of first occurrence.
func Dedup(docs []*Document) []*Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Clone returns a shallow copy of the document with an independent metadata map.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	meta := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return &Document{
		Content:  d.Content,
		Source:   d.Source,
		Metadata: meta,
		Score:    d.Score,
	}
}

// CloneAll clones a slice of documents.
func CloneAll(docs []*Document) []*Document {
	out := make([]*Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
