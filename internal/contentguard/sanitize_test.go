package contentguard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
)

func TestSanitizeStripsMarkupForWebSourcedDocuments(t *testing.T) {
	g := &Guard{}
	docs := []*document.Document{
		document.New("<p>hello\x01world</p>", "https://example.com/page"),
	}
	out := g.sanitize(docs)
	assert.Equal(t, "helloworld", out[0].Content)
}

func TestSanitizeLeavesMarkupForNonWebSourcedDocuments(t *testing.T) {
	g := &Guard{}
	docs := []*document.Document{
		document.New("<p>hello\x01world</p>", "working_memory"),
	}
	out := g.sanitize(docs)
	assert.Equal(t, "<p>helloworld</p>", out[0].Content)
}

func TestIsWebSourced(t *testing.T) {
	assert.True(t, isWebSourced("http://example.com"))
	assert.True(t, isWebSourced("https://example.com"))
	assert.False(t, isWebSourced("procedural_memory"))
	assert.False(t, isWebSourced(""))
}

func TestSanitizeCollapsesBlankLines(t *testing.T) {
	g := &Guard{}
	docs := []*document.Document{
		document.New("line one\n\n\n\nline two", "src"),
	}
	out := g.sanitize(docs)
	assert.NotContains(t, out[0].Content, "\n\n\n")
}

func TestSanitizeTruncatesToMaxLength(t *testing.T) {
	g := &Guard{cfg: config.ContentGuardConfig{SanitizeMaxLength: 5}}
	docs := []*document.Document{document.New("this is much longer than five", "src")}
	out := g.sanitize(docs)
	assert.Len(t, out[0].Content, 5)
}

func TestSanitizeZeroMaxLengthDisablesTruncation(t *testing.T) {
	g := &Guard{}
	content := "this content is left alone"
	docs := []*document.Document{document.New(content, "src")}
	out := g.sanitize(docs)
	assert.Equal(t, content, out[0].Content)
}
