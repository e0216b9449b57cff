package contentguard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
)

func TestPassesQualityMinLength(t *testing.T) {
	assert.False(t, passesQuality("short", 10, 0, 0, 0))
	assert.True(t, passesQuality("long enough content", 10, 0, 0, 0))
	assert.True(t, passesQuality("x", 0, 0, 0, 0), "zero minLen disables the check")
}

func TestPassesQualityMaxLength(t *testing.T) {
	assert.False(t, passesQuality("this is way too long for the cap", 0, 10, 0, 0))
	assert.True(t, passesQuality("short", 0, 10, 0, 0))
	assert.True(t, passesQuality("arbitrarily long content here", 0, 0, 0, 0), "zero maxLen disables the check")
}

func TestPassesQualityMinSentences(t *testing.T) {
	assert.False(t, passesQuality("no terminal punctuation here", 0, 0, 2, 0))
	assert.True(t, passesQuality("One sentence. Two sentences.", 0, 0, 2, 0))
	assert.True(t, passesQuality("no punctuation at all", 0, 0, 0, 0), "zero minSentences disables the check")
}

func TestPassesQualityMaxURLRatio(t *testing.T) {
	assert.False(t, passesQuality("http://a.com http://b.com http://c.com prose", 0, 0, 0, 0.1))
	assert.True(t, passesQuality("mostly prose with http://one.com link", 0, 0, 0, 0.5))
	assert.True(t, passesQuality("http://a.com http://b.com", 0, 0, 0, 0), "zero maxURLRatio disables the check")
}

func TestPassesQualityAllThresholdsTogether(t *testing.T) {
	assert.True(t, passesQuality("A reasonably long sentence about merge sort. It has two sentences.", 10, 1000, 2, 0.3))
	assert.False(t, passesQuality("too short", 1000, 0, 0, 0))
}

func TestCountSentences(t *testing.T) {
	assert.Equal(t, 0, countSentences("no terminators"))
	assert.Equal(t, 1, countSentences("one sentence."))
	assert.Equal(t, 3, countSentences("One! Two? Three."))
}

func TestURLRatio(t *testing.T) {
	assert.Equal(t, 0.0, urlRatio(""))
	assert.Equal(t, 0.0, urlRatio("no urls in this text at all"))
	assert.InDelta(t, 0.5, urlRatio("http://a.com plain"), 1e-9)
	assert.InDelta(t, 1.0, urlRatio("https://a.com www.b.com"), 1e-9)
}

func TestQualityGateFiltersDocuments(t *testing.T) {
	g := &Guard{cfg: config.ContentGuardConfig{MinLength: 10, MinSentences: 1}}
	docs := []*document.Document{
		document.New("a passing sentence here.", "src"),
		document.New("x", "src"),
	}
	out := g.qualityGate(docs)
	assert.Len(t, out, 1)
	assert.Equal(t, "a passing sentence here.", out[0].Content)
}
