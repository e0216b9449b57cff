package contentguard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
)

func TestPassesPolicyCleanContent(t *testing.T) {
	d := document.New("Merge sort is a divide-and-conquer algorithm.", "src")
	assert.True(t, passesPolicy(d, nil))
}

func TestPassesPolicySuspiciousMarkup(t *testing.T) {
	cases := []string{
		`<script>alert(1)</script>`,
		`javascript:alert(1)`,
		`data:text/html,<h1>hi</h1>`,
		`<img onerror=alert(1) src=x>`,
		`<body onload=alert(1)>`,
	}
	for _, c := range cases {
		d := document.New(c, "src")
		assert.False(t, passesPolicy(d, nil), c)
	}
}

func TestPassesPolicyBlacklistedTerm(t *testing.T) {
	d := document.New("this content mentions Forbidden stuff", "src")
	assert.False(t, passesPolicy(d, []string{"forbidden"}))
}

func TestPassesPolicyIgnoresEmptyBlacklistEntries(t *testing.T) {
	d := document.New("ordinary content", "src")
	assert.True(t, passesPolicy(d, []string{""}))
}

func TestRunPolicyFiltersBatch(t *testing.T) {
	g := &Guard{cfg: config.ContentGuardConfig{BlacklistWords: []string{"blocked"}}}
	docs := []*document.Document{
		document.New("clean prose about sorting algorithms", "src"),
		document.New("<script>bad</script>", "src"),
		document.New("mentions blocked term", "src"),
	}
	out := g.runPolicy(context.Background(), docs)
	assert.Len(t, out, 1)
	assert.Equal(t, "clean prose about sorting algorithms", out[0].Content)
}

func TestRunPolicyAllPass(t *testing.T) {
	g := &Guard{}
	docs := []*document.Document{
		document.New("one clean document", "src"),
		document.New("another clean document", "src"),
	}
	out := g.runPolicy(context.Background(), docs)
	assert.Len(t, out, 2)
}
