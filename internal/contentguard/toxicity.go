package contentguard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/scoring"
)

// runToxicity scores every document in batches (default 10, per
// cfg.ToxicityBatchSize) via the Cheap-tier model and drops any document
// whose score meets or exceeds cfg.ToxicityThreshold. A batch scoring failure
// falls back to per-document model scoring; a per-document model failure
// falls back further to the rule-based blacklist scan, so a model outage
// never silently disables the toxicity check.
func (g *Guard) runToxicity(ctx context.Context, docs []*document.Document) ([]*document.Document, []float64) {
	batchSize := g.cfg.ToxicityBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	scores := make([]float64, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batchScores, err := g.scoreToxicityBatch(ctx, docs[start:end])
		if err != nil {
			for i := start; i < end; i++ {
				scores[i] = g.scoreToxicityOne(ctx, docs[i])
			}
			continue
		}
		copy(scores[start:end], batchScores)
	}

	out := make([]*document.Document, 0, len(docs))
	for i, d := range docs {
		if scores[i] < g.cfg.ToxicityThreshold {
			out = append(out, d)
		}
	}
	return out, scores
}

func (g *Guard) scoreToxicityBatch(ctx context.Context, docs []*document.Document) ([]float64, error) {
	model := g.router.ModelFor(config.TaskToxicityCheck)
	var b strings.Builder
	b.WriteString("Rate each text's toxicity from 0 (clean) to 1 (toxic). Reply as JSON {\"scores\": [..]} in input order.\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s\n", i, truncate(d.Content, 500))
	}
	raw, err := model.Invoke(ctx, b.String(), 0)
	if err != nil {
		return nil, err
	}
	parsed, err := extractScores(raw)
	if err != nil || len(parsed) != len(docs) {
		return nil, fmt.Errorf("contentguard: toxicity batch parse mismatch")
	}
	for i := range parsed {
		parsed[i] = scoring.Clamp01(parsed[i])
	}
	return parsed, nil
}

func (g *Guard) scoreToxicityOne(ctx context.Context, d *document.Document) float64 {
	model := g.router.ModelFor(config.TaskToxicityCheck)
	prompt := "Rate this text's toxicity from 0 (clean) to 1 (toxic). Reply with only the number.\n\n" + truncate(d.Content, 500)
	raw, err := model.Invoke(ctx, prompt, 0)
	if err != nil {
		return scoreToxicityRuleBased(d.Content, g.cfg.BlacklistWords)
	}
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%f", &v); err != nil {
		return scoreToxicityRuleBased(d.Content, g.cfg.BlacklistWords)
	}
	return scoring.Clamp01(v)
}

// scoreToxicityRuleBased is the final fallback tier, used only once both the
// batch and per-document model calls have failed: +0.3 per blacklisted word
// found, capped at 1.0.
func scoreToxicityRuleBased(content string, blacklist []string) float64 {
	lower := strings.ToLower(content)
	var score float64
	for _, word := range blacklist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			score += 0.3
		}
	}
	return scoring.Clamp01(score)
}

// extractScores pulls the "scores" array out of the model's JSON reply using
// a streaming scan rather than a full unmarshal, since the reply is
// otherwise discarded immediately after.
func extractScores(raw string) ([]float64, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no json object found")
	}
	data := []byte(raw[start : end+1])

	var scores []float64
	var arrErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if arrErr != nil {
			return
		}
		v, parseErr := strconv.ParseFloat(string(value), 64)
		if parseErr != nil {
			arrErr = parseErr
			return
		}
		scores = append(scores, v)
	}, "scores")
	if err != nil {
		return nil, err
	}
	if arrErr != nil {
		return nil, arrErr
	}
	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
