// Package conceptextractor implements the Concept Extractor tool (§4.2).
// Neither keybert nor spacy has a Go equivalent in the example pack; the
// keybert and spacy methods are implemented as Cheap-tier model prompts
// (consistent with how every other model-assisted tool in this core talks
// to its endpoint) with the heuristic method as their failure fallback.
package conceptextractor

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/tools"
	"github.com/arborix/tot/pkg/sets"
)

// Name is the canonical registry name of this tool.
const Name = "concept_extractor"

// jaccardDedupThreshold is the default similarity above which two extracted
// phrases are considered duplicates in the hybrid merge.
const jaccardDedupThreshold = 0.85

var domainVocabulary = []string{
	"быстрая сортировка", "сортировка слиянием", "сортировка пузырьком",
	"бинарный поиск", "динамическое программирование", "жадный алгоритм",
	"граф", "дерево", "рекурсия", "хеш-таблица", "стек", "очередь",
	"quicksort", "merge sort", "bubble sort", "binary search",
	"dynamic programming", "greedy algorithm", "graph", "tree", "recursion",
	"hash table", "stack", "queue", "time complexity", "space complexity",
}

var capitalizedPhraseRe = regexp.MustCompile(`\b([A-ZА-Я][a-zа-я]+(?:\s+[A-ZА-Я][a-zа-я]+){0,2})\b`)

// Tool implements tools.Tool for concept_extractor.
type Tool struct {
	router *llm.Router
}

func New(router *llm.Router) *Tool {
	return &Tool{router: router}
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Execute(ctx context.Context, params tools.Params) tools.Result {
	p, err := ParseParams(params, 10)
	if err != nil {
		return tools.Failure(err)
	}

	method := p.Method
	if method == MethodAuto {
		method = MethodHybrid
	}

	var phrases []string
	switch method {
	case MethodHeuristic:
		phrases = heuristicExtract(p.Text, p.TopN)
	case MethodKeyBERT, MethodSpacy:
		phrases = t.modelExtract(ctx, p.Text, p.TopN)
		if len(phrases) == 0 {
			phrases = heuristicExtract(p.Text, p.TopN)
		}
	case MethodHybrid:
		modelPhrases := t.modelExtract(ctx, p.Text, p.TopN)
		heuristicPhrases := heuristicExtract(p.Text, p.TopN)
		phrases = mergeDedup(modelPhrases, heuristicPhrases, jaccardDedupThreshold, p.TopN)
	}

	docs := make([]*document.Document, 0, len(phrases))
	for _, phrase := range phrases {
		d := document.New(phrase, "concept_extractor")
		docs = append(docs, d)
	}
	return tools.Success(docs, map[string]any{"method": string(method), "count": len(phrases)})
}

func (t *Tool) modelExtract(ctx context.Context, text string, topN int) []string {
	model := t.router.ModelFor(config.TaskRelevanceScoring)
	prompt := "Extract up to " + strconv.Itoa(topN) + " key phrases from this text as JSON {\"phrases\": [\"...\"]}.\n\n" + truncate(text, 3000)
	raw, err := model.Invoke(ctx, prompt, 0)
	if err != nil {
		return nil
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil
	}
	var parsed struct {
		Phrases []string `json:"phrases"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil
	}
	if len(parsed.Phrases) > topN {
		parsed.Phrases = parsed.Phrases[:topN]
	}
	return parsed.Phrases
}

// heuristicExtract scans the static domain vocabulary, then falls back to
// capitalized-phrase extraction via regex.
func heuristicExtract(text string, topN int) []string {
	lower := strings.ToLower(text)
	var found []string
	seen := make(map[string]struct{})
	for _, term := range domainVocabulary {
		if strings.Contains(lower, term) {
			if _, ok := seen[term]; !ok {
				found = append(found, term)
				seen[term] = struct{}{}
			}
		}
	}
	if len(found) >= topN {
		return found[:topN]
	}
	for _, m := range capitalizedPhraseRe.FindAllString(text, -1) {
		if _, ok := seen[strings.ToLower(m)]; ok {
			continue
		}
		seen[strings.ToLower(m)] = struct{}{}
		found = append(found, m)
		if len(found) >= topN {
			break
		}
	}
	return found
}

// mergeDedup merges two ranked phrase lists, preferring the first list's
// ordering, deduplicating pairs whose token-Jaccard similarity reaches threshold.
func mergeDedup(preferred, secondary []string, threshold float64, topN int) []string {
	var merged []string
	keep := func(candidate string) bool {
		for _, kept := range merged {
			if jaccard(candidate, kept) >= threshold {
				return false
			}
		}
		return true
	}
	for _, p := range preferred {
		if keep(p) {
			merged = append(merged, p)
		}
	}
	for _, s := range secondary {
		if keep(s) {
			merged = append(merged, s)
		}
	}
	if len(merged) > topN {
		merged = merged[:topN]
	}
	return merged
}

func jaccard(a, b string) float64 {
	setA := sets.Of(strings.Fields(strings.ToLower(a))...)
	setB := sets.Of(strings.Fields(strings.ToLower(b))...)
	if setA.IsEmpty() && setB.IsEmpty() {
		return 1
	}
	inter := 0
	for tok := range setA.Iter() {
		if setB.Contains(tok) {
			inter++
		}
	}
	union := setA.Size() + setB.Size() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
