package adaptiverag

import (
	"sort"

	"github.com/arborix/tot/internal/document"
)

// ReciprocalRankFusion combines any number of ranked lists with
// score(d) = Σ 1/(C+rank_i(d)) over the lists in which d appears, where rank
// is 1-indexed. C is the smoothing constant (default 60). If one list is
// empty, the fused ranking degenerates to (a re-scored) the other list.
func ReciprocalRankFusion(c float64, lists ...[]*document.Document) []*document.Document {
	type accum struct {
		doc   *document.Document
		score float64
	}
	byKey := make(map[string]*accum)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, d := range list {
			key := d.Key()
			a, ok := byKey[key]
			if !ok {
				a = &accum{doc: d}
				byKey[key] = a
				order = append(order, key)
			}
			a.score += 1.0 / (c + float64(rank+1))
		}
	}

	fused := make([]*document.Document, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		d := a.doc.Clone()
		d.Score = a.score
		fused = append(fused, d)
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}
