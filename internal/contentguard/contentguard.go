// Package contentguard implements the Content Guard pipeline (§4.3): four
// sequential stages (toxicity, policy, sanitize, quality) applied to every
// batch of documents a tool returns before they join the tree's collected
// evidence. Grounded on the teacher's ai/rag document-refiner chain
// (ai/rag/document_refiner_deduplication.go), which applies a sequence of
// independent Refiner steps over a document batch; each stage here is the
// same shape, specialized to one filtering concern.
package contentguard

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/metrics"
	antspool "github.com/arborix/tot/pkg/sync"
)

// policyPoolSize bounds the Policy stage's per-document worker fan-out.
const policyPoolSize = 16

// Report summarizes one pipeline run, mirroring relational.ContentGuardLog.
type Report struct {
	TotalChecked       int
	Passed             int
	FilteredByToxicity int
	FilteredByPolicy   int
	FilteredByQuality  int
	AverageToxicity    float64
	ProcessingTime     time.Duration
}

// Guard runs the four-stage pipeline over a document batch.
type Guard struct {
	cfg     config.ContentGuardConfig
	router  *llm.Router
	metrics *metrics.Collector

	poolOnce sync.Once
	pool     antspool.Pool
}

func New(cfg config.ContentGuardConfig, router *llm.Router, mc *metrics.Collector) *Guard {
	return &Guard{cfg: cfg, router: router, metrics: mc}
}

// policyPool lazily builds the bounded ants worker pool the Policy stage
// fans per-document checks out to.
func (g *Guard) policyPool() antspool.Pool {
	g.poolOnce.Do(func() {
		p, err := ants.NewPool(policyPoolSize)
		if err != nil {
			g.pool = antspool.PoolOfNoPool()
			return
		}
		g.pool = antspool.PoolOfAnts(p)
	})
	return g.pool
}

// Check runs toxicity -> policy -> sanitize -> quality, short-circuiting to
// an empty result if the input is empty, and returning after any stage that
// leaves zero documents (there is nothing left for later stages to do).
func (g *Guard) Check(ctx context.Context, docs []*document.Document) ([]*document.Document, Report) {
	start := time.Now()
	report := Report{TotalChecked: len(docs)}
	if len(docs) == 0 {
		return nil, report
	}
	if !g.cfg.Enabled {
		report.Passed = len(docs)
		report.ProcessingTime = time.Since(start)
		return docs, report
	}

	surviving := document.CloneAll(docs)

	surviving, toxicityScores := g.runToxicity(ctx, surviving)
	report.FilteredByToxicity = report.TotalChecked - len(surviving)
	report.AverageToxicity = averageOf(toxicityScores)
	if len(surviving) == 0 {
		report.ProcessingTime = time.Since(start)
		return surviving, report
	}

	before := len(surviving)
	if g.cfg.PolicyCheckEnabled {
		surviving = g.runPolicy(ctx, surviving)
	}
	report.FilteredByPolicy = before - len(surviving)
	if len(surviving) == 0 {
		report.ProcessingTime = time.Since(start)
		return surviving, report
	}

	surviving = g.sanitize(surviving)

	before = len(surviving)
	surviving = g.qualityGate(surviving)
	report.FilteredByQuality = before - len(surviving)

	report.Passed = len(surviving)
	report.ProcessingTime = time.Since(start)
	return surviving, report
}

func averageOf(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
