package llm

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/metrics"
)

// Router maps a task kind to one of the two model endpoints. The mapping is
// static configuration; Router itself only holds the two constructed Models
// and the per-search call counters.
type Router struct {
	routing map[config.Task]config.Tier
	models  map[config.Tier]Model

	mu     sync.Mutex
	counts map[config.Tier]int
}

// NewRouter builds a Router from a validated Config and the two endpoint Models.
func NewRouter(cfg *config.Config, expensive, cheap Model) *Router {
	return &Router{
		routing: cfg.ModelRouting,
		models: map[config.Tier]Model{
			config.TierExpensive: expensive,
			config.TierCheap:     cheap,
		},
		counts: make(map[config.Tier]int),
	}
}

// NewRouterFromConfig constructs both endpoint Models from cfg and wires a Router.
func NewRouterFromConfig(cfg *config.Config, log *zap.Logger, mc *metrics.Collector) *Router {
	expensive := NewOpenAIModel(cfg.Expensive.BaseURL, cfg.Expensive.APIKey, cfg.Expensive.Model, cfg.Expensive.Temperature, string(config.TierExpensive), log, mc)
	cheap := NewOpenAIModel(cfg.Cheap.BaseURL, cfg.Cheap.APIKey, cfg.Cheap.Model, cfg.Cheap.Temperature, string(config.TierCheap), log, mc)
	return NewRouter(cfg, expensive, cheap)
}

// ModelFor returns the Model responsible for task, per the static routing
// table, and records a call-count increment for its tier.
func (r *Router) ModelFor(task config.Task) Model {
	tier := r.routing[task]
	r.mu.Lock()
	r.counts[tier]++
	r.mu.Unlock()
	return r.models[tier]
}

// CallCounts returns a snapshot of per-tier call counts accumulated so far.
func (r *Router) CallCounts() map[config.Tier]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[config.Tier]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// Reset clears the accumulated call counts; used at the start of a new search
// since ToTResult's counts are scoped to a single search.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.counts)
}
