package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/monitoring"
	"github.com/sells-group/domain-cli/internal/resilience"
	"github.com/sells-group/domain-cli/pkg/searxng"
)

// Searcher runs search queries for the orchestrator.
type Searcher interface {
	SearchAll(ctx context.Context, queries []string) []model.SearchResult
}

// Gateway queries an ordered list of metasearch instances. The first
// instance is the primary; the rest are fallbacks tried in order.
type Gateway struct {
	instances   []searxng.Client
	breakers    *resilience.Breakers
	opts        []searxng.SearchOption
	limit       int
	timeout     time.Duration
	maxParallel int
	metrics     *monitoring.Metrics
}

// NewGateway builds a gateway over the given instances.
func NewGateway(cfg config.SearchConfig, instances []searxng.Client, metrics *monitoring.Metrics) *Gateway {
	breakerCfg := resilience.FromCircuitConfig(cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeoutSecs)
	breakers := resilience.NewBreakers(breakerCfg, func(name string, from, to resilience.CircuitState) {
		zap.L().Warn("search: breaker state change",
			zap.String("instance", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		metrics.SetBreakerState(name, int(to))
	})

	opts := []searxng.SearchOption{
		searxng.WithEngines(cfg.Engines...),
		searxng.WithLanguage(cfg.Language),
		searxng.WithTimeRange(cfg.TimeRange),
		searxng.WithSafeSearch(cfg.SafeSearch),
		searxng.WithPage(1),
	}

	g := &Gateway{
		instances:   instances,
		breakers:    breakers,
		opts:        opts,
		limit:       cfg.Limit,
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		maxParallel: cfg.MaxParallel,
		metrics:     metrics,
	}
	if g.limit <= 0 {
		g.limit = 10
	}
	if g.maxParallel <= 0 {
		g.maxParallel = 6
	}
	return g
}

// Instances returns the base URLs of the configured instances in order.
func (g *Gateway) Instances() []string {
	out := make([]string, len(g.instances))
	for i, inst := range g.instances {
		out[i] = inst.BaseURL()
	}
	return out
}

// Search runs one query through the fallback chain. It never fails: when
// every instance fails, it logs a warning and returns nil.
func (g *Gateway) Search(ctx context.Context, query string) []model.SearchResult {
	log := zap.L().With(zap.String("query", query))

	strategies := make([]resilience.Strategy[*searxng.SearchResponse], len(g.instances))
	for i, inst := range g.instances {
		strategies[i] = resilience.Strategy[*searxng.SearchResponse]{
			Name:    inst.BaseURL(),
			Breaker: g.breakers.Get(inst.BaseURL()),
			Run: func(ctx context.Context) (*searxng.SearchResponse, error) {
				return inst.Search(ctx, query, g.opts...)
			},
		}
	}

	resp, attempts, err := resilience.NewChain(g.timeout, strategies...).Run(ctx)
	for _, a := range attempts {
		switch {
		case a.Skipped:
			g.metrics.ObserveSearch(a.Name, "skipped")
			log.Debug("search: instance skipped, breaker open", zap.String("instance", a.Name))
		case a.Err != nil:
			g.metrics.ObserveSearch(a.Name, "error")
			log.Warn("search: instance failed", zap.String("instance", a.Name), zap.Error(a.Err))
		default:
			g.metrics.ObserveSearch(a.Name, "ok")
		}
	}
	if err != nil {
		log.Warn("search: all instances failed", zap.Int("instances", len(g.instances)), zap.Error(err))
		return nil
	}

	hits := resp.Results
	if len(hits) > g.limit {
		hits = hits[:g.limit]
	}
	results := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = model.SearchResult{Title: h.Title, URL: h.URL, Content: h.Content, Engine: h.Engine}
	}
	log.Debug("search: results", zap.Int("count", len(results)))
	return results
}

// SearchAll runs every query concurrently and concatenates the results in
// query order. Results are not deduplicated.
func (g *Gateway) SearchAll(ctx context.Context, queries []string) []model.SearchResult {
	perQuery := make([][]model.SearchResult, len(queries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.maxParallel)
	for i, q := range queries {
		eg.Go(func() error {
			perQuery[i] = g.Search(egCtx, q)
			return nil
		})
	}
	_ = eg.Wait()

	var all []model.SearchResult
	for _, rs := range perQuery {
		all = append(all, rs...)
	}
	return all
}
