package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/monitoring"
	"github.com/sells-group/domain-cli/internal/tabular"
)

// Enricher runs the full enrichment for one company.
type Enricher interface {
	Enrich(ctx context.Context, req model.CompanyRequest) *model.EnrichmentResult
}

// Pipeline sequences query generation, search, disambiguation and
// verification for one company.
type Pipeline struct {
	searcher Searcher
	analyzer Analyzer
	verifier DomainVerifier
	metrics  *monitoring.Metrics
}

// New creates a Pipeline from its stages. metrics may be nil.
func New(searcher Searcher, analyzer Analyzer, verifier DomainVerifier, metrics *monitoring.Metrics) *Pipeline {
	return &Pipeline{
		searcher: searcher,
		analyzer: analyzer,
		verifier: verifier,
		metrics:  metrics,
	}
}

// Enrich resolves the primary domain for req. It always returns a result;
// stage failures surface as a null domain and a degraded status.
func (p *Pipeline) Enrich(ctx context.Context, req model.CompanyRequest) *model.EnrichmentResult {
	start := time.Now()
	log := zap.L().With(zap.String("company", req.Name))
	log.Info("pipeline: starting enrichment")

	queries := GenerateQueries(req.Name, req.Address)
	log.Debug("pipeline: queries generated", zap.Int("count", len(queries)))

	results := p.searcher.SearchAll(ctx, queries)
	log.Debug("pipeline: search results collected", zap.Int("count", len(results)))

	analysis := p.analyzer.Analyze(ctx, req.Name, req.Address, results)
	status := p.verifier.Verify(ctx, analysis.Domain())

	confidence := analysis.ConfidenceScore
	if analysis.PrimaryDomain == nil {
		confidence = 0
	}
	considered := analysis.AlternativeDomains
	if considered == nil {
		considered = []string{}
	}

	elapsed := time.Since(start)
	result := &model.EnrichmentResult{
		PrimaryDomain:      analysis.PrimaryDomain,
		ConfidenceScore:    confidence,
		SearchQueriesUsed:  queries,
		DomainsConsidered:  considered,
		VerificationStatus: status,
		ProcessingTimeMs:   elapsed.Milliseconds(),
		Metadata: map[string]any{
			"company_name_normalized": NormalizeName(req.Name),
			"ai_model_used":           p.analyzer.Model(),
			"ai_provider":             p.analyzer.Provider(),
			"search_results_count":    len(results),
			"domain_status":           string(status),
			"reasoning":               analysis.Reasoning,
		},
	}

	p.metrics.ObserveLookup(string(status), elapsed)
	log.Info("pipeline: enrichment complete",
		zap.String("domain", analysis.Domain()),
		zap.Float64("confidence", confidence),
		zap.String("status", string(status)),
		zap.Int64("duration_ms", result.ProcessingTimeMs),
	)
	return result
}

// Lookup enriches a company from a free-form "City, State" location and
// returns the four-field summary.
func (p *Pipeline) Lookup(ctx context.Context, name, location string) model.Summary {
	req := model.CompanyRequest{Name: name, Address: tabular.ParseLocation(location)}
	return p.Enrich(ctx, req).Summary()
}
