package model

// VerificationStatus classifies whether a candidate domain answers requests.
type VerificationStatus string

const (
	StatusVerified      VerificationStatus = "verified"
	StatusHTTPOnly      VerificationStatus = "http_only"
	StatusInaccessible  VerificationStatus = "inaccessible"
	StatusUnreachable   VerificationStatus = "unreachable"
	StatusNoDomainFound VerificationStatus = "no_domain_found"
)

// StatusProcessingError marks a batch output row whose enrichment failed.
// It never appears on an EnrichmentResult.
const StatusProcessingError = "processing_error"

// SearchResult is a single hit returned by the metasearch backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine,omitempty"`
}

// AIAnalysis is the validated output of the disambiguation step.
type AIAnalysis struct {
	PrimaryDomain      *string  `json:"primary_domain"`
	ConfidenceScore    float64  `json:"confidence_score"`
	Reasoning          string   `json:"reasoning"`
	AlternativeDomains []string `json:"alternative_domains"`
	EliminatedResults  []string `json:"eliminated_results,omitempty"`
	LocationMatch      string   `json:"location_match,omitempty"`
}

// Domain returns the primary domain or "" when none was found.
func (a AIAnalysis) Domain() string {
	if a.PrimaryDomain == nil {
		return ""
	}
	return *a.PrimaryDomain
}

// EnrichmentResult is the full outcome of one enrichment.
type EnrichmentResult struct {
	PrimaryDomain      *string            `json:"primary_domain" yaml:"primary_domain"`
	ConfidenceScore    float64            `json:"confidence_score" yaml:"confidence_score"`
	SearchQueriesUsed  []string           `json:"search_queries_used" yaml:"search_queries_used"`
	DomainsConsidered  []string           `json:"domains_considered" yaml:"domains_considered"`
	VerificationStatus VerificationStatus `json:"verification_status" yaml:"verification_status"`
	ProcessingTimeMs   int64              `json:"processing_time_ms" yaml:"processing_time_ms"`
	Metadata           map[string]any     `json:"metadata" yaml:"metadata"`
}

// Summary returns the four-field view used by single lookups.
func (r *EnrichmentResult) Summary() Summary {
	return Summary{
		PrimaryDomain:      r.PrimaryDomain,
		ConfidenceScore:    r.ConfidenceScore,
		VerificationStatus: r.VerificationStatus,
		ProcessingTimeMs:   r.ProcessingTimeMs,
	}
}

// Summary is the single-lookup output.
type Summary struct {
	PrimaryDomain      *string            `json:"primary_domain" yaml:"primary_domain"`
	ConfidenceScore    float64            `json:"confidence_score" yaml:"confidence_score"`
	VerificationStatus VerificationStatus `json:"verification_status" yaml:"verification_status"`
	ProcessingTimeMs   int64              `json:"processing_time_ms" yaml:"processing_time_ms"`
}
