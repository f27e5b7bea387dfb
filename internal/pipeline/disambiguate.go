package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/monitoring"
	"github.com/sells-group/domain-cli/internal/resilience"
)

const (
	// maxPromptResults bounds how many search results reach the prompt.
	maxPromptResults = 25
	// maxContentRunes bounds each result's content snippet.
	maxContentRunes = 400

	reasonNoResults = "no search results available"
)

// FallbackRules tune the domain scan applied to unparseable AI output.
type FallbackRules struct {
	// Confidence is assigned to a domain recovered by the scan.
	Confidence float64
	// ExcludedHosts are never returned, including their subdomains.
	ExcludedHosts []string
	// FileExtensions are suffixes that look like a TLD but name a file.
	FileExtensions []string
	// TechNames are product and framework names written like hosts, such as
	// ASP.NET. They match exactly, case-insensitively.
	TechNames []string
}

// FallbackConfidence is the confidence of a domain recovered by the scan.
const FallbackConfidence = 0.3

// DefaultFallbackRules returns the rules used unless overridden.
func DefaultFallbackRules() FallbackRules {
	return FallbackRules{
		Confidence: FallbackConfidence,
		ExcludedHosts: []string{
			"example.com", "example.org", "example.net",
			"other.com", "another.com", "openrouter.ai",
		},
		FileExtensions: []string{
			"json", "png", "jpg", "jpeg", "gif", "svg", "webp", "ico",
			"html", "htm", "php", "asp", "aspx", "js", "css", "txt",
			"pdf", "xml", "csv", "yaml", "yml", "exe", "doc", "docx",
		},
		TechNames: []string{
			"asp.net", "ado.net", "vb.net", "dot.net", "socket.io",
		},
	}
}

// Analyzer picks the primary domain out of search results.
type Analyzer interface {
	Analyze(ctx context.Context, company string, addr model.Address, results []model.SearchResult) model.AIAnalysis
	Provider() string
	Model() string
}

// Disambiguator prompts a reasoning backend to choose the company's primary
// domain among search results. It never returns an error: every fault
// degrades to a null domain with zero confidence.
type Disambiguator struct {
	reasoner Reasoner
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	timeout  time.Duration
	rules    FallbackRules
	metrics  *monitoring.Metrics
}

// NewDisambiguator creates a Disambiguator using the given reasoner.
func NewDisambiguator(cfg config.AIConfig, reasoner Reasoner, metrics *monitoring.Metrics) *Disambiguator {
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	retry := resilience.FromRetryAttempts(cfg.MaxAttempts)
	retry.OnRetry = resilience.RetryLogger(reasoner.Provider(), "disambiguate")

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Disambiguator{
		reasoner: reasoner,
		limiter:  rate.NewLimiter(limit, 1),
		retry:    retry,
		timeout:  timeout,
		rules:    DefaultFallbackRules(),
		metrics:  metrics,
	}
}

// WithFallbackRules replaces the fallback scan rules.
func (d *Disambiguator) WithFallbackRules(rules FallbackRules) *Disambiguator {
	d.rules = rules
	return d
}

// Provider returns the reasoning backend's provider name.
func (d *Disambiguator) Provider() string { return d.reasoner.Provider() }

// Model returns the reasoning backend's model identifier.
func (d *Disambiguator) Model() string { return d.reasoner.Model() }

// Analyze returns the validated analysis for one company.
func (d *Disambiguator) Analyze(ctx context.Context, company string, addr model.Address, results []model.SearchResult) model.AIAnalysis {
	log := zap.L().With(zap.String("company", company), zap.String("provider", d.reasoner.Provider()))

	if len(results) == 0 {
		return noDomain(reasonNoResults)
	}

	prompt, err := buildPrompt(company, addr, boundResults(results))
	if err != nil {
		log.Error("disambiguate: build prompt", zap.Error(err))
		return noDomain("failed to build prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) (string, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "disambiguate: rate limit wait")
		}
		return d.reasoner.Complete(ctx, prompt)
	})
	if err != nil {
		d.metrics.ObserveAI(d.reasoner.Provider(), "error")
		log.Error("disambiguate: reasoning backend failed", zap.Error(err))
		return noDomain(fmt.Sprintf("AI backend error: %v", err))
	}

	analysis, err := ParseAnalysis(raw)
	if err == nil {
		d.metrics.ObserveAI(d.reasoner.Provider(), "ok")
		return analysis
	}

	log.Warn("disambiguate: unparseable response, scanning for domains", zap.Error(err))
	d.metrics.ObserveAI(d.reasoner.Provider(), "fallback")
	return FallbackExtract(raw, d.rules)
}

func noDomain(reason string) model.AIAnalysis {
	return model.AIAnalysis{Reasoning: reason, AlternativeDomains: []string{}}
}

type promptResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func boundResults(results []model.SearchResult) []promptResult {
	if len(results) > maxPromptResults {
		results = results[:maxPromptResults]
	}
	out := make([]promptResult, len(results))
	for i, r := range results {
		content := r.Content
		if runes := []rune(content); len(runes) > maxContentRunes {
			content = string(runes[:maxContentRunes])
		}
		out[i] = promptResult{Title: r.Title, URL: r.URL, Content: content}
	}
	return out
}

func buildPrompt(company string, addr model.Address, results []promptResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", eris.Wrap(err, "disambiguate: encode results")
	}

	location := addr.Short()
	if location == "" {
		location = "not provided"
	}

	var b strings.Builder
	b.WriteString("You identify the official website of a company from web search results.\n\n")
	fmt.Fprintf(&b, "Company: %s\n", company)
	fmt.Fprintf(&b, "Address: %s\n\n", location)
	b.WriteString("Search results:\n")
	b.Write(buf.Bytes())
	b.WriteString(`
Rules:
1. Pick the PRIMARY business domain. Eliminate social media, news sites, directories, and review sites.
2. Prefer official corporate sites whose name AND location match the company.
3. Avoid regional subsidiaries unless they are clearly the primary entity.
4. Distinguish companies that share a name by their location and industry.
5. If uncertain, return null for primary_domain rather than guessing.

Respond with ONLY one JSON object in this format:
{
  "primary_domain": "domain.tld" or null,
  "confidence_score": 0.0-1.0,
  "reasoning": "how the domain was selected",
  "alternative_domains": ["other candidate domains"],
  "eliminated_results": ["why results were discarded"],
  "location_match": "how well the domain matches the address"
}
`)
	return b.String(), nil
}

// aiResponse is the parse-boundary record for the backend's JSON answer.
type aiResponse struct {
	PrimaryDomain      *string     `json:"primary_domain"`
	ConfidenceScore    flexFloat   `json:"confidence_score"`
	Reasoning          string      `json:"reasoning"`
	AlternativeDomains flexStrings `json:"alternative_domains"`
	EliminatedResults  flexStrings `json:"eliminated_results"`
	LocationMatch      flexString  `json:"location_match"`
}

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "disambiguate: confidence %q", s)
	}
	*f = flexFloat(v)
	return nil
}

// flexStrings accepts an array of strings or of arbitrary values, which are
// kept in their JSON form.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		// A lone string is tolerated as a one-element list.
		var s string
		if json.Unmarshal(b, &s) == nil && s != "" {
			*f = flexStrings{s}
			return nil
		}
		*f = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	*f = out
	return nil
}

// flexString accepts any JSON scalar and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

// ParseAnalysis parses and validates a backend answer. Markdown code fences
// and prose around the outermost JSON object are ignored.
func ParseAnalysis(raw string) (model.AIAnalysis, error) {
	cleaned := cleanJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return model.AIAnalysis{}, eris.New("disambiguate: no JSON object in response")
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return model.AIAnalysis{}, eris.Wrap(err, "disambiguate: unmarshal response")
	}

	analysis := model.AIAnalysis{
		Reasoning:          resp.Reasoning,
		AlternativeDomains: []string{},
		EliminatedResults:  []string(resp.EliminatedResults),
		LocationMatch:      string(resp.LocationMatch),
	}

	if resp.PrimaryDomain != nil {
		if host, ok := NormalizeDomain(*resp.PrimaryDomain); ok {
			analysis.PrimaryDomain = &host
			analysis.ConfidenceScore = clamp01(float64(resp.ConfidenceScore))
		}
	}

	seen := map[string]bool{analysis.Domain(): true}
	for _, alt := range resp.AlternativeDomains {
		host, ok := NormalizeDomain(alt)
		if !ok || seen[host] {
			continue
		}
		seen[host] = true
		analysis.AlternativeDomains = append(analysis.AlternativeDomains, host)
	}

	return analysis, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// cleanJSON strips markdown code fences and surrounding text, keeping the
// outermost {...} span.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

var domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,24}$`)

// NormalizeDomain reduces a URL or host to a bare lowercase hostname and
// reports whether the result is domain-shaped. A leading "www." is kept.
func NormalizeDomain(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "null" || strings.Contains(s, "@") {
		return "", false
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", false
		}
		s = u.Host
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(s, ".")

	if !domainPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

var domainToken = regexp.MustCompile(`(?i)\b(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,24}\b`)

// FallbackExtract scans unparseable text for domain-shaped tokens. Exactly
// one distinct candidate yields that domain at rules.Confidence; anything
// else yields no domain.
func FallbackExtract(raw string, rules FallbackRules) model.AIAnalysis {
	candidates := scanDomains(raw, rules)
	if len(candidates) != 1 {
		reason := "failed to parse AI response"
		if len(candidates) > 1 {
			reason = fmt.Sprintf("failed to parse AI response; %d ambiguous domain candidates", len(candidates))
		}
		return noDomain(reason)
	}

	domain := candidates[0]
	return model.AIAnalysis{
		PrimaryDomain:      &domain,
		ConfidenceScore:    rules.Confidence,
		Reasoning:          "fallback extraction: single domain found in unparseable AI response",
		AlternativeDomains: []string{},
	}
}

func scanDomains(raw string, rules FallbackRules) []string {
	var out []string
	seen := map[string]bool{}

	for _, loc := range domainToken.FindAllStringIndex(raw, -1) {
		if loc[0] > 0 && raw[loc[0]-1] == '@' {
			continue
		}
		// Part of an email local part or a longer dotted token.
		if loc[1] < len(raw) && (raw[loc[1]] == '@' || raw[loc[1]] == '.' && loc[1]+1 < len(raw) && isAlnum(raw[loc[1]+1])) {
			continue
		}

		host := strings.ToLower(raw[loc[0]:loc[1]])
		if isFileName(host, rules.FileExtensions) || isExcluded(host, rules.ExcludedHosts) || slices.Contains(rules.TechNames, host) {
			continue
		}
		key := strings.TrimPrefix(host, "www.")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, host)
	}
	return out
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isFileName(host string, exts []string) bool {
	tld := host[strings.LastIndex(host, ".")+1:]
	for _, ext := range exts {
		if tld == ext {
			return true
		}
	}
	return false
}

func isExcluded(host string, excluded []string) bool {
	bare := strings.TrimPrefix(host, "www.")
	for _, ex := range excluded {
		if bare == ex || strings.HasSuffix(bare, "."+ex) {
			return true
		}
	}
	return false
}
