package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		Provider:    config.ProviderOpenRouter,
		Temperature: 0.1,
		MaxTokens:   500,
		TimeoutSecs: 5,
		MaxAttempts: 1,
	}
}

func appleResults() []model.SearchResult {
	return []model.SearchResult{
		{Title: "Apple", URL: "https://www.apple.com/", Content: "Apple Inc. Cupertino, California"},
		{Title: "Apple - Wikipedia", URL: "https://en.wikipedia.org/wiki/Apple_Inc.", Content: "Apple Inc. is an American company"},
	}
}

func TestDisambiguator_Analyze_ParsesBackendJSON(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, mock.AnythingOfType("string")).
		Return(`{"primary_domain":"apple.com","confidence_score":0.95,"reasoning":"official site","alternative_domains":["apple.co.uk"]}`, nil)

	d := NewDisambiguator(testAIConfig(), r, nil)
	got := d.Analyze(context.Background(), "Apple Inc", model.Address{City: "Cupertino", State: "CA"}, appleResults())

	require.NotNil(t, got.PrimaryDomain)
	assert.Equal(t, "apple.com", *got.PrimaryDomain)
	assert.InDelta(t, 0.95, got.ConfidenceScore, 0.0001)
	assert.Equal(t, "official site", got.Reasoning)
	assert.Equal(t, []string{"apple.co.uk"}, got.AlternativeDomains)
	r.AssertExpectations(t)
}

func TestDisambiguator_Analyze_PromptContents(t *testing.T) {
	var prompt string
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return(`{"primary_domain":null,"confidence_score":0}`, nil)

	d := NewDisambiguator(testAIConfig(), r, nil)
	d.Analyze(context.Background(), "Apple Inc", model.Address{City: "Cupertino", State: "CA", Zip: "95014"}, appleResults())

	assert.Contains(t, prompt, "Company: Apple Inc")
	assert.Contains(t, prompt, "Cupertino, CA 95014")
	assert.Contains(t, prompt, `"url": "https://www.apple.com/"`)
	assert.Contains(t, prompt, `"primary_domain"`)
	assert.NotContains(t, prompt, `"engine"`)
}

func TestDisambiguator_Analyze_NoResultsSkipsBackend(t *testing.T) {
	r := new(mockReasoner)

	d := NewDisambiguator(testAIConfig(), r, nil)
	got := d.Analyze(context.Background(), "Fake Company LLC", model.Address{}, nil)

	assert.Nil(t, got.PrimaryDomain)
	assert.Zero(t, got.ConfidenceScore)
	assert.Equal(t, "no search results available", got.Reasoning)
	r.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestDisambiguator_Analyze_BackendError(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("openrouter: unexpected status 401"))

	d := NewDisambiguator(testAIConfig(), r, nil)
	got := d.Analyze(context.Background(), "Apple", model.Address{}, appleResults())

	assert.Nil(t, got.PrimaryDomain)
	assert.Zero(t, got.ConfidenceScore)
	assert.Contains(t, got.Reasoning, "AI backend error")
	r.AssertNumberOfCalls(t, "Complete", 1)
}

func TestDisambiguator_Analyze_FallbackOnProse(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, mock.Anything).
		Return("I believe the official website is apple.com based on the results.", nil)

	d := NewDisambiguator(testAIConfig(), r, nil)
	got := d.Analyze(context.Background(), "Apple", model.Address{}, appleResults())

	require.NotNil(t, got.PrimaryDomain)
	assert.Equal(t, "apple.com", *got.PrimaryDomain)
	assert.InDelta(t, FallbackConfidence, got.ConfidenceScore, 0.0001)
	assert.True(t, strings.HasPrefix(got.Reasoning, "fallback extraction"))
}

func TestBoundResults(t *testing.T) {
	results := make([]model.SearchResult, 40)
	for i := range results {
		results[i] = model.SearchResult{Title: "t", URL: "https://x.com", Content: strings.Repeat("é", 1000), Engine: "bing"}
	}

	got := boundResults(results)
	require.Len(t, got, maxPromptResults)
	assert.Len(t, []rune(got[0].Content), maxContentRunes)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantDomain string
		wantConf   float64
		wantAlts   []string
	}{
		{
			name:       "plain json",
			raw:        `{"primary_domain":"apple.com","confidence_score":0.9,"reasoning":"r","alternative_domains":[]}`,
			wantDomain: "apple.com",
			wantConf:   0.9,
			wantAlts:   []string{},
		},
		{
			name:       "fenced json",
			raw:        "```json\n{\"primary_domain\":\"apple.com\",\"confidence_score\":0.8}\n```",
			wantDomain: "apple.com",
			wantConf:   0.8,
			wantAlts:   []string{},
		},
		{
			name:       "prose around object",
			raw:        "Here you go:\n{\"primary_domain\":\"apple.com\",\"confidence_score\":0.7}\nThanks!",
			wantDomain: "apple.com",
			wantConf:   0.7,
			wantAlts:   []string{},
		},
		{
			name:       "url normalized",
			raw:        `{"primary_domain":"https://WWW.Apple.com/about?x=1","confidence_score":0.9}`,
			wantDomain: "www.apple.com",
			wantConf:   0.9,
			wantAlts:   []string{},
		},
		{
			name:       "confidence clamped high",
			raw:        `{"primary_domain":"apple.com","confidence_score":1.7}`,
			wantDomain: "apple.com",
			wantConf:   1,
			wantAlts:   []string{},
		},
		{
			name:       "confidence clamped low",
			raw:        `{"primary_domain":"apple.com","confidence_score":-0.2}`,
			wantDomain: "apple.com",
			wantConf:   0,
			wantAlts:   []string{},
		},
		{
			name:       "confidence as string",
			raw:        `{"primary_domain":"apple.com","confidence_score":"0.65"}`,
			wantDomain: "apple.com",
			wantConf:   0.65,
			wantAlts:   []string{},
		},
		{
			name:     "non-domain primary rejected",
			raw:      `{"primary_domain":"Apple Inc official site","confidence_score":0.9}`,
			wantConf: 0,
			wantAlts: []string{},
		},
		{
			name:     "null primary zeroes confidence",
			raw:      `{"primary_domain":null,"confidence_score":0.4}`,
			wantConf: 0,
			wantAlts: []string{},
		},
		{
			name:       "alternatives normalized and deduped",
			raw:        `{"primary_domain":"apple.com","confidence_score":0.9,"alternative_domains":["apple.com","https://apple.co.uk/","apple.co.uk","not a domain"]}`,
			wantDomain: "apple.com",
			wantConf:   0.9,
			wantAlts:   []string{"apple.co.uk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDomain, got.Domain())
			assert.InDelta(t, tt.wantConf, got.ConfidenceScore, 0.0001)
			assert.Equal(t, tt.wantAlts, got.AlternativeDomains)
		})
	}
}

func TestParseAnalysis_Diagnostics(t *testing.T) {
	got, err := ParseAnalysis(`{"primary_domain":"apple.com","confidence_score":0.9,"eliminated_results":["wikipedia"],"location_match":true}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"wikipedia"}, got.EliminatedResults)
	assert.Equal(t, "true", got.LocationMatch)
}

func TestParseAnalysis_Errors(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{not valid json}"} {
		_, err := ParseAnalysis(raw)
		assert.Error(t, err, raw)
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"apple.com", "apple.com", true},
		{"APPLE.COM", "apple.com", true},
		{"www.apple.com", "www.apple.com", true},
		{"https://apple.com/path", "apple.com", true},
		{"http://apple.com:8080", "apple.com", true},
		{"apple.com/about", "apple.com", true},
		{"apple.co.uk", "apple.co.uk", true},
		{"info@apple.com", "", false},
		{"apple", "", false},
		{"null", "", false},
		{"", "", false},
		{"apple .com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDomain(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackExtract(t *testing.T) {
	rules := DefaultFallbackRules()

	tests := []struct {
		name       string
		raw        string
		wantDomain string
	}{
		{"single token", "The answer is acme.com.", "acme.com"},
		{"www variant counts once", "acme.com or www.acme.com", "acme.com"},
		{"zero tokens", "I could not find anything useful.", ""},
		{"two candidates", "either acme.com or acme.net", ""},
		{"example host ignored", "see example.com for format; answer acme.io", "acme.io"},
		{"email host ignored", "contact sales@acme.com or visit widgets.com", "widgets.com"},
		{"file names ignored", "output.json and logo.png, site is acme.org", "acme.org"},
		{"only excluded", "format like example.com", ""},
		{"framework name ignored", "Built on ASP.NET; the company site is acme.com", "acme.com"},
		{"only framework names", "Their stack: ASP.NET, ADO.NET and Socket.IO", ""},
		{"framework name any case", "Uses Asp.Net and vb.NET, answer acme.co", "acme.co"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackExtract(tt.raw, rules)
			assert.Equal(t, tt.wantDomain, got.Domain())
			if tt.wantDomain == "" {
				assert.Zero(t, got.ConfidenceScore)
				assert.Equal(t, []string{}, got.AlternativeDomains)
			} else {
				assert.InDelta(t, FallbackConfidence, got.ConfidenceScore, 0.0001)
				assert.Contains(t, got.Reasoning, "fallback extraction")
			}
		})
	}
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":{"b":2}}`, cleanJSON(`text {"a":{"b":2}} more`))
	assert.Equal(t, "plain", cleanJSON("  plain  "))
}
