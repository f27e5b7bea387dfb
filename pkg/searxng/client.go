// Package searxng provides a client for the JSON API of a SearXNG
// metasearch instance.
package searxng

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-cli/internal/resilience"
)

// Client defines the metasearch operations.
type Client interface {
	// Search runs one query against the instance and returns its results in
	// backend ranking order.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
	// BaseURL identifies the instance.
	BaseURL() string
}

// SearchResponse is the parsed /search response.
type SearchResponse struct {
	Query           string   `json:"query"`
	NumberOfResults float64  `json:"number_of_results"`
	Results         []Result `json:"results"`
	Unresponsive    [][]any  `json:"unresponsive_engines,omitempty"`
}

// Result is a single search hit.
type Result struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Engine  string   `json:"engine"`
	Engines []string `json:"engines,omitempty"`
	Score   float64  `json:"score,omitempty"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	engines    []string
	language   string
	timeRange  string
	safeSearch int
	page       int
}

// WithEngines restricts the query to the named engines.
func WithEngines(engines ...string) SearchOption {
	return func(o *searchOpts) { o.engines = engines }
}

// WithLanguage sets the result language (e.g. "en").
func WithLanguage(lang string) SearchOption {
	return func(o *searchOpts) { o.language = lang }
}

// WithTimeRange limits results to day, week, month or year.
func WithTimeRange(tr string) SearchOption {
	return func(o *searchOpts) { o.timeRange = tr }
}

// WithSafeSearch sets the safesearch level (0, 1 or 2).
func WithSafeSearch(level int) SearchOption {
	return func(o *searchOpts) { o.safeSearch = level }
}

// WithPage selects the result page, starting at 1.
func WithPage(page int) SearchOption {
	return func(o *searchOpts) { o.page = page }
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "Domain-Enrichment-Tool/1.0",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) BaseURL() string {
	return c.baseURL
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{page: 1}
	for _, opt := range opts {
		opt(so)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if len(so.engines) > 0 {
		params.Set("engines", strings.Join(so.engines, ","))
	}
	if so.language != "" {
		params.Set("language", so.language)
	}
	params.Set("time_range", so.timeRange)
	params.Set("safesearch", strconv.Itoa(so.safeSearch))
	params.Set("pageno", strconv.Itoa(so.page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("searxng", resp.StatusCode, body)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "searxng: unmarshal response")
	}
	return &result, nil
}
