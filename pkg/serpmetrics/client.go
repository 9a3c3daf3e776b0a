// Package serpmetrics provides a client for the competitive keyword metrics
// API. Missing data is a normal result, not an error; only transport
// failures return errors.
package serpmetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the competitive metrics operations used by the researcher.
type Client interface {
	// Lookup fetches competitive metrics for a keyword. A nil response with
	// nil error means the provider has no data for the keyword.
	Lookup(ctx context.Context, keyword string) (*KeywordData, error)
}

// KeywordData is the provider's competitive view of one keyword.
type KeywordData struct {
	Keyword        string   `json:"keyword"`
	Difficulty     *float64 `json:"difficulty,omitempty"`
	SearchVolume   *int     `json:"search_volume,omitempty"`
	AvgCPC         *float64 `json:"avg_cpc,omitempty"`
	TopCompetitors []string `json:"top_competitors,omitempty"`
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures the client.
type Option func(*httpClient)

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *httpClient) { c.http = h }
}

// New creates a competitive metrics client.
func New(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, keyword string) (*KeywordData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "serpmetrics: rate limit wait")
	}

	endpoint := fmt.Sprintf("%s/v1/keywords?q=%s", c.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpmetrics: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "serpmetrics: lookup %q", keyword)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no data for this keyword
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("serpmetrics: lookup %q: status %d: %s", keyword, resp.StatusCode, string(body))
	}

	var data KeywordData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, eris.Wrapf(err, "serpmetrics: decode response for %q", keyword)
	}
	return &data, nil
}
