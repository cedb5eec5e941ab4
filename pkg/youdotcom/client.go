// Package youdotcom wraps the You.com Search and Live News APIs used as
// the external evidence provider.
package youdotcom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/naaf-labs/naaf-cli/internal/resilience"
)

const defaultBaseURL = "https://api.ydc-index.io"

// Client performs search and live-news lookups against the You.com API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
	LiveNews(ctx context.Context, req NewsRequest) ([]Article, error)
}

// SearchRequest describes one web search.
type SearchRequest struct {
	Query      string
	NumResults int
	// Domains restricts results to the given sites; empty means
	// unrestricted. The restriction is encoded as site: operators the
	// way the API expects them.
	Domains []string
}

// Hit is a single structured search result.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// NewsRequest describes one live-news lookup.
type NewsRequest struct {
	Query string
	Count int
}

// Article is a single live-news item.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Timestamp   string `json:"timestamp"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithSearchBaseURL overrides the search API base URL.
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) { c.searchBaseURL = u }
}

// WithNewsBaseURL overrides the live-news API base URL.
func WithNewsBaseURL(u string) Option {
	return func(c *httpClient) { c.newsBaseURL = u }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

type httpClient struct {
	apiKey        string
	searchBaseURL string
	newsBaseURL   string
	http          *http.Client
	limiter       *rate.Limiter
}

// NewClient creates a You.com API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		searchBaseURL: defaultBaseURL,
		newsBaseURL:   defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) ([]Hit, error) {
	query := req.Query
	if len(req.Domains) > 0 {
		sites := make([]string, len(req.Domains))
		for i, d := range req.Domains {
			sites[i] = "site:" + d
		}
		query = fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
	}

	num := req.NumResults
	if num <= 0 || num > 10 {
		num = 10
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("num_web_results", strconv.Itoa(num))

	var payload struct {
		Hits []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Snippet     string `json:"snippet"`
		} `json:"hits"`
	}
	if err := c.get(ctx, c.searchBaseURL+"/search?"+params.Encode(), &payload); err != nil {
		return nil, eris.Wrap(err, "youdotcom: search")
	}

	hits := make([]Hit, 0, len(payload.Hits))
	for _, h := range payload.Hits {
		snippet := h.Description
		if snippet == "" {
			snippet = h.Snippet
		}
		hits = append(hits, Hit{Title: h.Title, URL: h.URL, Snippet: snippet})
	}
	return hits, nil
}

func (c *httpClient) LiveNews(ctx context.Context, req NewsRequest) ([]Article, error) {
	count := req.Count
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("count", strconv.Itoa(count))

	var payload struct {
		Results []Article `json:"results"`
	}
	if err := c.get(ctx, c.newsBaseURL+"/livenews?"+params.Encode(), &payload); err != nil {
		return nil, eris.Wrap(err, "youdotcom: live news")
	}
	return payload.Results, nil
}

func (c *httpClient) get(ctx context.Context, rawURL string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
