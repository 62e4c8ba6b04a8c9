// Package jira is the REST client for the issue tracker.
//
// Only two operations are needed by the dashboard: fetching a ticket by key
// and running a JQL search. Both are cached through the shared API-response
// cache under keys built by cache.Key, so the admin facade can enumerate and
// clear them like every other cached endpoint.
package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/circuitbreaker"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/metrics"
)

const apiName = "jira"

// jiraTime is the timestamp layout used by the issue tracker API.
const jiraTime = "2006-01-02T15:04:05.000-0700"

// APIError is a non-2xx answer from the issue tracker API.
type APIError struct {
	StatusCode int
	Endpoint   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("jira: %s returned status %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether the error is a server-side failure worth retrying.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is transient: a 5xx answer or a transport
// failure that never produced a status.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return err != nil
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://issues.example.com/rest/api/2".
	BaseURL string
	// Token is the bearer token sent with every request.
	Token string
	// MaxRetries is how many times a failed request is retried.
	MaxRetries int
	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration
	// HTTPClient is optional; defaults to a client with a 15s timeout.
	HTTPClient *http.Client
	// Breaker is optional circuit breaker protection for upstream calls.
	Breaker *circuitbreaker.CircuitBreaker
}

// Client fetches tickets from the issue tracker, caching responses.
type Client struct {
	baseURL     string
	token       string
	maxRetries  int
	retryDelay  time.Duration
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	ticketCache *cache.API[model.Ticket]
	searchCache *cache.API[model.TicketSearchResult]
}

// New creates a Client. The two caches may be nil, which disables caching
// for the corresponding operation.
func New(cfg Config, ticketCache *cache.API[model.Ticket], searchCache *cache.API[model.TicketSearchResult]) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		httpClient:  httpClient,
		breaker:     cfg.Breaker,
		ticketCache: ticketCache,
		searchCache: searchCache,
	}
}

// issueDoc mirrors the upstream issue representation.
type issueDoc struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee struct {
			Name string `json:"name"`
		} `json:"assignee"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
		Updated string   `json:"updated"`
		Labels  []string `json:"labels"`
	} `json:"fields"`
}

// searchDoc mirrors the upstream search response.
type searchDoc struct {
	Total  int        `json:"total"`
	Issues []issueDoc `json:"issues"`
}

func (d issueDoc) toTicket() model.Ticket {
	updated, _ := time.Parse(jiraTime, d.Fields.Updated)
	return model.Ticket{
		Key:      d.Key,
		Summary:  d.Fields.Summary,
		Status:   d.Fields.Status.Name,
		Assignee: d.Fields.Assignee.Name,
		Priority: d.Fields.Priority.Name,
		Updated:  updated,
		Labels:   d.Fields.Labels,
	}
}

// Ticket fetches a single ticket by key. skipCache bypasses the cache read
// but a fresh result is still written back.
func (c *Client) Ticket(ctx context.Context, key string, skipCache bool) (model.Ticket, error) {
	cacheKey := cache.Key("getTicket", map[string]any{"key": key})
	if c.ticketCache != nil && !skipCache {
		if cached, ok := c.ticketCache.Get(cacheKey); ok {
			return cached.Data, nil
		}
	}

	var doc issueDoc
	if err := c.get(ctx, "getTicket", "/issue/"+url.PathEscape(key), nil, &doc); err != nil {
		return model.Ticket{}, err
	}

	ticket := doc.toTicket()
	if c.ticketCache != nil {
		c.ticketCache.Set(cacheKey, ticket, nil)
	}
	return ticket, nil
}

// SearchJQL runs a JQL search. skipCache bypasses the cache read but a fresh
// result is still written back.
func (c *Client) SearchJQL(ctx context.Context, jql string, skipCache bool) (model.TicketSearchResult, error) {
	cacheKey := cache.Key("searchTickets", map[string]any{"jql": jql})
	if c.searchCache != nil && !skipCache {
		if cached, ok := c.searchCache.Get(cacheKey); ok {
			return cached.Data, nil
		}
	}

	query := url.Values{}
	query.Set("jql", jql)

	var doc searchDoc
	if err := c.get(ctx, "searchTickets", "/search", query, &doc); err != nil {
		return model.TicketSearchResult{}, err
	}

	result := model.TicketSearchResult{Total: doc.Total}
	result.Tickets = make([]model.Ticket, 0, len(doc.Issues))
	for _, issue := range doc.Issues {
		result.Tickets = append(result.Tickets, issue.toTicket())
	}

	if c.searchCache != nil {
		c.searchCache.Set(cacheKey, result, nil)
	}
	return result, nil
}

// get performs a GET with the client's retry policy.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordUpstreamRetry(apiName, endpoint)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		err := c.attempt(ctx, endpoint, path, query, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("jira: %s: retries exhausted: %w", endpoint, lastErr)
}

func (c *Client) attempt(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if c.breaker == nil {
		return c.doRequest(ctx, endpoint, path, query, out)
	}
	return c.breaker.Execute(ctx, func() error {
		return c.doRequest(ctx, endpoint, path, query, out)
	})
}

func (c *Client) doRequest(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(apiName, endpoint, 0, time.Since(start))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamRequest(apiName, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
