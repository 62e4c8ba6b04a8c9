// Package gitlab is the REST client for the Git hosting platform.
//
// It speaks the small slice of the API the dashboard needs: group merge
// requests, group members, subgroup search and user lookup. Server errors
// (5xx) and transport failures are retried a configured number of times with
// a delay between attempts; client errors (4xx) propagate immediately.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/revdash/revdash/internal/circuitbreaker"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/metrics"
)

const (
	// tokenHeader carries the private token for every request.
	tokenHeader = "PRIVATE-TOKEN"

	// DefaultPerPage is the upstream page size when the caller gives none.
	DefaultPerPage = 25

	apiName = "gitlab"
)

// Pagination response headers from list endpoints.
const (
	HeaderTotal      = "x-total"
	HeaderTotalPages = "x-total-pages"
	HeaderPage       = "x-page"
	HeaderPerPage    = "x-per-page"
	HeaderNextPage   = "x-next-page"
	HeaderPrevPage   = "x-prev-page"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://git.example.com/api/v4".
	BaseURL string
	// Token is the private token sent with every request.
	Token string
	// ParentGroupID is the namespace under which team subgroups are searched.
	ParentGroupID int
	// MaxRetries is how many times a failed request is retried (not counting
	// the initial attempt). Zero disables retries.
	MaxRetries int
	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration
	// HTTPClient is optional; defaults to a client with a 15s timeout.
	HTTPClient *http.Client
	// Breaker is optional circuit breaker protection for upstream calls.
	Breaker *circuitbreaker.CircuitBreaker
}

// Client is a retrying REST client for the Git hosting API.
type Client struct {
	baseURL       string
	token         string
	parentGroupID int
	maxRetries    int
	retryDelay    time.Duration
	httpClient    *http.Client
	breaker       *circuitbreaker.CircuitBreaker
}

// New creates a Client from the given configuration.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		token:         cfg.Token,
		parentGroupID: cfg.ParentGroupID,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		httpClient:    httpClient,
		breaker:       cfg.Breaker,
	}
}

// WithRetries returns a copy of the client with a different retry budget,
// for callers that override max_retries per request.
func (c *Client) WithRetries(maxRetries int) *Client {
	if maxRetries < 0 || maxRetries == c.maxRetries {
		return c
	}
	clone := *c
	clone.maxRetries = maxRetries
	return &clone
}

// Group is a subgroup as returned by the subgroup search endpoint.
type Group struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
}

// ListMROptions selects a page of group merge requests.
type ListMROptions struct {
	GroupID int
	Page    int
	PerPage int
	// State filters by MR state ("opened", "merged", ...); empty means all.
	State string
	// MaxRetries overrides the client retry budget when positive.
	MaxRetries int
}

// ListGroupMRs fetches one page of merge requests for a group. It returns the
// page items, the pagination metadata parsed from the response headers, and
// the raw pagination headers for caching alongside the payload.
func (c *Client) ListGroupMRs(ctx context.Context, opts ListMROptions) ([]model.MergeRequest, model.PageMeta, map[string]string, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	if opts.State != "" {
		query.Set("state", opts.State)
	}

	client := c
	if opts.MaxRetries > 0 {
		client = c.WithRetries(opts.MaxRetries)
	}

	var mrs []model.MergeRequest
	header, err := client.get(ctx, "groupMergeRequests", fmt.Sprintf("/groups/%d/merge_requests", opts.GroupID), query, &mrs)
	if err != nil {
		return nil, model.PageMeta{}, nil, err
	}

	meta := pageMetaFromHeader(header, page, perPage)
	return mrs, meta, paginationHeaders(header), nil
}

// GroupMembers lists the members of a group, filtered to active users.
func (c *Client) GroupMembers(ctx context.Context, groupID int) ([]model.TeamUser, error) {
	var users []model.TeamUser
	if _, err := c.get(ctx, "groupMembers", fmt.Sprintf("/groups/%d/members", groupID), nil, &users); err != nil {
		return nil, err
	}
	return model.FilterActive(users), nil
}

// SearchSubgroups searches subgroups by name under the configured parent
// namespace.
func (c *Client) SearchSubgroups(ctx context.Context, name string) ([]Group, error) {
	query := url.Values{}
	query.Set("search", name)

	var groups []Group
	if _, err := c.get(ctx, "subgroups", fmt.Sprintf("/groups/%d/subgroups", c.parentGroupID), query, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// User fetches a single user by id.
func (c *Client) User(ctx context.Context, id int) (model.TeamUser, error) {
	var user model.TeamUser
	if _, err := c.get(ctx, "user", fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return model.TeamUser{}, err
	}
	return user, nil
}

// SearchUsers searches users by name or username, filtered to active users.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]model.TeamUser, error) {
	query := url.Values{}
	query.Set("search", term)

	var users []model.TeamUser
	if _, err := c.get(ctx, "userSearch", "/users", query, &users); err != nil {
		return nil, err
	}
	return model.FilterActive(users), nil
}

// get performs a GET with the client's retry policy. The retry delay is
// awaited through the context so a canceled request stops waiting.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (http.Header, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordUpstreamRetry(apiName, endpoint)
			log.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Retrying upstream request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		header, err := c.attempt(ctx, endpoint, path, query, out)
		if err == nil {
			return header, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("gitlab: %s: %w: %v", endpoint, ErrRetriesExhausted, lastErr)
}

// attempt performs a single request, optionally under the circuit breaker.
func (c *Client) attempt(ctx context.Context, endpoint, path string, query url.Values, out any) (http.Header, error) {
	if c.breaker == nil {
		return c.doRequest(ctx, endpoint, path, query, out)
	}

	var header http.Header
	err := c.breaker.Execute(ctx, func() error {
		var innerErr error
		header, innerErr = c.doRequest(ctx, endpoint, path, query, out)
		return innerErr
	})
	return header, err
}

// doRequest issues the HTTP request and decodes a 2xx JSON body into out.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, query url.Values, out any) (http.Header, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(apiName, endpoint, 0, time.Since(start))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamRequest(apiName, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       string(body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("gitlab: %s: decode response: %w", endpoint, err)
		}
	}
	return resp.Header, nil
}

// pageMetaFromHeader parses the pagination headers, falling back to the
// requested page and page size when the upstream omits them.
func pageMetaFromHeader(header http.Header, page, perPage int) model.PageMeta {
	return PageMetaFromValues(paginationHeaders(header), page, perPage)
}

// PageMetaFromValues rebuilds pagination metadata from the header map that
// ListGroupMRs returns for caching, so a page served from cache carries the
// same metadata as the response it was stored from. Missing current-page and
// page-size values fall back to the requested ones.
func PageMetaFromValues(values map[string]string, page, perPage int) model.PageMeta {
	meta := model.PageMeta{
		TotalItems:  valueInt(values, HeaderTotal),
		TotalPages:  valueInt(values, HeaderTotalPages),
		CurrentPage: valueInt(values, HeaderPage),
		PerPage:     valueInt(values, HeaderPerPage),
		NextPage:    valueInt(values, HeaderNextPage),
		PrevPage:    valueInt(values, HeaderPrevPage),
	}
	if meta.CurrentPage == 0 {
		meta.CurrentPage = page
	}
	if meta.PerPage == 0 {
		meta.PerPage = perPage
	}
	return meta
}

// paginationHeaders extracts the pagination headers as a plain map for
// storage next to cached payloads.
func paginationHeaders(header http.Header) map[string]string {
	out := make(map[string]string)
	for _, name := range []string{HeaderTotal, HeaderTotalPages, HeaderPage, HeaderPerPage, HeaderNextPage, HeaderPrevPage} {
		if v := header.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// valueInt parses an integer map entry; missing or malformed values become 0.
func valueInt(values map[string]string, name string) int {
	v, ok := values[name]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
