package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/model"
)

const issueJSON = `{
	"key": "PROJ-1432",
	"fields": {
		"summary": "Uploads time out on large files",
		"status": {"name": "In Progress"},
		"assignee": {"name": "jdoe"},
		"priority": {"name": "High"},
		"updated": "2025-06-01T10:30:00.000+0000",
		"labels": ["backend"]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ticketCache := cache.NewAPI[model.Ticket](time.Minute)
	searchCache := cache.NewAPI[model.TicketSearchResult](time.Minute)
	return New(Config{
		BaseURL:    server.URL,
		Token:      "bearer-token",
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
	}, ticketCache, searchCache)
}

func TestTicket(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(issueJSON))
	}, 0)

	ticket, err := client.Ticket(context.Background(), "PROJ-1432", false)

	require.NoError(t, err)
	assert.Equal(t, "/issue/PROJ-1432", gotPath)
	assert.Equal(t, "Bearer bearer-token", gotAuth)
	assert.Equal(t, "PROJ-1432", ticket.Key)
	assert.Equal(t, "Uploads time out on large files", ticket.Summary)
	assert.Equal(t, "In Progress", ticket.Status)
	assert.Equal(t, "jdoe", ticket.Assignee)
	assert.Equal(t, "High", ticket.Priority)
	assert.Equal(t, []string{"backend"}, ticket.Labels)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), ticket.Updated.UTC())
}

func TestTicket_SecondCallServedFromCache(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(issueJSON))
	}, 0)

	_, err := client.Ticket(context.Background(), "PROJ-1432", false)
	require.NoError(t, err)
	_, err = client.Ticket(context.Background(), "PROJ-1432", false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTicket_SkipCacheRefetchesButStillWrites(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(issueJSON))
	}, 0)

	_, err := client.Ticket(context.Background(), "PROJ-1432", false)
	require.NoError(t, err)
	_, err = client.Ticket(context.Background(), "PROJ-1432", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	_, err = client.Ticket(context.Background(), "PROJ-1432", false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "the bypassing fetch refreshed the cache")
}

func TestSearchJQL(t *testing.T) {
	var gotJQL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotJQL = r.URL.Query().Get("jql")
		_, _ = w.Write([]byte(`{"total": 1, "issues": [` + issueJSON + `]}`))
	}, 0)

	result, err := client.SearchJQL(context.Background(), `project = PROJ AND status = "In Progress"`, false)

	require.NoError(t, err)
	assert.Equal(t, `project = PROJ AND status = "In Progress"`, gotJQL)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Tickets, 1)
	assert.Equal(t, "PROJ-1432", result.Tickets[0].Key)
}

func TestSearchJQL_Cached(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"total": 0, "issues": []}`))
	}, 0)

	_, err := client.SearchJQL(context.Background(), "project = PROJ", false)
	require.NoError(t, err)
	_, err = client.SearchJQL(context.Background(), "project = PROJ", false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 1)

	_, err := client.Ticket(context.Background(), "PROJ-1", false)

	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "one initial attempt plus one retry")
}

func TestGet_ClientErrorsFailFast(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}, 3)

	_, err := client.Ticket(context.Background(), "PROJ-404", false)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{StatusCode: 500}))
	assert.False(t, IsRetryable(&APIError{StatusCode: 400}))
	assert.False(t, IsRetryable(nil))
}
