package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/gitlab"
	"github.com/revdash/revdash/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMRAPI serves scripted pages and counts upstream calls.
type fakeMRAPI struct {
	pages map[int]fakePage
	err   error
	calls int
}

type fakePage struct {
	items   []model.MergeRequest
	meta    model.PageMeta
	headers map[string]string
}

func (f *fakeMRAPI) ListGroupMRs(_ context.Context, opts gitlab.ListMROptions) ([]model.MergeRequest, model.PageMeta, map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, model.PageMeta{}, nil, f.err
	}
	page := f.pages[opts.Page]
	return page.items, page.meta, page.headers, nil
}

type hygieneFixture struct {
	api    *fakeMRAPI
	router *gin.Engine
}

func newHygieneFixture(t *testing.T, api *fakeMRAPI, team []model.TeamUser) *hygieneFixture {
	t.Helper()

	teamSvc := service.NewTeamService(nil, nil, nil, nil)
	teamSvc.SetCurrentTeam(team)
	pages := cache.NewAPI[[]model.MergeRequest](time.Minute)
	mrSvc := service.NewMRService(api, teamSvc, pages, 42, false)

	caches := map[string]*cache.TTL[model.HygieneResult]{
		service.CategoryTooOld:        cache.NewTTL[model.HygieneResult](time.Minute),
		service.CategoryNotUpdated:    cache.NewTTL[model.HygieneResult](time.Minute),
		service.CategoryPendingReview: cache.NewTTL[model.HygieneResult](time.Minute),
	}
	handler := NewHygieneHandler(mrSvc, teamSvc, caches, DefaultHygieneThresholds())

	router := gin.New()
	router.GET("/api/mrs", handler.ListTeamMRs)
	router.GET("/api/mrs/too-old", handler.TooOld)
	router.GET("/api/mrs/not-updated", handler.NotUpdated)
	router.GET("/api/mrs/pending-review", handler.PendingReview)

	return &hygieneFixture{api: api, router: router}
}

func (f *hygieneFixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, model.HygieneResult) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)

	var envelope struct {
		Data model.HygieneResult `json:"data"`
	}
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope.Data
}

func teamAuthoredMR(id int, authorID int, createdDaysAgo, updatedDaysAgo int) model.MergeRequest {
	now := time.Now()
	return model.MergeRequest{
		ID:        id,
		Author:    &model.TeamUser{ID: authorID},
		CreatedAt: now.Add(-time.Duration(createdDaysAgo) * 24 * time.Hour),
		UpdatedAt: now.Add(-time.Duration(updatedDaysAgo) * 24 * time.Hour),
	}
}

func TestTooOld_ClassifiesAndAnnotates(t *testing.T) {
	meta := model.PageMeta{TotalItems: 3, TotalPages: 1, CurrentPage: 1, PerPage: 25}
	api := &fakeMRAPI{pages: map[int]fakePage{1: {
		items: []model.MergeRequest{
			teamAuthoredMR(1, 7, 30, 1),
			teamAuthoredMR(2, 7, 15, 1),
			teamAuthoredMR(3, 7, 40, 1),
		},
		meta: meta,
	}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	before := time.Now()
	w, result := fixture.get(t, "/api/mrs/too-old")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.Items[0].ID)
	assert.Equal(t, 3, result.Items[1].ID)

	assert.Equal(t, meta, result.Metadata.PageMeta, "upstream pagination metadata echoed")
	assert.Equal(t, service.DefaultTooOldDays, result.Metadata.ThresholdDays)
	assert.False(t, result.Metadata.LastRefreshed.Before(before), "refresh time set at build")
}

func TestTooOld_CustomThreshold(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{1: {
		items: []model.MergeRequest{
			teamAuthoredMR(1, 7, 10, 1),
			teamAuthoredMR(2, 7, 3, 1),
		},
	}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w, result := fixture.get(t, "/api/mrs/too-old?threshold=5")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Items[0].ID)
	assert.Equal(t, 5, result.Metadata.ThresholdDays)
}

func TestServeCategory_SecondRequestServedFromCache(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{1: {
		items: []model.MergeRequest{teamAuthoredMR(1, 7, 30, 20)},
	}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w, first := fixture.get(t, "/api/mrs/not-updated")
	require.Equal(t, http.StatusOK, w.Code)
	w, second := fixture.get(t, "/api/mrs/not-updated")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, api.calls, "second request must not reach upstream")
	assert.Equal(t, first.Metadata.LastRefreshed.Unix(), second.Metadata.LastRefreshed.Unix())
}

func TestServeCategory_SkipCacheRefetchesButStillWrites(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{1: {
		items: []model.MergeRequest{teamAuthoredMR(1, 7, 30, 20)},
	}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	fixture.get(t, "/api/mrs/too-old")
	fixture.get(t, "/api/mrs/too-old?skip_cache=true")
	assert.Equal(t, 2, api.calls, "skip_cache bypasses the cache read")

	fixture.get(t, "/api/mrs/too-old")
	assert.Equal(t, 2, api.calls, "the bypassing fetch refreshed the cache")
}

func TestServeCategory_DistinctParamsUseDistinctCacheEntries(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{1: {}, 2: {}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	fixture.get(t, "/api/mrs/too-old?page=1")
	fixture.get(t, "/api/mrs/too-old?page=2")
	assert.Equal(t, 2, api.calls, "distinct pages each reach upstream")

	w, result := fixture.get(t, "/api/mrs/too-old?page=1&threshold=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, result.Metadata.ThresholdDays)
	assert.Equal(t, 2, api.calls, "a new threshold reclassifies the cached page without refetching")
}

func TestPendingReview_FiltersByTeamReviewer(t *testing.T) {
	now := time.Now()
	stale := now.Add(-10 * 24 * time.Hour)
	api := &fakeMRAPI{pages: map[int]fakePage{1: {
		items: []model.MergeRequest{
			{ID: 1, Author: &model.TeamUser{ID: 7}, UpdatedAt: stale, Reviewers: []model.TeamUser{{ID: 7}}},
			{ID: 2, Author: &model.TeamUser{ID: 7}, UpdatedAt: stale, Reviewers: []model.TeamUser{{ID: 99}}},
			{ID: 3, Author: &model.TeamUser{ID: 7}, UpdatedAt: now, Reviewers: []model.TeamUser{{ID: 7}}},
		},
	}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w, result := fixture.get(t, "/api/mrs/pending-review")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Items[0].ID)
}

func TestServeCategory_InvalidQueryParamsFallBack(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{1: {}}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w, result := fixture.get(t, "/api/mrs/too-old?page=abc&per_page=-3&threshold=0")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.DefaultTooOldDays, result.Metadata.ThresholdDays, "non-positive threshold falls back")
	assert.Equal(t, 1, api.calls)
}

func TestServeCategory_UpstreamFailureIs502(t *testing.T) {
	api := &fakeMRAPI{err: &gitlab.APIError{StatusCode: 503, Endpoint: "groupMergeRequests"}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w, _ := fixture.get(t, "/api/mrs/too-old")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_error")
}

func TestListTeamMRs_PostFilterTotals(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{
		1: {
			items: []model.MergeRequest{teamAuthoredMR(1, 7, 1, 1), teamAuthoredMR(2, 99, 1, 1)},
			meta:  model.PageMeta{TotalItems: 3, CurrentPage: 1, NextPage: 2},
		},
		2: {
			items: []model.MergeRequest{teamAuthoredMR(3, 7, 1, 1)},
			meta:  model.PageMeta{TotalItems: 3, CurrentPage: 2},
		},
	}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mrs", nil)
	fixture.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data service.AllPages `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, 2, envelope.Data.TotalItems, "total reflects team filtering, not the upstream count")
	assert.Equal(t, 2, api.calls, "walked both pages")
}

func TestListTeamMRs_SecondRequestServedFromPageCache(t *testing.T) {
	api := &fakeMRAPI{pages: map[int]fakePage{
		1: {
			items:   []model.MergeRequest{teamAuthoredMR(1, 7, 1, 1)},
			meta:    model.PageMeta{CurrentPage: 1, NextPage: 2},
			headers: map[string]string{gitlab.HeaderPage: "1", gitlab.HeaderNextPage: "2"},
		},
		2: {
			items:   []model.MergeRequest{teamAuthoredMR(2, 7, 1, 1)},
			meta:    model.PageMeta{CurrentPage: 2},
			headers: map[string]string{gitlab.HeaderPage: "2"},
		},
	}}
	fixture := newHygieneFixture(t, api, []model.TeamUser{{ID: 7}})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		fixture.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/mrs", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2, api.calls, "the second walk runs entirely off the page cache")
}

func TestUpstreamStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, upstreamStatus(&gitlab.APIError{StatusCode: 500}))
	assert.Equal(t, http.StatusBadGateway, upstreamStatus(gitlab.ErrRetriesExhausted))
	assert.Equal(t, http.StatusInternalServerError, upstreamStatus(errors.New("plain")))
}
