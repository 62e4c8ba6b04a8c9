package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/gitlab"
	"github.com/revdash/revdash/internal/jira"
	"github.com/revdash/revdash/internal/service"
)

// HygieneThresholds holds the default day cutoffs per category.
type HygieneThresholds struct {
	TooOldDays        int
	NotUpdatedDays    int
	PendingReviewDays int
}

// DefaultHygieneThresholds returns the stock thresholds.
func DefaultHygieneThresholds() HygieneThresholds {
	return HygieneThresholds{
		TooOldDays:        service.DefaultTooOldDays,
		NotUpdatedDays:    service.DefaultNotUpdatedDays,
		PendingReviewDays: service.DefaultPendingReviewDays,
	}
}

// HygieneHandler serves the three hygiene category endpoints and the plain
// team MR listing. Every category endpoint honors the same contract:
// fetch the team-filtered page, classify it, attach threshold and refresh
// time to the metadata, cache the result.
type HygieneHandler struct {
	mrs        *service.MRService
	team       *service.TeamService
	caches     map[string]*cache.TTL[model.HygieneResult]
	thresholds HygieneThresholds
}

// NewHygieneHandler creates a HygieneHandler. caches maps category name to
// its dedicated result cache; a missing entry disables caching for that
// category.
func NewHygieneHandler(
	mrs *service.MRService,
	team *service.TeamService,
	caches map[string]*cache.TTL[model.HygieneResult],
	thresholds HygieneThresholds,
) *HygieneHandler {
	return &HygieneHandler{
		mrs:        mrs,
		team:       team,
		caches:     caches,
		thresholds: thresholds,
	}
}

// TooOld handles GET /api/mrs/too-old requests.
//
// @Summary      Merge requests open for too long
// @Description  Lists team-relevant merge requests created before the threshold, with pagination metadata echoed from the upstream API.
// @Tags         Hygiene
// @Produce      json
// @Param        page       query int  false "Page number (1-indexed)" default(1)
// @Param        per_page   query int  false "Page size" default(25)
// @Param        threshold  query int  false "Age cutoff in days" default(28)
// @Param        skip_cache query bool false "Bypass the category and page caches"
// @Success      200 {object} dto.SuccessResponse "Classified merge requests"
// @Failure      401 {object} dto.ErrorResponse "Unauthorized"
// @Failure      429 {object} dto.ErrorResponse "Too many requests"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/mrs/too-old [get]
func (h *HygieneHandler) TooOld(c *gin.Context) {
	h.serveCategory(c, service.CategoryTooOld, h.thresholds.TooOldDays)
}

// NotUpdated handles GET /api/mrs/not-updated requests.
//
// @Summary      Merge requests without recent activity
// @Description  Lists team-relevant merge requests not updated since the threshold.
// @Tags         Hygiene
// @Produce      json
// @Param        page       query int  false "Page number (1-indexed)" default(1)
// @Param        per_page   query int  false "Page size" default(25)
// @Param        threshold  query int  false "Staleness cutoff in days" default(14)
// @Param        skip_cache query bool false "Bypass the category and page caches"
// @Success      200 {object} dto.SuccessResponse "Classified merge requests"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/mrs/not-updated [get]
func (h *HygieneHandler) NotUpdated(c *gin.Context) {
	h.serveCategory(c, service.CategoryNotUpdated, h.thresholds.NotUpdatedDays)
}

// PendingReview handles GET /api/mrs/pending-review requests.
//
// @Summary      Merge requests waiting on team review
// @Description  Lists merge requests with a team reviewer assigned and no update since the threshold.
// @Tags         Hygiene
// @Produce      json
// @Param        page       query int  false "Page number (1-indexed)" default(1)
// @Param        per_page   query int  false "Page size" default(25)
// @Param        threshold  query int  false "Staleness cutoff in days" default(7)
// @Param        skip_cache query bool false "Bypass the category and page caches"
// @Success      200 {object} dto.SuccessResponse "Classified merge requests"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/mrs/pending-review [get]
func (h *HygieneHandler) PendingReview(c *gin.Context) {
	h.serveCategory(c, service.CategoryPendingReview, h.thresholds.PendingReviewDays)
}

// ListTeamMRs handles GET /api/mrs requests: every team-relevant MR across
// all pages, with post-filter totals.
//
// @Summary      All team merge requests
// @Description  Walks every upstream page and returns the merge requests relevant to the team. The reported total is the count after team filtering, not the raw upstream total.
// @Tags         Hygiene
// @Produce      json
// @Param        state      query string false "MR state filter (opened, merged, ...)"
// @Param        skip_cache query bool   false "Bypass the page cache"
// @Success      200 {object} dto.SuccessResponse "Team merge requests"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/mrs [get]
func (h *HygieneHandler) ListTeamMRs(c *gin.Context) {
	builder := NewResponseBuilder(c)

	team, err := h.team.CurrentTeam(c.Request.Context())
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to resolve team", err)
		return
	}

	params := service.FetchParams{
		GroupID:   queryInt(c, "group_id", 0),
		State:     c.Query("state"),
		SkipCache: c.Query("skip_cache") == "true",
	}
	all, err := h.mrs.FetchAllTeamMRs(c.Request.Context(), params, team)
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to fetch merge requests", err)
		return
	}

	builder.SuccessOK(all)
}

// serveCategory implements the shared fetch -> classify -> annotate -> cache
// pipeline for one hygiene category.
func (h *HygieneHandler) serveCategory(c *gin.Context, category string, defaultThreshold int) {
	builder := NewResponseBuilder(c)

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", gitlab.DefaultPerPage)
	threshold := queryInt(c, "threshold", defaultThreshold)
	skipCache := c.Query("skip_cache") == "true"

	categoryCache := h.caches[category]
	cacheKey := fmt.Sprintf("%s-%d-%d-%d", category, page, perPage, threshold)

	if categoryCache != nil && !skipCache {
		if result, ok := categoryCache.Get(cacheKey); ok {
			builder.SuccessOK(result)
			return
		}
	}

	fetched, err := h.mrs.FetchTeamMRs(c.Request.Context(), service.FetchParams{
		GroupID:    queryInt(c, "group_id", 0),
		Page:       page,
		PerPage:    perPage,
		State:      c.Query("state"),
		MaxRetries: queryInt(c, "max_retries", 0),
		SkipCache:  skipCache,
	})
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to fetch merge requests", err)
		return
	}

	now := time.Now()
	var items []model.MergeRequest
	switch category {
	case service.CategoryTooOld:
		items = service.FilterTooOld(fetched.Items, threshold, now)
	case service.CategoryNotUpdated:
		items = service.FilterNotUpdated(fetched.Items, threshold, now)
	case service.CategoryPendingReview:
		team, teamErr := h.team.CurrentTeam(c.Request.Context())
		if teamErr != nil {
			builder.Error(upstreamStatus(teamErr), "Failed to resolve team", teamErr)
			return
		}
		items = service.FilterPendingReview(fetched.Items, threshold, team, now)
	}

	result := model.HygieneResult{
		Items: items,
		Metadata: model.HygieneMeta{
			PageMeta:      fetched.Metadata,
			ThresholdDays: threshold,
			LastRefreshed: now,
		},
	}

	if categoryCache != nil {
		categoryCache.Set(cacheKey, result)
	}
	builder.SuccessOK(result)
}

// queryInt parses an integer query parameter; missing, non-numeric or
// non-positive values fall back to the default rather than erroring.
func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// upstreamStatus maps an upstream error to the HTTP status the dashboard
// reports. Upstream failures, including exhausted retries, surface as 502;
// anything else is a plain 500.
func upstreamStatus(err error) int {
	var glErr *gitlab.APIError
	var jiraErr *jira.APIError
	if errors.As(err, &glErr) || errors.As(err, &jiraErr) || errors.Is(err, gitlab.ErrRetriesExhausted) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
