package service

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/gitlab"
)

// MRAPI is the slice of the Git hosting client the fetcher needs.
type MRAPI interface {
	ListGroupMRs(ctx context.Context, opts gitlab.ListMROptions) ([]model.MergeRequest, model.PageMeta, map[string]string, error)
}

// FetchParams selects a page of team merge requests.
type FetchParams struct {
	// GroupID of the group to list; zero means the configured default group.
	GroupID int
	// Page is 1-indexed; values below 1 fall back to 1.
	Page int
	// PerPage falls back to the upstream default (25) when not positive.
	PerPage int
	// State filters by MR state; empty means all.
	State string
	// MaxRetries overrides the client retry budget when positive.
	MaxRetries int
	// SkipCache bypasses the page cache read. The fetched page is still
	// written back, so a forced refresh also refreshes the cache.
	SkipCache bool
}

// Page is one team-filtered page of merge requests. Metadata is the
// upstream pagination metadata, echoed unchanged.
type Page struct {
	Items    []model.MergeRequest `json:"items"`
	Metadata model.PageMeta       `json:"metadata"`
}

// AllPages is the team-filtered concatenation of every upstream page.
// TotalItems is the post-filter count: reporting the raw upstream total
// would mislead users about how many items actually concern them.
type AllPages struct {
	Items      []model.MergeRequest `json:"items"`
	TotalItems int                  `json:"total_items"`
}

// MRService fetches merge requests for the team. The upstream client
// handles retry; this layer handles page caching, paging, team filtering
// and optional duplicate-fetch suppression.
type MRService struct {
	api            MRAPI
	team           *TeamService
	pages          *cache.API[[]model.MergeRequest]
	defaultGroupID int

	// flight coalesces concurrent identical upstream fetches when enabled.
	// Off by default: two simultaneous misses for the same page then both
	// reach the upstream and both populate the cache, last write winning.
	// Enabling it reduces upstream calls, an observable behavior change.
	flight        singleflight.Group
	flightEnabled bool
}

// NewMRService creates an MRService. pages caches raw upstream pages before
// team filtering; nil disables page caching.
func NewMRService(api MRAPI, team *TeamService, pages *cache.API[[]model.MergeRequest], defaultGroupID int, singleFlight bool) *MRService {
	return &MRService{
		api:            api,
		team:           team,
		pages:          pages,
		defaultGroupID: defaultGroupID,
		flightEnabled:  singleFlight,
	}
}

// normalize applies defaults to the fetch parameters.
func (s *MRService) normalize(p FetchParams) FetchParams {
	if p.GroupID <= 0 {
		p.GroupID = s.defaultGroupID
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = gitlab.DefaultPerPage
	}
	return p
}

// FetchTeamMRs fetches one page of group merge requests and keeps only the
// team-relevant ones, preserving upstream order. The pagination metadata is
// the upstream's, untouched.
func (s *MRService) FetchTeamMRs(ctx context.Context, p FetchParams) (Page, error) {
	p = s.normalize(p)

	team, err := s.team.CurrentTeam(ctx)
	if err != nil {
		return Page{}, err
	}

	items, meta, err := s.listPage(ctx, p)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Items:    FilterTeamRelevant(items, team),
		Metadata: meta,
	}, nil
}

// FetchAllTeamMRs walks every page via the next-page cursor, concatenates
// the items and filters them against the given team. TotalItems is the
// count after filtering.
func (s *MRService) FetchAllTeamMRs(ctx context.Context, p FetchParams, team []model.TeamUser) (AllPages, error) {
	p = s.normalize(p)
	p.Page = 1

	var all []model.MergeRequest
	for {
		items, meta, err := s.listPage(ctx, p)
		if err != nil {
			return AllPages{}, err
		}
		all = append(all, items...)

		if meta.NextPage == 0 {
			break
		}
		p.Page = meta.NextPage
	}

	filtered := FilterTeamRelevant(all, team)
	return AllPages{
		Items:      filtered,
		TotalItems: len(filtered),
	}, nil
}

type pageResult struct {
	items   []model.MergeRequest
	meta    model.PageMeta
	headers map[string]string
}

// listPage returns one raw upstream page, consulting the page cache before
// the upstream. The cache stores the pagination headers next to the payload
// so a hit reconstructs the same metadata the original response carried.
func (s *MRService) listPage(ctx context.Context, p FetchParams) ([]model.MergeRequest, model.PageMeta, error) {
	key := cache.Key("groupMergeRequests", map[string]any{
		"group_id": p.GroupID,
		"page":     p.Page,
		"per_page": p.PerPage,
		"state":    p.State,
	})

	if s.pages != nil && !p.SkipCache {
		if cached, ok := s.pages.Get(key); ok {
			return cached.Data, gitlab.PageMetaFromValues(cached.Headers, p.Page, p.PerPage), nil
		}
	}

	result, err := s.fetchPage(ctx, key, p)
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	if s.pages != nil {
		s.pages.Set(key, result.items, result.headers)
	}
	return result.items, result.meta, nil
}

// fetchPage performs the upstream list call, coalescing concurrent identical
// calls when single-flight is enabled.
func (s *MRService) fetchPage(ctx context.Context, key string, p FetchParams) (pageResult, error) {
	opts := gitlab.ListMROptions{
		GroupID:    p.GroupID,
		Page:       p.Page,
		PerPage:    p.PerPage,
		State:      p.State,
		MaxRetries: p.MaxRetries,
	}

	if !s.flightEnabled {
		items, meta, headers, err := s.api.ListGroupMRs(ctx, opts)
		if err != nil {
			return pageResult{}, err
		}
		return pageResult{items: items, meta: meta, headers: headers}, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		items, meta, headers, err := s.api.ListGroupMRs(ctx, opts)
		if err != nil {
			return nil, err
		}
		return pageResult{items: items, meta: meta, headers: headers}, nil
	})
	if err != nil {
		return pageResult{}, err
	}
	return v.(pageResult), nil
}
