package model

import "time"

// MergeRequest represents a merge request fetched from the Git hosting
// platform. It is treated as immutable once fetched within a cache window.
//
// @Description Merge request as reported by the Git hosting platform
type MergeRequest struct {
	ID        int        `json:"id" example:"4217"`
	IID       int        `json:"iid,omitempty" example:"87"`
	Title     string     `json:"title" example:"Add retry to uploader"`
	State     string     `json:"state" example:"opened"`
	Author    *TeamUser  `json:"author,omitempty"`
	Assignees []TeamUser `json:"assignees,omitempty"`
	Reviewers []TeamUser `json:"reviewers,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	WebURL    string     `json:"web_url,omitempty"`
} // @name MergeRequest

// PageMeta carries pagination metadata echoed through every paginated layer.
// NextPage and PrevPage are zero when the upstream reports no such page.
//
// @Description Pagination metadata from the upstream list endpoint
type PageMeta struct {
	TotalItems  int `json:"total_items" example:"112"`
	TotalPages  int `json:"total_pages" example:"5"`
	CurrentPage int `json:"current_page" example:"2"`
	PerPage     int `json:"per_page" example:"25"`
	NextPage    int `json:"next_page,omitempty" example:"3"`
	PrevPage    int `json:"prev_page,omitempty" example:"1"`
} // @name PageMeta

// HygieneMeta is PageMeta plus the hygiene annotations each category
// endpoint attaches before caching.
//
// @Description Pagination metadata plus hygiene threshold and refresh time
type HygieneMeta struct {
	PageMeta
	// ThresholdDays is the cutoff, in days, applied by the classifier
	ThresholdDays int `json:"threshold" example:"28"`
	// LastRefreshed is when this result was built from a live fetch
	LastRefreshed time.Time `json:"last_refreshed"`
} // @name HygieneMeta

// HygieneResult is the immutable payload built on each cache-miss fetch of a
// hygiene category. A later fetch supersedes it; it is never mutated in place.
//
// @Description Classified merge requests for one hygiene category
type HygieneResult struct {
	Items    []MergeRequest `json:"items"`
	Metadata HygieneMeta    `json:"metadata"`
} // @name HygieneResult
