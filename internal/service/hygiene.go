// Package service contains the business logic for the review dashboard:
// team membership resolution, merge-request fetching and hygiene
// classification.
package service

import (
	"time"

	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/metrics"
)

// Default thresholds, in days, for each hygiene category. Each is
// overridable per request.
const (
	DefaultTooOldDays        = 28
	DefaultNotUpdatedDays    = 14
	DefaultPendingReviewDays = 7
)

// Hygiene category names, used for cache instances and metrics labels.
const (
	CategoryTooOld        = "too-old"
	CategoryNotUpdated    = "not-updated"
	CategoryPendingReview = "pending-review"
)

// The classifiers below are pure: no I/O, no clock access beyond the `now`
// argument, and the input order is preserved. That isolation is what lets
// them be tested without any network or cache in the picture.
//
// Boundary rule everywhere: strict before-cutoff comparison. An item sitting
// exactly at the threshold is not included.

// FilterTooOld keeps merge requests created before now minus thresholdDays.
func FilterTooOld(mrs []model.MergeRequest, thresholdDays int, now time.Time) []model.MergeRequest {
	metrics.RecordHygieneClassification(CategoryTooOld)
	cutoff := cutoffFor(now, thresholdDays)
	kept := make([]model.MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		if mr.CreatedAt.Before(cutoff) {
			kept = append(kept, mr)
		}
	}
	return kept
}

// FilterNotUpdated keeps merge requests last updated before now minus
// thresholdDays.
func FilterNotUpdated(mrs []model.MergeRequest, thresholdDays int, now time.Time) []model.MergeRequest {
	metrics.RecordHygieneClassification(CategoryNotUpdated)
	cutoff := cutoffFor(now, thresholdDays)
	kept := make([]model.MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		if mr.UpdatedAt.Before(cutoff) {
			kept = append(kept, mr)
		}
	}
	return kept
}

// FilterPendingReview keeps merge requests that have at least one reviewer on
// the team and were last updated before now minus thresholdDays.
func FilterPendingReview(mrs []model.MergeRequest, thresholdDays int, team []model.TeamUser, now time.Time) []model.MergeRequest {
	metrics.RecordHygieneClassification(CategoryPendingReview)
	cutoff := cutoffFor(now, thresholdDays)
	kept := make([]model.MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		if !anyTeamMember(mr.Reviewers, team) {
			continue
		}
		if mr.UpdatedAt.Before(cutoff) {
			kept = append(kept, mr)
		}
	}
	return kept
}

// IsTeamMember reports whether user is in team, matched by id. Nil inputs
// are never members.
func IsTeamMember(user *model.TeamUser, team []model.TeamUser) bool {
	if user == nil || len(team) == 0 {
		return false
	}
	for _, member := range team {
		if member.ID == user.ID {
			return true
		}
	}
	return false
}

// IsTeamRelevantMR reports whether the merge request touches the team at
// all: its author, any assignee or any reviewer is a team member.
func IsTeamRelevantMR(mr *model.MergeRequest, team []model.TeamUser) bool {
	if mr == nil || len(team) == 0 {
		return false
	}
	if IsTeamMember(mr.Author, team) {
		return true
	}
	if anyTeamMember(mr.Assignees, team) {
		return true
	}
	return anyTeamMember(mr.Reviewers, team)
}

// FilterTeamRelevant keeps only team-relevant merge requests, preserving
// order.
func FilterTeamRelevant(mrs []model.MergeRequest, team []model.TeamUser) []model.MergeRequest {
	kept := make([]model.MergeRequest, 0, len(mrs))
	for i := range mrs {
		if IsTeamRelevantMR(&mrs[i], team) {
			kept = append(kept, mrs[i])
		}
	}
	return kept
}

func anyTeamMember(users []model.TeamUser, team []model.TeamUser) bool {
	for i := range users {
		if IsTeamMember(&users[i], team) {
			return true
		}
	}
	return false
}

func cutoffFor(now time.Time, thresholdDays int) time.Time {
	return now.Add(-time.Duration(thresholdDays) * 24 * time.Hour)
}
