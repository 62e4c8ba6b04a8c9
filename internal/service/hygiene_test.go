package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revdash/revdash/internal/domain/model"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func mrCreatedDaysAgo(id int, days int) model.MergeRequest {
	return model.MergeRequest{
		ID:        id,
		CreatedAt: testNow.Add(-time.Duration(days) * 24 * time.Hour),
		UpdatedAt: testNow,
	}
}

func mrUpdatedDaysAgo(id int, days int, reviewers ...model.TeamUser) model.MergeRequest {
	return model.MergeRequest{
		ID:        id,
		CreatedAt: testNow.Add(-60 * 24 * time.Hour),
		UpdatedAt: testNow.Add(-time.Duration(days) * 24 * time.Hour),
		Reviewers: reviewers,
	}
}

func TestFilterTooOld(t *testing.T) {
	mrs := []model.MergeRequest{
		mrCreatedDaysAgo(1, 30),
		mrCreatedDaysAgo(2, 15),
		mrCreatedDaysAgo(3, 40),
	}

	kept := FilterTooOld(mrs, DefaultTooOldDays, testNow)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].ID, "order preserved")
	assert.Equal(t, 3, kept[1].ID)
}

func TestFilterTooOld_BoundaryIsStrict(t *testing.T) {
	exactlyAtCutoff := model.MergeRequest{
		ID:        1,
		CreatedAt: testNow.Add(-28 * 24 * time.Hour),
	}
	oneSecondOlder := model.MergeRequest{
		ID:        2,
		CreatedAt: testNow.Add(-28*24*time.Hour - time.Second),
	}

	kept := FilterTooOld([]model.MergeRequest{exactlyAtCutoff, oneSecondOlder}, 28, testNow)

	require.Len(t, kept, 1, "an item exactly at the threshold is not included")
	assert.Equal(t, 2, kept[0].ID)
}

func TestFilterTooOld_Empty(t *testing.T) {
	kept := FilterTooOld(nil, 28, testNow)
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
}

func TestFilterNotUpdated(t *testing.T) {
	tests := []struct {
		name          string
		daysSinceEdit []int
		threshold     int
		expectedIDs   []int
	}{
		{
			name:          "keeps stale, drops fresh",
			daysSinceEdit: []int{20, 5, 14, 15},
			threshold:     DefaultNotUpdatedDays,
			expectedIDs:   []int{1, 4},
		},
		{
			name:          "none stale",
			daysSinceEdit: []int{1, 2, 3},
			threshold:     DefaultNotUpdatedDays,
			expectedIDs:   []int{},
		},
		{
			name:          "custom threshold",
			daysSinceEdit: []int{4, 2},
			threshold:     3,
			expectedIDs:   []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mrs := make([]model.MergeRequest, 0, len(tt.daysSinceEdit))
			for i, days := range tt.daysSinceEdit {
				mrs = append(mrs, mrUpdatedDaysAgo(i+1, days))
			}

			kept := FilterNotUpdated(mrs, tt.threshold, testNow)

			ids := make([]int, 0, len(kept))
			for _, mr := range kept {
				ids = append(ids, mr.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestFilterPendingReview(t *testing.T) {
	team := []model.TeamUser{{ID: 123, Username: "reviewer"}}
	outsider := model.TeamUser{ID: 999, Username: "outsider"}
	member := model.TeamUser{ID: 123, Username: "reviewer"}

	mrs := []model.MergeRequest{
		mrUpdatedDaysAgo(1, 10, member),           // team reviewer, stale: kept
		mrUpdatedDaysAgo(2, 3, member),            // team reviewer, recent: dropped
		mrUpdatedDaysAgo(3, 10, outsider),         // no team reviewer: dropped
		mrUpdatedDaysAgo(4, 10),                   // no reviewers at all: dropped
		mrUpdatedDaysAgo(5, 10, outsider, member), // mixed reviewers: kept
	}

	kept := FilterPendingReview(mrs, DefaultPendingReviewDays, team, testNow)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].ID)
	assert.Equal(t, 5, kept[1].ID)
}

func TestFilterPendingReview_EmptyTeam(t *testing.T) {
	mrs := []model.MergeRequest{
		mrUpdatedDaysAgo(1, 10, model.TeamUser{ID: 123}),
	}

	kept := FilterPendingReview(mrs, DefaultPendingReviewDays, nil, testNow)
	assert.Empty(t, kept)
}

func TestIsTeamMember(t *testing.T) {
	team := []model.TeamUser{{ID: 1}, {ID: 2}}

	assert.True(t, IsTeamMember(&model.TeamUser{ID: 1}, team))
	assert.False(t, IsTeamMember(&model.TeamUser{ID: 3}, team))
	assert.False(t, IsTeamMember(nil, team), "nil user is never a member")
	assert.False(t, IsTeamMember(&model.TeamUser{ID: 1}, nil))
}

func TestIsTeamRelevantMR(t *testing.T) {
	team := []model.TeamUser{{ID: 7}}

	tests := []struct {
		name     string
		mr       *model.MergeRequest
		expected bool
	}{
		{
			name:     "author on team",
			mr:       &model.MergeRequest{Author: &model.TeamUser{ID: 7}},
			expected: true,
		},
		{
			name:     "assignee on team",
			mr:       &model.MergeRequest{Assignees: []model.TeamUser{{ID: 7}}},
			expected: true,
		},
		{
			name:     "reviewer on team",
			mr:       &model.MergeRequest{Reviewers: []model.TeamUser{{ID: 7}}},
			expected: true,
		},
		{
			name:     "nobody on team",
			mr:       &model.MergeRequest{Author: &model.TeamUser{ID: 8}, Assignees: []model.TeamUser{{ID: 9}}},
			expected: false,
		},
		{
			name:     "no participants at all",
			mr:       &model.MergeRequest{},
			expected: false,
		},
		{
			name:     "nil merge request",
			mr:       nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTeamRelevantMR(tt.mr, team))
		})
	}
}

func TestFilterTeamRelevant_PreservesOrder(t *testing.T) {
	team := []model.TeamUser{{ID: 7}}
	mrs := []model.MergeRequest{
		{ID: 1, Author: &model.TeamUser{ID: 7}},
		{ID: 2, Author: &model.TeamUser{ID: 8}},
		{ID: 3, Reviewers: []model.TeamUser{{ID: 7}}},
	}

	kept := FilterTeamRelevant(mrs, team)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].ID)
	assert.Equal(t, 3, kept[1].ID)
}
