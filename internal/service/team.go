package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/gitlab"
)

// UserAPI is the slice of the Git hosting client the team resolver needs.
type UserAPI interface {
	GroupMembers(ctx context.Context, groupID int) ([]model.TeamUser, error)
	SearchSubgroups(ctx context.Context, name string) ([]gitlab.Group, error)
	User(ctx context.Context, id int) (model.TeamUser, error)
	SearchUsers(ctx context.Context, term string) ([]model.TeamUser, error)
}

// ParseTeamUserIDs parses a colon-delimited id list ("12:34:56") into unique
// integers. Invalid tokens are silently dropped; an absent or empty value
// yields an empty list, not an error — "nothing configured" is a valid state
// distinct from a failed fetch.
func ParseTeamUserIDs(s string) []int {
	if strings.TrimSpace(s) == "" {
		return []int{}
	}
	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, token := range strings.Split(s, ":") {
		id, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// TeamService resolves team membership: the configured default team, teams
// derived from a group name, and free-text user search. Results are cached
// through the shared API-response caches.
type TeamService struct {
	api        UserAPI
	teamIDs    []int
	usersCache *cache.API[[]model.TeamUser]
	userCache  *cache.API[model.TeamUser]

	// currentTeam is the mutable working set the UI edits. It starts from
	// the configured default team and then lives its own life.
	mu          sync.RWMutex
	currentTeam []model.TeamUser
	teamLoaded  bool
}

// NewTeamService creates a TeamService. teamIDs is the parsed configured
// team; the caches may be nil to disable caching.
func NewTeamService(api UserAPI, teamIDs []int, usersCache *cache.API[[]model.TeamUser], userCache *cache.API[model.TeamUser]) *TeamService {
	return &TeamService{
		api:        api,
		teamIDs:    teamIDs,
		usersCache: usersCache,
		userCache:  userCache,
	}
}

// TeamUserIDs returns the configured team user ids.
func (s *TeamService) TeamUserIDs() []int {
	return s.teamIDs
}

// UsersByGroupName resolves a group display name to its member list: the
// name is searched among the subgroups of the configured parent namespace,
// and the active members of the first matching group are returned. A name
// matching no group yields an empty list, not an error. skipCache bypasses
// the cache read; a fresh result is still written back.
func (s *TeamService) UsersByGroupName(ctx context.Context, name string, skipCache bool) ([]model.TeamUser, error) {
	key := cache.Key("usersByGroup", map[string]any{"group": name})
	if s.usersCache != nil && !skipCache {
		if cached, ok := s.usersCache.Get(key); ok {
			return cached.Data, nil
		}
	}

	groups, err := s.api.SearchSubgroups(ctx, name)
	if err != nil {
		return nil, err
	}

	group, found := matchGroup(groups, name)
	if !found {
		log.Debug().Str("group", name).Msg("No subgroup matched, returning empty team")
		return []model.TeamUser{}, nil
	}

	users, err := s.api.GroupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	if s.usersCache != nil {
		s.usersCache.Set(key, users, nil)
	}
	return users, nil
}

// SearchUsers searches users by name or username; only active users are
// returned.
func (s *TeamService) SearchUsers(ctx context.Context, term string) ([]model.TeamUser, error) {
	key := cache.Key("searchUsers", map[string]any{"term": term})
	if s.usersCache != nil {
		if cached, ok := s.usersCache.Get(key); ok {
			return cached.Data, nil
		}
	}

	users, err := s.api.SearchUsers(ctx, term)
	if err != nil {
		return nil, err
	}

	if s.usersCache != nil {
		s.usersCache.Set(key, users, nil)
	}
	return users, nil
}

// UsersByIDs fetches users one id at a time (the upstream has no batch
// endpoint). Lookups that fail and users that are not active are silently
// dropped: for team enumeration a partial result beats a failed batch.
func (s *TeamService) UsersByIDs(ctx context.Context, ids []int, skipCache bool) ([]model.TeamUser, error) {
	users := make([]model.TeamUser, 0, len(ids))
	for _, id := range ids {
		user, ok := s.userByID(ctx, id, skipCache)
		if !ok {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// userByID fetches one user, going through the per-user cache.
func (s *TeamService) userByID(ctx context.Context, id int, skipCache bool) (model.TeamUser, bool) {
	key := cache.Key("getUser", map[string]any{"id": id})
	if s.userCache != nil && !skipCache {
		if cached, ok := s.userCache.Get(key); ok {
			return cached.Data, true
		}
	}

	user, err := s.api.User(ctx, id)
	if err != nil {
		log.Warn().Int("user_id", id).Err(err).Msg("Dropping user from team after failed lookup")
		return model.TeamUser{}, false
	}
	if !user.Active() {
		return model.TeamUser{}, false
	}

	if s.userCache != nil {
		s.userCache.Set(key, user, nil)
	}
	return user, true
}

// DefaultTeamUsers resolves the configured team ids to users. An empty
// configuration returns an empty list without touching the network.
func (s *TeamService) DefaultTeamUsers(ctx context.Context, skipCache bool) ([]model.TeamUser, error) {
	if len(s.teamIDs) == 0 {
		return []model.TeamUser{}, nil
	}
	return s.UsersByIDs(ctx, s.teamIDs, skipCache)
}

// CurrentTeam returns the mutable working team, loading the configured
// default team on first use.
func (s *TeamService) CurrentTeam(ctx context.Context) ([]model.TeamUser, error) {
	s.mu.RLock()
	if s.teamLoaded {
		team := make([]model.TeamUser, len(s.currentTeam))
		copy(team, s.currentTeam)
		s.mu.RUnlock()
		return team, nil
	}
	s.mu.RUnlock()

	users, err := s.DefaultTeamUsers(ctx, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if !s.teamLoaded {
		s.currentTeam = users
		s.teamLoaded = true
	}
	team := make([]model.TeamUser, len(s.currentTeam))
	copy(team, s.currentTeam)
	s.mu.Unlock()
	return team, nil
}

// SetCurrentTeam replaces the working team, e.g. after resolving a group.
func (s *TeamService) SetCurrentTeam(users []model.TeamUser) {
	s.mu.Lock()
	s.currentTeam = append([]model.TeamUser(nil), users...)
	s.teamLoaded = true
	s.mu.Unlock()
}

// AddTeamMember adds a user to the working team if not already present.
func (s *TeamService) AddTeamMember(user model.TeamUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamLoaded = true
	for _, member := range s.currentTeam {
		if member.ID == user.ID {
			return
		}
	}
	s.currentTeam = append(s.currentTeam, user)
}

// RemoveTeamMember removes a user from the working team by id.
func (s *TeamService) RemoveTeamMember(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.currentTeam[:0]
	for _, member := range s.currentTeam {
		if member.ID != id {
			kept = append(kept, member)
		}
	}
	s.currentTeam = kept
}

// matchGroup picks the subgroup whose name or path equals the requested
// name, falling back to the first result.
func matchGroup(groups []gitlab.Group, name string) (gitlab.Group, bool) {
	if len(groups) == 0 {
		return gitlab.Group{}, false
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, name) || strings.EqualFold(g.Path, name) {
			return g, true
		}
	}
	return groups[0], true
}
