package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/service"
)

// TeamHandler serves team membership endpoints.
type TeamHandler struct {
	team *service.TeamService
}

// NewTeamHandler creates a TeamHandler.
func NewTeamHandler(team *service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

// GetUsers handles GET /api/team/users requests. Without a group parameter
// it returns the configured default team; with one it resolves the group
// name to its active members.
//
// @Summary      Team members
// @Description  Returns the current team. With ?group=Name the group is resolved among the subgroups of the configured parent namespace; an unknown group yields an empty list.
// @Tags         Team
// @Produce      json
// @Param        group      query string false "Group display name"
// @Param        skip_cache query bool   false "Bypass the users cache"
// @Success      200 {object} dto.SuccessResponse "Team members"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/team/users [get]
func (h *TeamHandler) GetUsers(c *gin.Context) {
	builder := NewResponseBuilder(c)
	skipCache := c.Query("skip_cache") == "true"

	var (
		users []model.TeamUser
		err   error
	)
	if group := c.Query("group"); group != "" {
		users, err = h.team.UsersByGroupName(c.Request.Context(), group, skipCache)
	} else {
		users, err = h.team.DefaultTeamUsers(c.Request.Context(), skipCache)
	}
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to fetch team users", err)
		return
	}

	builder.SuccessOK(users)
}

// SearchUsers handles GET /api/users/search requests.
//
// @Summary      Search users
// @Description  Free-text user search by name or username, filtered to active accounts.
// @Tags         Team
// @Produce      json
// @Param        q query string true "Search term"
// @Success      200 {object} dto.SuccessResponse "Matching users"
// @Failure      400 {object} dto.ErrorResponse "Missing search term"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/users/search [get]
func (h *TeamHandler) SearchUsers(c *gin.Context) {
	builder := NewResponseBuilder(c)

	term := c.Query("q")
	if term == "" {
		builder.Error(http.StatusBadRequest, "q: search term is required", nil)
		return
	}

	users, err := h.team.SearchUsers(c.Request.Context(), term)
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to search users", err)
		return
	}

	builder.SuccessOK(users)
}

// AddMember handles POST /api/team/users requests, adding a user to the
// mutable working team.
//
// @Summary      Add team member
// @Description  Adds a user to the working team. The working team starts from the configured default and is edited independently of its origin group.
// @Tags         Team
// @Accept       json
// @Produce      json
// @Param        request body model.TeamUser true "User to add"
// @Success      200 {object} dto.SuccessResponse "Updated team"
// @Failure      400 {object} dto.ErrorResponse "Invalid body"
// @Router       /api/team/users [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	builder := NewResponseBuilder(c)

	var user model.TeamUser
	if err := c.ShouldBindJSON(&user); err != nil || user.ID <= 0 {
		builder.Error(http.StatusBadRequest, "id: must be a positive integer", err)
		return
	}

	// Force the lazy default-team load before editing, so the edit applies
	// on top of the configured team instead of replacing it.
	if _, err := h.team.CurrentTeam(c.Request.Context()); err != nil {
		builder.Error(upstreamStatus(err), "Failed to resolve team", err)
		return
	}

	h.team.AddTeamMember(user)
	team, err := h.team.CurrentTeam(c.Request.Context())
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to resolve team", err)
		return
	}
	builder.SuccessOK(team)
}

// RemoveMember handles DELETE /api/team/users/:id requests.
//
// @Summary      Remove team member
// @Description  Removes a user from the working team by id.
// @Tags         Team
// @Produce      json
// @Param        id path int true "User id"
// @Success      200 {object} dto.SuccessResponse "Updated team"
// @Failure      400 {object} dto.ErrorResponse "Invalid id"
// @Router       /api/team/users/{id} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	builder := NewResponseBuilder(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		builder.Error(http.StatusBadRequest, "id: must be a positive integer", err)
		return
	}

	if _, err := h.team.CurrentTeam(c.Request.Context()); err != nil {
		builder.Error(upstreamStatus(err), "Failed to resolve team", err)
		return
	}

	h.team.RemoveTeamMember(id)
	team, err := h.team.CurrentTeam(c.Request.Context())
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to resolve team", err)
		return
	}
	builder.SuccessOK(team)
}
