package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/revdash/revdash/internal/jira"
)

// TicketHandler serves issue-tracker endpoints.
type TicketHandler struct {
	tickets *jira.Client
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(tickets *jira.Client) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// GetTicket handles GET /api/tickets/:key requests.
//
// @Summary      Ticket by key
// @Description  Fetches one issue-tracker ticket; responses are cached per key.
// @Tags         Tickets
// @Produce      json
// @Param        key        path  string true  "Ticket key"
// @Param        skip_cache query bool   false "Bypass the ticket cache"
// @Success      200 {object} dto.SuccessResponse "Ticket"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/tickets/{key} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	builder := NewResponseBuilder(c)
	skipCache := c.Query("skip_cache") == "true"

	ticket, err := h.tickets.Ticket(c.Request.Context(), c.Param("key"), skipCache)
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to fetch ticket", err)
		return
	}

	builder.SuccessOK(ticket)
}

// SearchTickets handles GET /api/tickets requests.
//
// @Summary      Search tickets
// @Description  Runs a JQL search against the issue tracker; results are cached per query.
// @Tags         Tickets
// @Produce      json
// @Param        jql        query string true  "JQL query"
// @Param        skip_cache query bool   false "Bypass the search cache"
// @Success      200 {object} dto.SuccessResponse "Search result"
// @Failure      400 {object} dto.ErrorResponse "Missing JQL query"
// @Failure      502 {object} dto.ErrorResponse "Upstream API failure"
// @Router       /api/tickets [get]
func (h *TicketHandler) SearchTickets(c *gin.Context) {
	builder := NewResponseBuilder(c)

	jql := c.Query("jql")
	if jql == "" {
		builder.Error(http.StatusBadRequest, "jql: query is required", nil)
		return
	}

	result, err := h.tickets.SearchJQL(c.Request.Context(), jql, c.Query("skip_cache") == "true")
	if err != nil {
		builder.Error(upstreamStatus(err), "Failed to search tickets", err)
		return
	}

	builder.SuccessOK(result)
}
