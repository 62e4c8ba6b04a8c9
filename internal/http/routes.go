package http

import (
	"github.com/gin-gonic/gin"
)

// registerAPIRoutes mounts the business routes on the /api group.
func registerAPIRoutes(api *gin.RouterGroup, handlers Handlers) {
	if handlers.Hygiene != nil {
		api.GET("/mrs", handlers.Hygiene.ListTeamMRs)
		api.GET("/mrs/too-old", handlers.Hygiene.TooOld)
		api.GET("/mrs/not-updated", handlers.Hygiene.NotUpdated)
		api.GET("/mrs/pending-review", handlers.Hygiene.PendingReview)
	}

	if handlers.Team != nil {
		api.GET("/team/users", handlers.Team.GetUsers)
		api.POST("/team/users", handlers.Team.AddMember)
		api.DELETE("/team/users/:id", handlers.Team.RemoveMember)
		api.GET("/users/search", handlers.Team.SearchUsers)
	}

	if handlers.Tickets != nil {
		api.GET("/tickets", handlers.Tickets.SearchTickets)
		api.GET("/tickets/:key", handlers.Tickets.GetTicket)
	}

	if handlers.Admin != nil {
		api.POST("/admin/cache", handlers.Admin.CacheAction)
	}
}
