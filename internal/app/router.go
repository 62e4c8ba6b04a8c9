package app

import (
	"github.com/revdash/revdash/config"
	"github.com/revdash/revdash/internal/http"
)

// RouterComponents holds router-related components.
type RouterComponents struct {
	Handlers http.Handlers
	Config   http.RouterConfig
}

// InitializeRouter initializes HTTP handlers and router configuration.
func InitializeRouter(services *ServiceComponents, cfg config.Config) *RouterComponents {
	thresholds := http.HygieneThresholds{
		TooOldDays:        cfg.Thresholds.TooOldDays,
		NotUpdatedDays:    cfg.Thresholds.NotUpdatedDays,
		PendingReviewDays: cfg.Thresholds.PendingReviewDays,
	}

	healthHandler := http.NewHealthHandler()
	healthHandler.RegisterCircuitBreaker("gitlab", services.GitLabBreaker)
	healthHandler.RegisterCircuitBreaker("jira", services.JiraBreaker)

	handlers := http.Handlers{
		Hygiene: http.NewHygieneHandler(services.MRs, services.Team, services.ResultCaches, thresholds),
		Team:    http.NewTeamHandler(services.Team),
		Tickets: http.NewTicketHandler(services.Jira),
		Admin:   http.NewAdminHandler(services.Manager),
		Health:  healthHandler,
	}

	routerCfg := http.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		RateWindow:  cfg.Server.RateWindow,
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		SwaggerUser: cfg.Server.SwaggerUser,
		SwaggerPass: cfg.Server.SwaggerPass,
		Timeout:     cfg.Server.Timeout,
	}

	return &RouterComponents{
		Handlers: handlers,
		Config:   routerCfg,
	}
}
