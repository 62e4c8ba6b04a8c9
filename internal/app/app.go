package app

import (
	"github.com/gin-gonic/gin"

	"github.com/revdash/revdash/config"
	"github.com/revdash/revdash/internal/http"
)

// InitializeApp creates and wires all application dependencies.
// This is the main orchestration function that initializes all components.
func InitializeApp(cfg config.Config) *gin.Engine {
	// Initialize logger first (needed by other components)
	InitializeLogger()

	// Initialize upstream clients, business services, and caches
	serviceComponents := InitializeServices(cfg)

	// Initialize router components (handlers and configuration)
	routerComponents := InitializeRouter(serviceComponents, cfg)

	return http.NewRouter(routerComponents.Handlers, routerComponents.Config)
}
