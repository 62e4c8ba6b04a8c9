// Package main is the entry point for the revdash application.
//
// @title           Revdash API
// @version         1.0.0
// @description     Work-tracking dashboard backend: merge request hygiene
//
//	classification, team membership, and ticket lookups, with cached upstream
//	API access.
//
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   API Support
// @contact.email  support@example.com
// @contact.url    https://github.com/revdash/revdash
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
// @description                 API key for authentication. Required if authentication is enabled.
//
// @tag.name        Hygiene
// @tag.description Merge request hygiene classification endpoints
//
// @tag.name        Team
// @tag.description Team membership endpoints
//
// @tag.name        Tickets
// @tag.description Issue tracker endpoints
//
// @tag.name        Admin
// @tag.description Cache administration endpoints
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	_ "github.com/revdash/revdash/docs" // swagger docs

	"github.com/revdash/revdash/config"
	"github.com/revdash/revdash/internal/app"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	router := app.InitializeApp(cfg)
	server := app.NewServer(router, cfg.Server)

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
