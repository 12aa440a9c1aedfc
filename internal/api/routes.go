package api

import (
	"net/http"

	"packvault/internal/api/middleware"
	"packvault/internal/api/registry"
	"packvault/internal/routes"

	_ "packvault/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "PackVault API")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret)

	// Modpack browse and access checks allow anonymous callers so the
	// acquisition gate can answer AUTH_REQUIRED itself.
	routes.SetupModpackRoutes(api, s.db, auth, s.twitch, s.payments)
	routes.SetupWebhookRoutes(s.echo, s.db, s.config, s.payments)

	protected := api.Group("")
	protected.Use(auth.Middleware())

	// Register CRUD routes for the lightweight models
	registry.RegisterCRUDRoutes(protected, s.db)

	routes.SetupPublisherRoutes(protected, s.db, s.config)
	routes.SetupSocialRoutes(protected, s.db)
	routes.SetupAdminRoutes(protected, s.db, s.config)
	routes.SetupUploadRoutes(protected, s.config)
}
