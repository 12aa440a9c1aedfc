package routes

import (
	"packvault/internal/api/middleware"
	"packvault/internal/handlers"
	"packvault/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupModpackRoutes wires the marketplace surface. Browse, access
// checks and downloads allow anonymous callers (optional auth) so the
// acquisition gate can answer AUTH_REQUIRED instead of the transport.
func SetupModpackRoutes(g *echo.Group, db *gorm.DB, auth *middleware.AuthMiddleware, twitch *services.TwitchService, payments *services.PaymentService) {
	handler := handlers.NewModpackHandler(db, twitch, payments)

	public := g.Group("/modpacks")
	public.Use(auth.OptionalMiddleware())
	public.GET("", handler.ListModpacks)
	public.GET("/:id", handler.GetModpack)
	public.GET("/:id/access", handler.CheckAccess)
	public.GET("/:id/versions/:versionId/download", handler.Download)

	// Token redemption; the download token is the credential
	g.GET("/downloads/:token", handler.RedeemDownload)

	protected := g.Group("/modpacks")
	protected.Use(auth.Middleware())
	protected.POST("", handler.CreateModpack)
	protected.PUT("/:id", handler.UpdateModpack)
	protected.DELETE("/:id", handler.DeleteModpack)
	protected.POST("/:id/versions", handler.CreateVersion)
	protected.POST("/:id/acquire", handler.Acquire)
}
