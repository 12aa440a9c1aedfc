package routes

import (
	"packvault/internal/api/middleware"
	"packvault/internal/config"
	"packvault/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupAdminRoutes wires the site-admin moderation surface.
func SetupAdminRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config) {
	handler := handlers.NewAdminHandler(db, cfg)

	admin := g.Group("/admin")
	admin.Use(middleware.RequireSiteAdmin())

	admin.GET("/withdrawals", handler.ListWithdrawals)
	admin.POST("/withdrawals/sweep", handler.SweepWithdrawals)
	admin.POST("/withdrawals/:id/approve", handler.ApproveWithdrawal)
	admin.POST("/withdrawals/:id/deny", handler.DenyWithdrawal)
	admin.POST("/withdrawals/:id/paid", handler.MarkWithdrawalPaid)

	admin.PUT("/acquisitions/:id/status", handler.SetAcquisitionStatus)
}
