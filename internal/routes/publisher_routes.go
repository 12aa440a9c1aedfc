package routes

import (
	"packvault/internal/config"
	"packvault/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupPublisherRoutes wires organization management: creation,
// membership, roles, scopes, invites. All routes require auth; the
// handler enforces the role hierarchy itself.
func SetupPublisherRoutes(g *echo.Group, db *gorm.DB, cfg *config.Config) {
	handler := handlers.NewPublisherHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg)

	publishers := g.Group("/publishers")
	publishers.POST("", handler.CreatePublisher)
	publishers.POST("/invites/accept/:code", handler.AcceptInvite)

	publishers.GET("/:publisherId/members", handler.ListMembers)
	publishers.POST("/:publisherId/members", handler.AddMember)
	publishers.PUT("/:publisherId/members/:memberId/role", handler.UpdateMemberRole)
	publishers.DELETE("/:publisherId/members/:memberId", handler.RemoveMember)

	publishers.POST("/:publisherId/members/:memberId/scopes", handler.GrantScope)
	publishers.POST("/:publisherId/members/:memberId/scopes/revoke", handler.RevokeScope)

	publishers.POST("/:publisherId/invites", handler.InviteMember)

	publishers.POST("/:publisherId/withdrawals", adminHandler.RequestWithdrawal)
}
