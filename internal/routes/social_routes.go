package routes

import (
	"packvault/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupSocialRoutes(g *echo.Group, db *gorm.DB) {
	handler := handlers.NewSocialHandler(db)

	friends := g.Group("/friends")
	friends.GET("", handler.ListFriends)
	friends.DELETE("/:id", handler.RemoveFriend)
	friends.GET("/requests", handler.ListPendingRequests)
	friends.POST("/requests", handler.SendFriendRequest)
	friends.PUT("/requests/:id", handler.RespondFriendRequest)
}
