package routes

import (
	"packvault/internal/config"
	"packvault/internal/handlers"
	"packvault/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupWebhookRoutes registers provider callbacks outside the /api/v1
// auth group. Webhooks authenticate with their HMAC signature, not a
// bearer token.
func SetupWebhookRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, payments *services.PaymentService) {
	handler := handlers.NewAcquisitionHandler(db, cfg, payments)

	e.POST("/webhooks/payments", handler.PaymentWebhook)
}
