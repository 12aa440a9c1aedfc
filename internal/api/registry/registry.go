package registry

import (
	"github.com/labstack/echo/v4"

	"packvault/internal/api/controllers"
	"packvault/internal/models"
	"packvault/internal/services"

	"gorm.io/gorm"
)

// 📝 RegisterCRUDRoutes registers CRUD routes for the lightweight models - godoc
// @Summary Register CRUD routes for social and catalog models
// @Description Register CRUD routes for social and catalog models
// @Accept json
// @Produce json
func RegisterCRUDRoutes(g *echo.Group, db *gorm.DB) {
	// Publishers (read only here, writes go through the publisher handler
	// so ownership and memberships stay consistent)
	publisherService := services.NewBaseService(db, models.Publisher{})
	publisherController := controllers.NewBaseController(publisherService)
	publisherGroup := g.Group("/publishers")

	// @Summary List publishers
	// @Description Get a list of all publishers
	// @Accept json
	// @Produce json
	// @Success 200 {array} models.Publisher
	// @Failure 401 {object} map[string]string "Unauthorized"
	// @Failure 500 {object} map[string]string "Internal server error"
	// @Router /api/v1/publishers [get]
	publisherGroup.GET("", publisherController.List)
	// @Summary Get publisher
	// @Description Get a publisher by ID
	// @Accept json
	// @Produce json
	// @Param id path string true "Publisher ID"
	// @Success 200 {object} models.Publisher
	// @Failure 404 {object} map[string]string "Not found"
	// @Router /api/v1/publishers/{id} [get]
	publisherGroup.GET("/:id", publisherController.Get)

	// Activity feed entries are append-only. List is user scoped through
	// the base controller's UserID filter.
	activityService := services.NewBaseService(db, models.ActivityEvent{})
	activityController := controllers.NewBaseController(activityService)
	activityGroup := g.Group("/activity")
	// @Summary List activity events
	// @Description Get the authenticated user's activity feed
	// @Accept json
	// @Produce json
	// @Success 200 {array} models.ActivityEvent
	// @Failure 401 {object} map[string]string "Unauthorized"
	// @Router /api/v1/activity [get]
	activityGroup.GET("", activityController.List)

	// Acquisitions are listable by their owner, mutations go through the
	// acquisition handler and admin moderation routes.
	acquisitionService := services.NewBaseService(db, models.ModpackAcquisition{})
	acquisitionController := controllers.NewBaseController(acquisitionService)
	acquisitionGroup := g.Group("/acquisitions")
	// @Summary List acquisitions
	// @Description Get the authenticated user's modpack acquisitions
	// @Accept json
	// @Produce json
	// @Success 200 {array} models.ModpackAcquisition
	// @Failure 401 {object} map[string]string "Unauthorized"
	// @Router /api/v1/acquisitions [get]
	acquisitionGroup.GET("", acquisitionController.List)
	// @Summary Get acquisition
	// @Description Get a single acquisition by ID
	// @Accept json
	// @Produce json
	// @Param id path string true "Acquisition ID"
	// @Success 200 {object} models.ModpackAcquisition
	// @Failure 404 {object} map[string]string "Not found"
	// @Router /api/v1/acquisitions/{id} [get]
	acquisitionGroup.GET("/:id", acquisitionController.Get)
}
