package routes

import (
	"packvault/internal/config"
	"packvault/internal/handlers"
	"packvault/internal/utils/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/labstack/echo/v4"
)

func SetupUploadRoutes(api *echo.Group, cfg *config.Config) {
	log := logger.New("upload_routes")

	// Artifacts stay private; downloads go through signed URLs
	uploadHandler := handlers.NewUploadHandler(
		types.ObjectCannedACLPrivate,
	)

	artifactGroup := api.Group("/artifacts")

	artifactGroup.POST("/upload", uploadHandler.UploadArtifact)

	log.Success("Upload routes initialized successfully")
}
