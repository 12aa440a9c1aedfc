package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"packvault/internal/acquisition"
	"packvault/internal/models"
	"packvault/internal/permissions"
	"packvault/internal/utils/crypto"
	"packvault/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ModpackHandler struct {
	db        *gorm.DB
	log       *logger.Logger
	evaluator *permissions.Evaluator
	gate      *acquisition.Gate
}

func NewModpackHandler(db *gorm.DB, twitch acquisition.TwitchChecker, payments acquisition.PaymentStarter) *ModpackHandler {
	permStore := permissions.NewGormStore(db)
	acqStore := acquisition.NewGormStore(db)
	return &ModpackHandler{
		db:        db,
		log:       logger.New("ModpackHandler"),
		evaluator: permissions.NewEvaluator(permStore, permStore),
		gate:      acquisition.NewGate(acqStore, twitch, acqStore, payments),
	}
}

type CreateModpackRequest struct {
	PublisherID       string   `json:"publisherId" validate:"required,uuid"`
	Name              string   `json:"name" validate:"required,min=2"`
	Summary           string   `json:"summary"`
	AcquisitionMethod string   `json:"acquisitionMethod" validate:"omitempty,acquisition_method"`
	Password          string   `json:"password"`
	PriceCents        int64    `json:"priceCents"`
	TwitchCreatorIDs  []string `json:"twitchCreatorIds"`
}

type UpdateModpackRequest struct {
	Name              string   `json:"name" validate:"omitempty,min=2"`
	Summary           string   `json:"summary"`
	Published         *bool    `json:"published,omitempty"`
	AcquisitionMethod string   `json:"acquisitionMethod" validate:"omitempty,acquisition_method"`
	Password          string   `json:"password"`
	PriceCents        *int64   `json:"priceCents,omitempty"`
	TwitchCreatorIDs  []string `json:"twitchCreatorIds"`
}

type CreateVersionRequest struct {
	Version       string `json:"version" validate:"required"`
	Changelog     string `json:"changelog"`
	ArchivePath   string `json:"archivePath" validate:"required"`
	ArchiveSHA256 string `json:"archiveSha256"`
	SizeBytes     int64  `json:"sizeBytes"`
}

type AcquireModpackRequest struct {
	Password string `json:"password"`
}

// currentUser loads the authenticated user, or nil for anonymous calls
// on optional-auth routes.
func (h *ModpackHandler) currentUser(c echo.Context) (*models.User, error) {
	userID, _ := c.Get("userID").(string)
	if userID == "" {
		return nil, nil
	}
	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateModpack creates a modpack inside a publisher. Any member of the
// publisher may create; the creator keeps the personal bypass over
// their own pack afterwards.
// @Summary Create a modpack
// @Description Create a modpack under a publisher
// @Tags modpacks
// @Accept json
// @Produce json
// @Param request body CreateModpackRequest true "Modpack details"
// @Success 201 {object} models.Modpack
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /modpacks [post]
func (h *ModpackHandler) CreateModpack(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req CreateModpackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	_, err := models.GetMembership(req.PublisherID, userID, h.db)
	if err != nil {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Not a member of this publisher"})
	}

	modpack := models.Modpack{
		PublisherID:   req.PublisherID,
		CreatorUserID: userID,
		Name:          req.Name,
		Summary:       req.Summary,
		Password:      req.Password,
		PriceCents:    req.PriceCents,
	}
	if req.AcquisitionMethod != "" {
		modpack.AcquisitionMethod = models.AcquisitionMethod(req.AcquisitionMethod)
	}
	if len(req.TwitchCreatorIDs) > 0 {
		raw, err := json.Marshal(req.TwitchCreatorIDs)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid Twitch creator ids"})
		}
		modpack.TwitchCreatorIDs = datatypes.JSON(raw)
	}

	if err := h.db.Create(&modpack).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create modpack"})
	}
	return c.JSON(http.StatusCreated, modpack)
}

// GetModpack returns one modpack. Unpublished packs are only visible to
// members with view permission or the creator.
// @Summary Get a modpack
// @Description Get a modpack by ID
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Success 200 {object} models.Modpack
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /modpacks/{id} [get]
func (h *ModpackHandler) GetModpack(c echo.Context) error {
	id := c.Param("id")

	var modpack models.Modpack
	if err := h.db.Where("id = ?", id).Preload("Versions").First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	if !modpack.Published {
		userID, _ := c.Get("userID").(string)
		allowed, err := h.evaluator.CanViewModpack(c.Request().Context(), userID, modpack.PublisherID, modpack.ID, modpack.CreatorUserID)
		if err != nil {
			return err
		}
		if !allowed {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
		}
	}

	return c.JSON(http.StatusOK, modpack)
}

// ListModpacks lists published modpacks, optionally by publisher.
// @Summary List modpacks
// @Description List published modpacks
// @Tags modpacks
// @Accept json
// @Produce json
// @Param publisherId query string false "Filter by publisher"
// @Success 200 {array} models.Modpack
// @Router /modpacks [get]
func (h *ModpackHandler) ListModpacks(c echo.Context) error {
	query := h.db.Where("published = true")
	if publisherID := c.QueryParam("publisherId"); publisherID != "" {
		query = query.Where("publisher_id = ?", publisherID)
	}

	var modpacks []models.Modpack
	if err := query.Find(&modpacks).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch modpacks"})
	}
	return c.JSON(http.StatusOK, modpacks)
}

// UpdateModpack updates modpack metadata and its access configuration.
// Changing the acquisition method requires the manage-access flag;
// plain metadata edits require modify.
// @Summary Update a modpack
// @Description Update a modpack's metadata and access settings
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Param request body UpdateModpackRequest true "Updated fields"
// @Success 200 {object} models.Modpack
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /modpacks/{id} [put]
func (h *ModpackHandler) UpdateModpack(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")

	var req UpdateModpackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var modpack models.Modpack
	if err := h.db.Where("id = ?", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	allowed, err := h.evaluator.CanModifyModpack(c.Request().Context(), userID, modpack.PublisherID, modpack.ID, modpack.CreatorUserID)
	if err != nil {
		return err
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "Insufficient permissions",
			"code":  permissions.FlagModpackModify.DenialCode(),
		})
	}

	changesAccess := req.AcquisitionMethod != "" || req.Password != "" || req.PriceCents != nil || len(req.TwitchCreatorIDs) > 0
	if changesAccess {
		allowed, err := h.evaluator.HasPermission(c.Request().Context(), userID, modpack.PublisherID, permissions.FlagModpackManageAccess, modpack.ID)
		if err != nil {
			return err
		}
		if !allowed && modpack.CreatorUserID != userID {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Insufficient permissions",
				"code":  permissions.FlagModpackManageAccess.DenialCode(),
			})
		}
	}

	if req.Published != nil && *req.Published != modpack.Published {
		allowed, err := h.evaluator.HasPermission(c.Request().Context(), userID, modpack.PublisherID, permissions.FlagModpackPublish, modpack.ID)
		if err != nil {
			return err
		}
		if !allowed && modpack.CreatorUserID != userID {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Insufficient permissions",
				"code":  permissions.FlagModpackPublish.DenialCode(),
			})
		}
		modpack.Published = *req.Published
	}

	if req.Name != "" {
		modpack.Name = req.Name
	}
	if req.Summary != "" {
		modpack.Summary = req.Summary
	}
	if req.AcquisitionMethod != "" {
		modpack.AcquisitionMethod = models.AcquisitionMethod(req.AcquisitionMethod)
	}
	if req.Password != "" {
		modpack.Password = req.Password
	}
	if req.PriceCents != nil {
		modpack.PriceCents = *req.PriceCents
	}
	if len(req.TwitchCreatorIDs) > 0 {
		raw, err := json.Marshal(req.TwitchCreatorIDs)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid Twitch creator ids"})
		}
		modpack.TwitchCreatorIDs = datatypes.JSON(raw)
	}

	if err := h.db.Save(&modpack).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update modpack"})
	}
	return c.JSON(http.StatusOK, modpack)
}

// DeleteModpack soft-deletes a modpack. Requires the delete flag, not
// just modify.
// @Summary Delete a modpack
// @Description Soft-delete a modpack
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Success 200 {object} map[string]string "Modpack deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /modpacks/{id} [delete]
func (h *ModpackHandler) DeleteModpack(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")

	var modpack models.Modpack
	if err := h.db.Where("id = ?", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	allowed, err := h.evaluator.HasPermission(c.Request().Context(), userID, modpack.PublisherID, permissions.FlagModpackDelete, modpack.ID)
	if err != nil {
		return err
	}
	if !allowed && modpack.CreatorUserID != userID {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "Insufficient permissions",
			"code":  permissions.FlagModpackDelete.DenialCode(),
		})
	}

	now := time.Now()
	if err := h.db.Model(&modpack).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete modpack"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Modpack deleted"})
}

// CreateVersion attaches a version to a modpack.
// @Summary Create a modpack version
// @Description Create a new version for a modpack
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Param request body CreateVersionRequest true "Version details"
// @Success 201 {object} models.ModpackVersion
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /modpacks/{id}/versions [post]
func (h *ModpackHandler) CreateVersion(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")

	var req CreateVersionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var modpack models.Modpack
	if err := h.db.Where("id = ?", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	allowed, err := h.evaluator.HasPermission(c.Request().Context(), userID, modpack.PublisherID, permissions.FlagModpackManageVersions, modpack.ID)
	if err != nil {
		return err
	}
	if !allowed && modpack.CreatorUserID != userID {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "Insufficient permissions",
			"code":  permissions.FlagModpackManageVersions.DenialCode(),
		})
	}

	version := models.ModpackVersion{
		ModpackID:     modpack.ID,
		Version:       req.Version,
		Changelog:     req.Changelog,
		ArchivePath:   req.ArchivePath,
		ArchiveSHA256: req.ArchiveSHA256,
		SizeBytes:     req.SizeBytes,
	}

	if err := h.db.Create(&version).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create version"})
	}
	return c.JSON(http.StatusCreated, version)
}

// CheckAccess is the read-only acquisition gate. Anonymous callers get
// AUTH_REQUIRED for gated packs without any provider round trip.
// @Summary Check modpack access
// @Description Check whether the caller can access a modpack
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Success 200 {object} acquisition.Decision
// @Failure 404 {object} map[string]string "Not found"
// @Failure 502 {object} map[string]string "Upstream failure"
// @Router /modpacks/{id}/access [get]
func (h *ModpackHandler) CheckAccess(c echo.Context) error {
	id := c.Param("id")

	var modpack models.Modpack
	if err := h.db.Where("id = ? AND published = true", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	user, err := h.currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	decision, err := h.gate.CanUserAcquire(c.Request().Context(), user, &modpack)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decision)
}

// Acquire obtains the modpack for the authenticated user. Denials come
// back as 403 with the reason; payment flows answer 402.
// @Summary Acquire a modpack
// @Description Acquire access to a modpack via its configured method
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Param request body AcquireModpackRequest false "Credential for password packs"
// @Success 200 {object} models.ModpackAcquisition
// @Failure 402 {object} acquisition.Denial "Payment pending"
// @Failure 403 {object} acquisition.Denial "Denied"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 502 {object} map[string]string "Upstream failure"
// @Router /modpacks/{id}/acquire [post]
func (h *ModpackHandler) Acquire(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")

	var req AcquireModpackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var modpack models.Modpack
	if err := h.db.Where("id = ? AND published = true", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	acq, denial, err := h.gate.Acquire(c.Request().Context(), &user, &modpack, req.Password)
	if err != nil {
		return err
	}
	if denial != nil {
		status := http.StatusForbidden
		if denial.Reason == acquisition.ReasonPaymentPending {
			status = http.StatusPaymentRequired
		}
		return c.JSON(status, denial)
	}
	return c.JSON(http.StatusOK, acq)
}

// Download issues a short-lived download token for a released version
// after re-running the access gate. The launcher redeems the token on
// the downloads route; possession of a stale link never outlives the
// token's expiry.
// @Summary Download a modpack version
// @Description Get a download token URL for a released version
// @Tags modpacks
// @Accept json
// @Produce json
// @Param id path string true "Modpack ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} map[string]string "Download URL"
// @Failure 403 {object} acquisition.Decision "Denied"
// @Failure 404 {object} map[string]string "Not found"
// @Router /modpacks/{id}/versions/{versionId}/download [get]
func (h *ModpackHandler) Download(c echo.Context) error {
	id := c.Param("id")
	versionID := c.Param("versionId")

	var modpack models.Modpack
	if err := h.db.Where("id = ? AND published = true", id).First(&modpack).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Modpack not found"})
	}

	var version models.ModpackVersion
	if err := h.db.Where("id = ? AND modpack_id = ? AND released = true", versionID, id).First(&version).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Version not found"})
	}

	user, err := h.currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	decision, err := h.gate.CanUserAcquire(c.Request().Context(), user, &modpack)
	if err != nil {
		return err
	}
	if !decision.CanAccess {
		return c.JSON(http.StatusForbidden, decision)
	}

	downloaderID := ""
	if user != nil {
		downloaderID = user.ID
	}

	token, err := crypto.SignDownloadToken(downloaderID, version.ID, time.Hour)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to issue download token"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"url":     "/api/v1/downloads/" + token,
		"expires": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
}

// RedeemDownload exchanges a download token for the archive. The token
// was issued after the gate passed, so no session is required here.
// @Summary Redeem a download token
// @Description Redirect to the archive behind a valid download token
// @Tags modpacks
// @Produce json
// @Param token path string true "Download token"
// @Success 302 "Redirect to the archive"
// @Failure 403 {object} map[string]string "Invalid or expired token"
// @Failure 404 {object} map[string]string "Not found"
// @Router /downloads/{token} [get]
func (h *ModpackHandler) RedeemDownload(c echo.Context) error {
	versionID, err := crypto.VerifyDownloadToken(c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Invalid or expired download token"})
	}

	var version models.ModpackVersion
	if err := h.db.Where("id = ? AND released = true", versionID).First(&version).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Version not found"})
	}

	storage := GetStorageHandler()
	if storage == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Storage handler not configured"})
	}

	// Short expiry; the redirect is followed immediately.
	url, err := storage.GetSignedURL(c.Request().Context(), version.ArchivePath, 5*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to sign download URL"})
	}

	return c.Redirect(http.StatusFound, url)
}
