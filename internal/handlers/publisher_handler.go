package handlers

import (
	"net/http"
	"time"

	"packvault/internal/models"
	"packvault/internal/permissions"
	"packvault/internal/utils"
	"packvault/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type PublisherHandler struct {
	db        *gorm.DB
	log       *logger.Logger
	evaluator *permissions.Evaluator
	roles     *permissions.RoleService
	scopes    *permissions.ScopeService
}

func NewPublisherHandler(db *gorm.DB) *PublisherHandler {
	store := permissions.NewGormStore(db)
	evaluator := permissions.NewEvaluator(store, store)
	return &PublisherHandler{
		db:        db,
		log:       logger.New("PublisherHandler"),
		evaluator: evaluator,
		roles:     permissions.NewRoleService(db, evaluator),
		scopes:    permissions.NewScopeService(db),
	}
}

type CreatePublisherRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,member_role"`
}

type GrantScopeRequest struct {
	PublisherID *string                   `json:"publisherId,omitempty" validate:"omitempty,uuid"`
	ModpackID   *string                   `json:"modpackId,omitempty" validate:"omitempty,uuid"`
	Overrides   permissions.FlagOverrides `json:"overrides"`
}

type RevokeScopeRequest struct {
	PublisherID *string  `json:"publisherId,omitempty" validate:"omitempty,uuid"`
	ModpackID   *string  `json:"modpackId,omitempty" validate:"omitempty,uuid"`
	Flags       []string `json:"flags" validate:"required,min=1,dive,permission_flag"`
}

type InvitePublisherMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

// scopeTarget builds the tagged target from the request's pointer pair.
func scopeTarget(publisherID, modpackID *string) permissions.ScopeTarget {
	if publisherID != nil && modpackID == nil {
		return permissions.OrganizationTarget(*publisherID)
	}
	if modpackID != nil && publisherID == nil {
		return permissions.ModpackTarget(*modpackID)
	}
	return permissions.ScopeTarget{}
}

// CreatePublisher creates a publisher organization. The creating user
// becomes its Owner in the same transaction.
// @Summary Create a publisher
// @Description Create a publisher organization owned by the current user
// @Tags publishers
// @Accept json
// @Produce json
// @Param request body CreatePublisherRequest true "Publisher details"
// @Success 201 {object} models.Publisher
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Name taken"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /publishers [post]
func (h *PublisherHandler) CreatePublisher(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req CreatePublisherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	publisher := models.Publisher{
		Name:        req.Name,
		Description: req.Description,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&publisher).Error; err != nil {
			return err
		}
		owner := models.PublisherMember{
			PublisherID: publisher.ID,
			UserID:      userID,
			Role:        models.MemberRoleOwner,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Failed to create publisher, name may be taken"})
	}

	return c.JSON(http.StatusCreated, publisher)
}

// ListMembers lists a publisher's members with their scopes.
// @Summary List publisher members
// @Description List the members of a publisher with their roles and scopes
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Success 200 {array} models.PublisherMember
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /publishers/{publisherId}/members [get]
func (h *PublisherHandler) ListMembers(c echo.Context) error {
	publisherID := c.Param("publisherId")

	var members []models.PublisherMember
	if err := h.db.Where("publisher_id = ? AND is_deleted = false", publisherID).
		Preload("User").
		Preload("Scopes").
		Find(&members).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch members"})
	}
	return c.JSON(http.StatusOK, members)
}

// AddMember adds a user to the publisher with a role.
// @Summary Add a publisher member
// @Description Add a user to a publisher with the given role
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param request body AddMemberRequest true "Member details"
// @Success 201 {object} models.PublisherMember
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Conflict"
// @Router /publishers/{publisherId}/members [post]
func (h *PublisherHandler) AddMember(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	member, err := h.roles.AddMember(c.Request().Context(), actorID, publisherID, req.UserID, models.MemberRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, member)
}

// UpdateMemberRole changes a member's role.
// @Summary Update a member's role
// @Description Change the role of a publisher member
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param memberId path string true "Member ID"
// @Param request body UpdateRoleRequest true "New role"
// @Success 200 {object} models.PublisherMember
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Member not found"
// @Failure 409 {object} map[string]string "Conflict"
// @Router /publishers/{publisherId}/members/{memberId}/role [put]
func (h *PublisherHandler) UpdateMemberRole(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")
	memberID := c.Param("memberId")

	var req UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	member, err := h.roles.UpdateRole(c.Request().Context(), actorID, publisherID, memberID, models.MemberRole(req.Role))
	if err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Member not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// RemoveMember removes a member and their scope rows.
// @Summary Remove a publisher member
// @Description Remove a member from a publisher, clearing their scopes
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param memberId path string true "Member ID"
// @Success 200 {object} map[string]string "Member removed"
// @Failure 404 {object} map[string]string "Member not found"
// @Failure 409 {object} map[string]string "Conflict"
// @Router /publishers/{publisherId}/members/{memberId} [delete]
func (h *PublisherHandler) RemoveMember(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")
	memberID := c.Param("memberId")

	if err := h.roles.RemoveMember(c.Request().Context(), actorID, publisherID, memberID); err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Member not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Member removed"})
}

// canManageTargetMember checks the actor outranks the member whose
// scopes are being edited. Grants follow the same hierarchy as roles.
func (h *PublisherHandler) canManageTargetMember(c echo.Context, actorID, publisherID, memberID string) (bool, error) {
	var target models.PublisherMember
	if err := h.db.Where("id = ? AND publisher_id = ? AND is_deleted = false", memberID, publisherID).
		First(&target).Error; err != nil {
		return false, permissions.ErrNotFound
	}
	return h.evaluator.CanManageRole(c.Request().Context(), actorID, publisherID, target.Role)
}

// GrantScope applies flag overrides to a member's scope for one target.
// @Summary Grant scope flags
// @Description Grant or update permission flags for a member on one target
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param memberId path string true "Member ID"
// @Param request body GrantScopeRequest true "Target and overrides"
// @Success 200 {object} models.Scope
// @Failure 400 {object} map[string]string "Invalid scope target"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Member not found"
// @Router /publishers/{publisherId}/members/{memberId}/scopes [post]
func (h *PublisherHandler) GrantScope(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")
	memberID := c.Param("memberId")

	var req GrantScopeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	allowed, err := h.canManageTargetMember(c, actorID, publisherID, memberID)
	if err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Member not found"})
		}
		return err
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Insufficient role to manage this member"})
	}

	scope, err := h.scopes.Grant(c.Request().Context(), memberID, scopeTarget(req.PublisherID, req.ModpackID), req.Overrides)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scope)
}

// RevokeScope clears named flags on a member's scope for one target.
// @Summary Revoke scope flags
// @Description Clear permission flags for a member on one target
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param memberId path string true "Member ID"
// @Param request body RevokeScopeRequest true "Target and flags"
// @Success 200 {object} map[string]string "Flags revoked"
// @Failure 400 {object} map[string]string "Invalid scope target"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Member not found"
// @Router /publishers/{publisherId}/members/{memberId}/scopes/revoke [post]
func (h *PublisherHandler) RevokeScope(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")
	memberID := c.Param("memberId")

	var req RevokeScopeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	allowed, err := h.canManageTargetMember(c, actorID, publisherID, memberID)
	if err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Member not found"})
		}
		return err
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Insufficient role to manage this member"})
	}

	flags := make([]permissions.Flag, 0, len(req.Flags))
	for _, f := range req.Flags {
		flags = append(flags, permissions.Flag(f))
	}

	if _, err := h.scopes.Revoke(c.Request().Context(), memberID, scopeTarget(req.PublisherID, req.ModpackID), flags); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Flags revoked"})
}

// InviteMember creates an email invite with a join code.
// @Summary Invite a user to a publisher
// @Description Create an invitation code for a user to join the publisher
// @Tags publishers
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param request body InvitePublisherMemberRequest true "Invite details"
// @Success 201 {object} models.PublisherInvite
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /publishers/{publisherId}/invites [post]
func (h *PublisherHandler) InviteMember(c echo.Context) error {
	actorID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")

	var req InvitePublisherMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	allowed, err := h.evaluator.CanManageRole(c.Request().Context(), actorID, publisherID, models.MemberRole(req.Role))
	if err != nil {
		return err
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Insufficient role to invite with this role"})
	}

	code, err := utils.GenerateRandomString(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate invite code"})
	}

	invite := models.PublisherInvite{
		PublisherID: publisherID,
		Email:       req.Email,
		InviterID:   actorID,
		Role:        models.MemberRole(req.Role),
		Code:        code,
		Status:      models.InviteStatusPending,
		ExpiresAt:   time.Now().Add(24 * 7 * time.Hour),
	}

	if err := h.db.Create(&invite).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create invitation"})
	}
	return c.JSON(http.StatusCreated, invite)
}

// AcceptInvite redeems an invite code for the authenticated user. The
// resulting membership carries the invited role.
// @Summary Accept a publisher invite
// @Description Redeem an invitation code and join the publisher
// @Tags publishers
// @Accept json
// @Produce json
// @Param code path string true "Invitation code"
// @Success 200 {object} models.PublisherMember
// @Failure 400 {object} map[string]string "Invalid or expired invitation"
// @Failure 409 {object} map[string]string "Already a member"
// @Router /publishers/invites/accept/{code} [post]
func (h *PublisherHandler) AcceptInvite(c echo.Context) error {
	userID := c.Get("userID").(string)
	email := c.Get("email").(string)
	code := c.Param("code")

	var member models.PublisherMember
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var invite models.PublisherInvite
		if err := tx.Where("code = ? AND status = ? AND expires_at > ?",
			code, models.InviteStatusPending, time.Now()).First(&invite).Error; err != nil {
			return permissions.ErrNotFound
		}

		if invite.Email != email {
			return permissions.ErrNotFound
		}

		var count int64
		if err := tx.Model(&models.PublisherMember{}).
			Where("publisher_id = ? AND user_id = ? AND is_deleted = false", invite.PublisherID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return permissions.NewConflict(permissions.CodeMemberExists, "user is already a member of this publisher")
		}

		member = models.PublisherMember{
			PublisherID: invite.PublisherID,
			UserID:      userID,
			Role:        invite.Role,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		invite.Status = models.InviteStatusAccepted
		return tx.Save(&invite).Error
	})
	if err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or expired invitation"})
		}
		return err
	}

	return c.JSON(http.StatusOK, member)
}
