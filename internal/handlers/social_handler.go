package handlers

import (
	"net/http"

	"packvault/internal/events"
	"packvault/internal/models"
	"packvault/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type SocialHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSocialHandler(db *gorm.DB) *SocialHandler {
	return &SocialHandler{db: db, log: logger.New("SocialHandler")}
}

type FriendRequestInput struct {
	AddresseeID string `json:"addresseeId" validate:"required,uuid"`
}

// SendFriendRequest creates a pending friendship row.
// @Summary Send a friend request
// @Description Send a friend request to another user
// @Tags social
// @Accept json
// @Produce json
// @Param request body FriendRequestInput true "Addressee"
// @Success 201 {object} models.Friendship
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Request already exists"
// @Router /friends/requests [post]
func (h *SocialHandler) SendFriendRequest(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req FriendRequestInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if req.AddresseeID == userID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot befriend yourself"})
	}

	var addressee models.User
	if err := h.db.Where("id = ?", req.AddresseeID).First(&addressee).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	// Either direction counts as an existing relationship
	var count int64
	if err := h.db.Model(&models.Friendship{}).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userID, req.AddresseeID, req.AddresseeID, userID).
		Where("status IN ?", []models.FriendshipStatus{models.FriendshipStatusPending, models.FriendshipStatusAccepted}).
		Count(&count).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to check friendship"})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Friend request already exists"})
	}

	friendship := models.Friendship{
		RequesterID: userID,
		AddresseeID: req.AddresseeID,
		Status:      models.FriendshipStatusPending,
	}

	if err := h.db.Create(&friendship).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create friend request"})
	}

	events.Emit("friend.requested", &friendship)

	return c.JSON(http.StatusCreated, friendship)
}

// RespondFriendRequest accepts or declines an incoming request. Only the
// addressee may respond.
// @Summary Respond to a friend request
// @Description Accept or decline a pending friend request
// @Tags social
// @Accept json
// @Produce json
// @Param id path string true "Friendship ID"
// @Param action query string true "accept or decline"
// @Success 200 {object} models.Friendship
// @Failure 400 {object} map[string]string "Invalid action"
// @Failure 404 {object} map[string]string "Request not found"
// @Router /friends/requests/{id} [put]
func (h *SocialHandler) RespondFriendRequest(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")
	action := c.QueryParam("action")

	if action != "accept" && action != "decline" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Action must be accept or decline"})
	}

	var friendship models.Friendship
	if err := h.db.Where("id = ? AND addressee_id = ? AND status = ?",
		id, userID, models.FriendshipStatusPending).First(&friendship).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Friend request not found"})
	}

	if action == "accept" {
		friendship.Status = models.FriendshipStatusAccepted
	} else {
		friendship.Status = models.FriendshipStatusDeclined
	}

	if err := h.db.Save(&friendship).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update friend request"})
	}

	return c.JSON(http.StatusOK, friendship)
}

// ListFriends lists accepted friendships in either direction.
// @Summary List friends
// @Description List the current user's accepted friendships
// @Tags social
// @Accept json
// @Produce json
// @Success 200 {array} models.Friendship
// @Router /friends [get]
func (h *SocialHandler) ListFriends(c echo.Context) error {
	userID := c.Get("userID").(string)

	var friendships []models.Friendship
	if err := h.db.Where("(requester_id = ? OR addressee_id = ?) AND status = ?",
		userID, userID, models.FriendshipStatusAccepted).
		Preload("Requester").
		Preload("Addressee").
		Find(&friendships).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch friends"})
	}
	return c.JSON(http.StatusOK, friendships)
}

// ListPendingRequests lists incoming pending requests.
// @Summary List pending friend requests
// @Description List friend requests awaiting the current user's response
// @Tags social
// @Accept json
// @Produce json
// @Success 200 {array} models.Friendship
// @Router /friends/requests [get]
func (h *SocialHandler) ListPendingRequests(c echo.Context) error {
	userID := c.Get("userID").(string)

	var friendships []models.Friendship
	if err := h.db.Where("addressee_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("Requester").
		Find(&friendships).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch requests"})
	}
	return c.JSON(http.StatusOK, friendships)
}

// RemoveFriend deletes a friendship in either direction.
// @Summary Remove a friend
// @Description Remove an accepted friendship
// @Tags social
// @Accept json
// @Produce json
// @Param id path string true "Friendship ID"
// @Success 200 {object} map[string]string "Friend removed"
// @Failure 404 {object} map[string]string "Friendship not found"
// @Router /friends/{id} [delete]
func (h *SocialHandler) RemoveFriend(c echo.Context) error {
	userID := c.Get("userID").(string)
	id := c.Param("id")

	var friendship models.Friendship
	if err := h.db.Where("id = ? AND (requester_id = ? OR addressee_id = ?)",
		id, userID, userID).First(&friendship).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Friendship not found"})
	}

	if err := h.db.Delete(&friendship).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to remove friend"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Friend removed"})
}
