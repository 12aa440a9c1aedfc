package handlers

import (
	"net/http"

	"packvault/internal/config"
	"packvault/internal/models"
	"packvault/internal/permissions"
	"packvault/internal/tasks"
	"packvault/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AdminHandler covers the moderation surface: acquisition suspension and
// revocation, and the publisher payout workflow.
type AdminHandler struct {
	db        *gorm.DB
	log       *logger.Logger
	evaluator *permissions.Evaluator
	tasks     *tasks.TaskClient
}

func NewAdminHandler(db *gorm.DB, cfg *config.Config) *AdminHandler {
	store := permissions.NewGormStore(db)
	return &AdminHandler{
		db:        db,
		log:       logger.New("AdminHandler"),
		evaluator: permissions.NewEvaluator(store, store),
		tasks:     tasks.NewTaskClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB),
	}
}

type CreateWithdrawalRequest struct {
	AmountCents int64  `json:"amountCents" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

type ReviewWithdrawalRequest struct {
	Note string `json:"note"`
}

type MarkPaidRequest struct {
	PayoutRef string `json:"payoutRef" validate:"required"`
}

// RequestWithdrawal opens a payout request against a publisher balance.
// Only the Owner may withdraw; the amount is reserved immediately so two
// concurrent requests cannot double-spend the balance.
// @Summary Request a withdrawal
// @Description Request a payout of the publisher balance
// @Tags payouts
// @Accept json
// @Produce json
// @Param publisherId path string true "Publisher ID"
// @Param request body CreateWithdrawalRequest true "Amount"
// @Success 201 {object} models.WithdrawalRequest
// @Failure 400 {object} map[string]string "Insufficient balance"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /publishers/{publisherId}/withdrawals [post]
func (h *AdminHandler) RequestWithdrawal(c echo.Context) error {
	userID := c.Get("userID").(string)
	publisherID := c.Param("publisherId")

	var req CreateWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	member, err := models.GetMembership(publisherID, userID, h.db)
	if err != nil || member.Role != models.MemberRoleOwner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Only the owner may request withdrawals"})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	var withdrawal models.WithdrawalRequest
	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Reserve against the balance so concurrent requests cannot
		// both succeed.
		result := tx.Model(&models.Publisher{}).
			Where("id = ? AND balance_cents >= ?", publisherID, req.AmountCents).
			Update("balance_cents", gorm.Expr("balance_cents - ?", req.AmountCents))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return permissions.NewConflict("INSUFFICIENT_BALANCE", "publisher balance does not cover this amount")
		}

		withdrawal = models.WithdrawalRequest{
			PublisherID: publisherID,
			RequesterID: userID,
			AmountCents: req.AmountCents,
			Currency:    currency,
			Status:      models.WithdrawalStatusPending,
		}
		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		if ce, ok := permissions.AsConflict(err); ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": ce.Message, "code": ce.Code})
		}
		return err
	}

	return c.JSON(http.StatusCreated, withdrawal)
}

// ListWithdrawals lists payout requests, all of them for site admins.
// @Summary List withdrawal requests
// @Description List payout requests pending review
// @Tags payouts
// @Accept json
// @Produce json
// @Success 200 {array} models.WithdrawalRequest
// @Router /admin/withdrawals [get]
func (h *AdminHandler) ListWithdrawals(c echo.Context) error {
	query := h.db.Preload("Publisher").Preload("Requester")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var withdrawals []models.WithdrawalRequest
	if err := query.Find(&withdrawals).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch withdrawals"})
	}
	return c.JSON(http.StatusOK, withdrawals)
}

// ApproveWithdrawal moves a pending request to APPROVED.
// @Summary Approve a withdrawal
// @Description Approve a pending payout request
// @Tags payouts
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param request body ReviewWithdrawalRequest false "Review note"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 404 {object} map[string]string "Not found or not pending"
// @Router /admin/withdrawals/{id}/approve [post]
func (h *AdminHandler) ApproveWithdrawal(c echo.Context) error {
	return h.reviewWithdrawal(c, models.WithdrawalStatusApproved, false)
}

// DenyWithdrawal moves a pending request to DENIED and refunds the
// reserved amount back onto the publisher balance.
// @Summary Deny a withdrawal
// @Description Deny a pending payout request and refund the balance
// @Tags payouts
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param request body ReviewWithdrawalRequest false "Review note"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 404 {object} map[string]string "Not found or not pending"
// @Router /admin/withdrawals/{id}/deny [post]
func (h *AdminHandler) DenyWithdrawal(c echo.Context) error {
	return h.reviewWithdrawal(c, models.WithdrawalStatusDenied, true)
}

func (h *AdminHandler) reviewWithdrawal(c echo.Context, status models.WithdrawalStatus, refund bool) error {
	reviewerID := c.Get("userID").(string)
	id := c.Param("id")

	var req ReviewWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var withdrawal models.WithdrawalRequest
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
			First(&withdrawal).Error; err != nil {
			return permissions.ErrNotFound
		}

		withdrawal.Status = status
		withdrawal.ReviewerID = &reviewerID
		withdrawal.ReviewNote = req.Note
		if err := tx.Save(&withdrawal).Error; err != nil {
			return err
		}

		if refund {
			return tx.Model(&models.Publisher{}).
				Where("id = ?", withdrawal.PublisherID).
				Update("balance_cents", gorm.Expr("balance_cents + ?", withdrawal.AmountCents)).Error
		}
		return nil
	})
	if err != nil {
		if permissions.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Withdrawal not found or not pending"})
		}
		return err
	}

	return c.JSON(http.StatusOK, withdrawal)
}

// MarkWithdrawalPaid records the external payout reference.
// @Summary Mark a withdrawal paid
// @Description Record the payout reference for an approved withdrawal
// @Tags payouts
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param request body MarkPaidRequest true "Payout reference"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 404 {object} map[string]string "Not found or not approved"
// @Router /admin/withdrawals/{id}/paid [post]
func (h *AdminHandler) MarkWithdrawalPaid(c echo.Context) error {
	id := c.Param("id")

	var req MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var withdrawal models.WithdrawalRequest
	if err := h.db.Where("id = ? AND status = ?", id, models.WithdrawalStatusApproved).
		First(&withdrawal).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Withdrawal not found or not approved"})
	}

	withdrawal.Status = models.WithdrawalStatusPaid
	withdrawal.PayoutRef = req.PayoutRef
	if err := h.db.Save(&withdrawal).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update withdrawal"})
	}

	return c.JSON(http.StatusOK, withdrawal)
}

// SweepWithdrawals queues an extra payout sweep. The sweep itself runs
// in the nightly batch window, not inline with this request.
// @Summary Queue a payout sweep
// @Description Schedule an out-of-cycle sweep of stale withdrawal requests
// @Tags payouts
// @Accept json
// @Produce json
// @Success 202 {object} map[string]string "Sweep scheduled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/withdrawals/sweep [post]
func (h *AdminHandler) SweepWithdrawals(c echo.Context) error {
	if err := h.tasks.EnqueuePayoutSweep(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to schedule sweep"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "Sweep scheduled for the next batch window"})
}

// SetAcquisitionStatus flips an acquisition's lifecycle state. Rows are
// never deleted so the audit trail survives; a revoked user simply
// stops passing the gate.
// @Summary Change acquisition status
// @Description Suspend, revoke or reactivate an acquisition
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Acquisition ID"
// @Param status query string true "ACTIVE, SUSPENDED or REVOKED"
// @Success 200 {object} models.ModpackAcquisition
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/acquisitions/{id}/status [put]
func (h *AdminHandler) SetAcquisitionStatus(c echo.Context) error {
	id := c.Param("id")
	status := models.AcquisitionStatus(c.QueryParam("status"))

	switch status {
	case models.AcquisitionStatusActive, models.AcquisitionStatusSuspended, models.AcquisitionStatusRevoked:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Status must be ACTIVE, SUSPENDED or REVOKED"})
	}

	var acq models.ModpackAcquisition
	if err := h.db.Where("id = ?", id).First(&acq).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Acquisition not found"})
	}

	acq.Status = status
	if err := h.db.Save(&acq).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update acquisition"})
	}

	h.log.Info("Acquisition %s set to %s", acq.ID, status)
	return c.JSON(http.StatusOK, acq)
}
