package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"packvault/internal/acquisition"
	"packvault/internal/config"
	"packvault/internal/models"
	"packvault/internal/tasks/rate"
	"packvault/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

var (
	cfg, _ = config.Load()
)

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db         *gorm.DB
	logger     *logger.Logger
	taskClient *TaskClient
	processor  *acquisition.PaymentProcessor
	limiter    *rate.QueueRateLimiter
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	taskClient := NewTaskClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	return &TaskHandler{
		db:         db,
		logger:     logger.New("task_handler"),
		taskClient: taskClient,
		processor:  acquisition.NewPaymentProcessor(db),
		limiter: rate.NewQueueRateLimiter(taskClient.redisClient, rate.QueueConfig{
			Name: QueueCritical,
			RateLimit: rate.RateLimit{
				Window:  time.Minute,
				MaxJobs: 10,
			},
		}),
	}
}

// HandlePaymentRetry re-runs a payment webhook settlement. ConfirmPayment
// is idempotent, so a retry racing the original delivery is harmless.
func (h *TaskHandler) HandlePaymentRetry(ctx context.Context, t *asynq.Task) error {
	var payload PaymentRetryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payment retry payload: %w", err)
	}

	// Cap how often retries for one reference hit the provider.
	allowed, err := h.limiter.Allow(ctx, payload.ProviderRef)
	if err != nil {
		h.logger.Warn("Rate limiter unavailable, proceeding: %v", err)
	} else if !allowed {
		return fmt.Errorf("settlement retries for %s are rate limited", payload.ProviderRef)
	}

	h.logger.Info("Retrying payment settlement for ref %s (%s)", payload.ProviderRef, payload.Event)

	switch payload.Event {
	case "failed":
		return h.processor.FailPayment(ctx, payload.ProviderRef)
	default:
		_, err := h.processor.ConfirmPayment(ctx, payload.ProviderRef)
		return err
	}
}

// HandleInviteExpiry marks pending publisher invites past their expiry
// as rejected so stale codes cannot be redeemed.
func (h *TaskHandler) HandleInviteExpiry(ctx context.Context, t *asynq.Task) error {
	result := h.db.WithContext(ctx).Model(&models.PublisherInvite{}).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, time.Now()).
		Update("status", models.InviteStatusRejected)
	if result.Error != nil {
		return h.logger.Error("Failed to expire invites", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Info("Expired %d stale publisher invites", result.RowsAffected)
	}
	return nil
}

// HandlePayoutSweep logs withdrawal requests that have sat in PENDING
// for more than a week so admins can act on them.
func (h *TaskHandler) HandlePayoutSweep(ctx context.Context, t *asynq.Task) error {
	var stale []models.WithdrawalRequest
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	if err := h.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.WithdrawalStatusPending, cutoff).
		Find(&stale).Error; err != nil {
		return h.logger.Error("Failed to sweep withdrawals", err)
	}

	for _, w := range stale {
		h.logger.Warn("Withdrawal %s for publisher %s pending since %s", w.ID, w.PublisherID, w.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
