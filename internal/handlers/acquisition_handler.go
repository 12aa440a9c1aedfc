package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"packvault/internal/acquisition"
	"packvault/internal/config"
	"packvault/internal/services"
	"packvault/internal/tasks"
	"packvault/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AcquisitionHandler receives payment provider webhooks and settles them
// into acquisition rows. Deliveries retry from the provider side AND get
// a local asynq retry if inline settlement fails, so every path must be
// idempotent.
type AcquisitionHandler struct {
	db        *gorm.DB
	log       *logger.Logger
	payments  *services.PaymentService
	processor *acquisition.PaymentProcessor
	tasks     *tasks.TaskClient
}

func NewAcquisitionHandler(db *gorm.DB, cfg *config.Config, payments *services.PaymentService) *AcquisitionHandler {
	return &AcquisitionHandler{
		db:        db,
		log:       logger.New("AcquisitionHandler"),
		payments:  payments,
		processor: acquisition.NewPaymentProcessor(db),
		tasks:     tasks.NewTaskClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB),
	}
}

type paymentWebhookEvent struct {
	Event     string `json:"event"` // "payment.confirmed" or "payment.failed"
	PaymentID string `json:"payment_id"`
}

// PaymentWebhook handles the provider's settlement callbacks. Signature
// verification happens against the raw body before any decoding.
// @Summary Payment provider webhook
// @Description Settle a payment confirmation or failure from the provider
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Processed"
// @Failure 400 {object} map[string]string "Malformed event"
// @Failure 401 {object} map[string]string "Bad signature"
// @Router /webhooks/payments [post]
func (h *AcquisitionHandler) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read body"})
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	if !h.payments.VerifyWebhookSignature(body, signature) {
		h.log.Warn("Rejected webhook with bad signature from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
	}

	var event paymentWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Malformed event"})
	}
	if event.PaymentID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing payment id"})
	}

	ctx := c.Request().Context()

	switch event.Event {
	case "payment.failed":
		if err := h.processor.FailPayment(ctx, event.PaymentID); err != nil {
			h.log.Error("Inline failure settlement failed, enqueueing retry", err)
			if enqErr := h.tasks.EnqueuePaymentRetry(event.PaymentID, "failed"); enqErr != nil {
				return enqErr
			}
		}
	default:
		if _, err := h.processor.ConfirmPayment(ctx, event.PaymentID); err != nil {
			if acquisition.IsNotFound(err) {
				// Unknown reference, nothing to retry.
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown payment reference"})
			}
			h.log.Error("Inline confirmation failed, enqueueing retry", err)
			if enqErr := h.tasks.EnqueuePaymentRetry(event.PaymentID, "confirmed"); enqErr != nil {
				return enqErr
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Processed"})
}
