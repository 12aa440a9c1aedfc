package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"packvault/internal/acquisition"
	"packvault/internal/config"
	"packvault/internal/models"
	"packvault/internal/utils/crypto"
	"packvault/internal/utils/logger"

	"github.com/google/uuid"
)

// PaymentService opens charges with the external payment provider and
// verifies its webhook signatures. Settlement of confirmed payments
// lives in the acquisition package; this service only speaks the
// provider's HTTP API.
type PaymentService struct {
	cfg       config.PaymentsConfig
	client    *http.Client
	log       *logger.Logger
	processor *acquisition.PaymentProcessor
}

var _ acquisition.PaymentStarter = (*PaymentService)(nil)

func NewPaymentService(cfg config.PaymentsConfig, processor *acquisition.PaymentProcessor) *PaymentService {
	return &PaymentService{
		cfg:       cfg,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       logger.New("payment_service"),
		processor: processor,
	}
}

type createChargeRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type createChargeResponse struct {
	PaymentID string `json:"payment_id"`
}

// StartPayment opens a pending charge and records the local payment row.
// Returns the provider reference the webhook will later confirm.
func (s *PaymentService) StartPayment(ctx context.Context, userID string, modpack *models.Modpack) (string, error) {
	reference := uuid.New().String()

	payload, err := json.Marshal(createChargeRequest{
		Reference:   reference,
		AmountCents: modpack.PriceCents,
		Currency:    modpack.Currency,
		Description: fmt.Sprintf("modpack %s", modpack.Name),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.APIBaseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var body createChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode charge response: %w", err)
	}

	if _, err := s.processor.RecordPending(ctx, userID, modpack, body.PaymentID); err != nil {
		return "", fmt.Errorf("failed to record pending payment: %w", err)
	}

	s.log.Info("Opened payment %s for user %s", body.PaymentID, userID)
	return body.PaymentID, nil
}

// VerifyWebhookSignature checks the provider's HMAC header against the
// raw request body.
func (s *PaymentService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.cfg.WebhookSecret == "" || signature == "" {
		return false
	}
	return crypto.VerifyWebhookSignature(body, s.cfg.WebhookSecret, signature)
}
