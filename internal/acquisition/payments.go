package acquisition

import (
	"context"
	"errors"
	"time"

	"packvault/internal/models"

	console "packvault/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("ACQUISITION")

// PaymentProcessor settles confirmed payments into acquisition rows.
// Webhook deliveries retry, so every step is idempotent: a second
// confirmation of the same provider reference changes nothing.
type PaymentProcessor struct {
	db *gorm.DB
}

func NewPaymentProcessor(db *gorm.DB) *PaymentProcessor {
	return &PaymentProcessor{db: db}
}

// RecordPending persists the local half of a freshly opened payment.
func (p *PaymentProcessor) RecordPending(ctx context.Context, userID string, modpack *models.Modpack, providerRef string) (*models.Payment, error) {
	payment := &models.Payment{
		UserID:      userID,
		ModpackID:   modpack.ID,
		PublisherID: modpack.PublisherID,
		AmountCents: modpack.PriceCents,
		Currency:    modpack.Currency,
		Status:      models.PaymentStatusPending,
		ProviderRef: providerRef,
	}
	if err := p.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// ConfirmPayment marks the payment confirmed, creates (or reactivates)
// the acquisition, and credits the publisher balance, all in one
// transaction.
func (p *PaymentProcessor) ConfirmPayment(ctx context.Context, providerRef string) (*models.ModpackAcquisition, error) {
	var result *models.ModpackAcquisition

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment := &models.Payment{}
		if err := tx.Where("provider_ref = ?", providerRef).First(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		existing := &models.ModpackAcquisition{}
		err := tx.Where("user_id = ? AND modpack_id = ?", payment.UserID, payment.ModpackID).First(existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = nil
		} else if err != nil {
			return err
		}

		acq, settled := settle(payment, existing)
		if !settled {
			// Webhook retry; the acquisition already exists.
			if acq == nil {
				return ErrNotFound
			}
			result = acq
			return nil
		}

		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		if err := tx.Save(acq).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Publisher{}).
			Where("id = ?", payment.PublisherID).
			Update("balance_cents", gorm.Expr("balance_cents + ?", payment.AmountCents)).Error; err != nil {
			return err
		}

		result = acq
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Success("Payment %s settled for user %s", providerRef, result.UserID)
	return result, nil
}

// settle decides what a confirmation does to the payment and the
// acquisition row the caller loaded. An already-confirmed payment is a
// webhook retry: nothing changes and the existing acquisition comes
// back untouched with settled false. Otherwise the payment is marked
// confirmed and the acquisition is created or reactivated as a paid,
// active row.
func settle(payment *models.Payment, existing *models.ModpackAcquisition) (acq *models.ModpackAcquisition, settled bool) {
	if payment.Status == models.PaymentStatusConfirmed {
		return existing, false
	}

	now := time.Now()
	payment.Status = models.PaymentStatusConfirmed
	payment.ConfirmedAt = &now

	if existing == nil {
		return &models.ModpackAcquisition{
			UserID:        payment.UserID,
			ModpackID:     payment.ModpackID,
			Method:        models.AcquisitionMethodPaid,
			TransactionID: &payment.ID,
			Status:        models.AcquisitionStatusActive,
		}, true
	}

	existing.Method = models.AcquisitionMethodPaid
	existing.TransactionID = &payment.ID
	existing.Status = models.AcquisitionStatusActive
	return existing, true
}

// FailPayment marks a payment failed after a provider failure webhook.
// Confirmed payments are left alone.
func (p *PaymentProcessor) FailPayment(ctx context.Context, providerRef string) error {
	return p.db.WithContext(ctx).Model(&models.Payment{}).
		Where("provider_ref = ? AND status = ?", providerRef, models.PaymentStatusPending).
		Update("status", models.PaymentStatusFailed).Error
}
