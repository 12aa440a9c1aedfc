package acquisition

import (
	"testing"
	"time"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleFreshPayment(t *testing.T) {
	payment := &models.Payment{
		Base:      models.Base{ID: "pay-1"},
		UserID:    "user-1",
		ModpackID: "pack-1",
		Status:    models.PaymentStatusPending,
	}

	acq, settled := settle(payment, nil)
	require.True(t, settled)

	assert.Equal(t, models.PaymentStatusConfirmed, payment.Status)
	require.NotNil(t, payment.ConfirmedAt)
	assert.WithinDuration(t, time.Now(), *payment.ConfirmedAt, time.Second)

	assert.Equal(t, "user-1", acq.UserID)
	assert.Equal(t, "pack-1", acq.ModpackID)
	assert.Equal(t, models.AcquisitionMethodPaid, acq.Method)
	assert.Equal(t, models.AcquisitionStatusActive, acq.Status)
	require.NotNil(t, acq.TransactionID)
	assert.Equal(t, "pay-1", *acq.TransactionID)
}

func TestSettleWebhookRetryChangesNothing(t *testing.T) {
	confirmedAt := time.Now().Add(-time.Hour)
	txID := "pay-1"
	payment := &models.Payment{
		Base:        models.Base{ID: "pay-1"},
		UserID:      "user-1",
		ModpackID:   "pack-1",
		Status:      models.PaymentStatusConfirmed,
		ConfirmedAt: &confirmedAt,
	}
	existing := &models.ModpackAcquisition{
		Base:          models.Base{ID: "acq-1"},
		UserID:        "user-1",
		ModpackID:     "pack-1",
		Method:        models.AcquisitionMethodPaid,
		TransactionID: &txID,
		Status:        models.AcquisitionStatusActive,
	}

	acq, settled := settle(payment, existing)
	assert.False(t, settled)
	assert.Same(t, existing, acq)
	assert.Equal(t, confirmedAt, *payment.ConfirmedAt)
}

func TestSettleReactivatesRevokedAcquisition(t *testing.T) {
	payment := &models.Payment{
		Base:      models.Base{ID: "pay-2"},
		UserID:    "user-1",
		ModpackID: "pack-1",
		Status:    models.PaymentStatusPending,
	}
	existing := &models.ModpackAcquisition{
		Base:      models.Base{ID: "acq-1"},
		UserID:    "user-1",
		ModpackID: "pack-1",
		Method:    models.AcquisitionMethodFree,
		Status:    models.AcquisitionStatusRevoked,
	}

	acq, settled := settle(payment, existing)
	require.True(t, settled)
	assert.Same(t, existing, acq)
	assert.Equal(t, models.AcquisitionStatusActive, acq.Status)
	assert.Equal(t, models.AcquisitionMethodPaid, acq.Method)
	require.NotNil(t, acq.TransactionID)
	assert.Equal(t, "pay-2", *acq.TransactionID)
}
