package repository

import (
	"context"
	"time"

	"billing-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access. Payments
// are created only on the checkout path; the webhook reconciler only ever
// updates an existing row found by its payment_reference.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByReference(ctx context.Context, reference uuid.UUID) (*models.Payment, error)
	// SetCheckoutDetails records the provider's checkout link and
	// transaction id after link creation succeeds.
	SetCheckoutDetails(ctx context.Context, id uuid.UUID, checkoutURL, providerTxnID string) error
	// MirrorGatewayStatus copies a webhook's status/paid_at/raw payload onto
	// the payment row.
	MirrorGatewayStatus(ctx context.Context, id uuid.UUID, status string, paidAt *time.Time, rawPayload string) error
}

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *GormPaymentRepository) FindByReference(ctx context.Context, reference uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) SetCheckoutDetails(ctx context.Context, id uuid.UUID, checkoutURL, providerTxnID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checkout_url":    checkoutURL,
			"provider_txn_id": providerTxnID,
			"updated_at":      time.Now(),
		}).Error
}

func (r *GormPaymentRepository) MirrorGatewayStatus(ctx context.Context, id uuid.UUID, status string, paidAt *time.Time, rawPayload string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	if rawPayload != "" {
		updates["provider_payload"] = rawPayload
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
