package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus mirrors the gateway's vocabulary. The payment row is
// append-only truth about what the provider told us; it never decides order
// state by itself.
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment links an order to an external gateway transaction. The
// payment_reference is generated locally at order creation, passed to the
// provider as the idempotency key, and echoed back in webhooks. It is the
// join key between local and external state. Webhooks never create payments;
// an unknown reference is an anomaly, not an insert.
type Payment struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	PaymentReference uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"payment_reference"`
	ProviderTxnID    *string   `gorm:"type:varchar(191)" json:"provider_txn_id,omitempty"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(3);not null" json:"currency"`
	Status           string    `gorm:"type:varchar(20);not null" json:"status"`
	CheckoutURL      *string   `gorm:"type:varchar(1024)" json:"checkout_url,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	ProviderPayload  *string   `gorm:"type:jsonb" json:"-"` // raw webhook, kept for audit
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
