package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a loyalty coupon issued on a qualifying event (a settled order).
// At most one used=false, unexpired coupon should be active per user; the
// issuance path enforces this by query-before-insert and accepts the benign
// race where two concurrent qualifying events both pass the check.
type Coupon struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Code            string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	DiscountPercent float64    `gorm:"not null" json:"discount_percent"`
	Used            bool       `gorm:"not null;default:false;index" json:"used"`
	RedeemedOrderID *uuid.UUID `gorm:"type:uuid" json:"redeemed_order_id,omitempty"`
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Active reports whether the coupon can still be redeemed at t.
func (c *Coupon) Active(t time.Time) bool {
	return !c.Used && c.ExpiresAt.After(t)
}
