package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus values. pending is the only state an order can leave;
// completed and cancelled are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a billable order in the ledger. All amounts are integer minor
// units (cents). total_amount = subtotal + vat_amount at creation; once the
// order leaves pending the amounts never change. Rows are never deleted.
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ServiceID   *uuid.UUID `gorm:"type:uuid" json:"service_id,omitempty"`
	Hours       int        `gorm:"not null;default:1" json:"hours"`
	Subtotal    int64      `gorm:"not null" json:"subtotal"`
	CouponID    *uuid.UUID `gorm:"type:uuid" json:"coupon_id,omitempty"`
	Discount    int64      `gorm:"not null;default:0" json:"discount"`
	VATAmount   int64      `gorm:"not null" json:"vat_amount"`
	TotalAmount int64      `gorm:"not null" json:"total_amount"`
	Currency    string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Hours     int       `json:"hours" binding:"required,min=1"`
}

// CancelOrderRequest carries the user-supplied cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CheckoutResponse is returned after an order is created and a checkout
// link has been obtained from the payment gateway.
type CheckoutResponse struct {
	OrderID          uuid.UUID `json:"order_id"`
	PaymentReference uuid.UUID `json:"payment_reference"`
	CheckoutURL      string    `json:"checkout_url"`
	TotalAmount      int64     `json:"total_amount"`
	Currency         string    `json:"currency"`
}
