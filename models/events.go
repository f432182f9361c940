package models

import "time"

// Event types published to the order-events topic after a committed state
// transition. Delivery to subscribers is best-effort; the core's job ends at
// "transition committed, event emitted".
const (
	EventOrderSettled     = "order_settled"
	EventOrderCancelled   = "order_cancelled"
	EventOrderExpired     = "order_expired"
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
	EventCouponIssued     = "coupon_issued"
)

// OrderEvent is the message body for every event type above.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
