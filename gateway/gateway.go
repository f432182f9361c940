package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Checkout creation failures are classified for the caller: unavailable is
// transient (retry with backoff), rejected is terminal (bad amount, bad
// currency, retrying will not help).
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")

	// Webhook parsing failures. Neither leads to a retryable response.
	ErrBadSignature = errors.New("webhook signature verification failed")
	ErrBadPayload   = errors.New("webhook payload malformed")
)

// Normalized webhook event types.
const (
	EventSuccess   = "success"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
)

// CheckoutRequest asks the provider for a hosted checkout link. The
// PaymentReference doubles as the idempotency key sent to the provider, so a
// duplicate request for the same order can never produce two external
// transactions.
type CheckoutRequest struct {
	OrderID          uuid.UUID
	PaymentReference uuid.UUID
	Amount           int64 // minor units
	Currency         string
	Description      string
	CustomerEmail    string
}

// CheckoutSession is the provider's answer: where to send the customer, and
// the provider-side transaction id.
type CheckoutSession struct {
	CheckoutURL   string
	ProviderTxnID string
}

// WebhookEvent is a provider callback normalized into the vocabulary the
// reconciler understands.
type WebhookEvent struct {
	Type             string // success | failed | cancelled
	ProviderTxnID    string
	PaymentReference uuid.UUID
	Amount           int64
	Currency         string
	Status           string
	PaidAt           *time.Time
	Raw              []byte
}

// Gateway abstracts the payment provider: synchronous link creation plus
// asynchronous webhook verification/parsing. Implementations must verify the
// signature before interpreting any payload byte.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(rawBody []byte, signatureHeader string) (*WebhookEvent, error)
}
