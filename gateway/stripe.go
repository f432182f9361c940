package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway implements Gateway on Stripe Checkout Sessions. The local
// payment reference travels as the session's client_reference_id and comes
// back in every webhook for the session.
type StripeGateway struct {
	webhookKey string
	successURL string
	cancelURL  string
	timeout    time.Duration
}

func NewStripeGateway(secretKey, webhookKey, successURL, cancelURL string, timeout time.Duration) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookKey: webhookKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		timeout:    timeout,
	}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.PaymentReference.String()),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.PaymentReference.String())
	params.AddMetadata("order_id", req.OrderID.String())
	params.AddMetadata("payment_reference", req.PaymentReference.String())

	sess, err := session.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}

	return &CheckoutSession{CheckoutURL: sess.URL, ProviderTxnID: sess.ID}, nil
}

func (g *StripeGateway) ParseWebhook(rawBody []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(rawBody, signatureHeader, g.webhookKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	var eventType string
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		eventType = EventSuccess
	case "checkout.session.async_payment_failed":
		eventType = EventFailed
	case "checkout.session.expired":
		eventType = EventCancelled
	default:
		return nil, fmt.Errorf("%w: unhandled event type %s", ErrBadPayload, event.Type)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	reference, err := uuid.Parse(sess.ClientReferenceID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad client_reference_id %q", ErrBadPayload, sess.ClientReferenceID)
	}

	we := &WebhookEvent{
		Type:             eventType,
		ProviderTxnID:    sess.ID,
		PaymentReference: reference,
		Amount:           sess.AmountTotal,
		Currency:         string(sess.Currency),
		Status:           string(sess.PaymentStatus),
		Raw:              rawBody,
	}
	if eventType == EventSuccess {
		paidAt := time.Unix(event.Created, 0).UTC()
		we.PaidAt = &paidAt
	}
	return we, nil
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeCard, stripe.ErrorTypeIdempotency:
			return fmt.Errorf("%w: %v", ErrGatewayRejected, err)
		}
		if stripeErr.HTTPStatusCode >= 500 || stripeErr.HTTPStatusCode == 429 {
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrGatewayRejected, err)
	}
	// Network errors, timeouts: the request may not have reached Stripe.
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}
