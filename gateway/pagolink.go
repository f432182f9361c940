package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// PagolinkGateway implements Gateway against a generic hosted-checkout JSON
// API. Webhooks are authenticated with an HMAC-SHA256 of the raw body,
// hex-encoded in the signature header.
type PagolinkGateway struct {
	client     *resty.Client
	webhookKey []byte
}

func NewPagolinkGateway(baseURL, apiKey, webhookKey string, timeout time.Duration) *PagolinkGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &PagolinkGateway{client: client, webhookKey: []byte(webhookKey)}
}

type pagolinkCheckoutRequest struct {
	Reference     string `json:"reference"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type pagolinkCheckoutResponse struct {
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
}

func (g *PagolinkGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	var out pagolinkCheckoutResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.PaymentReference.String()).
		SetBody(pagolinkCheckoutRequest{
			Reference:     req.PaymentReference.String(),
			Amount:        req.Amount,
			Currency:      req.Currency,
			Description:   req.Description,
			CustomerEmail: req.CustomerEmail,
		}).
		SetResult(&out).
		Post("/v1/checkout-links")
	if err != nil {
		// Transport-level failure: the provider may never have seen it.
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK || resp.StatusCode() == http.StatusCreated:
		if out.CheckoutURL == "" {
			return nil, fmt.Errorf("%w: empty checkout_url in response", ErrGatewayRejected)
		}
		return &CheckoutSession{CheckoutURL: out.CheckoutURL, ProviderTxnID: out.TransactionID}, nil
	case resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: provider returned %d", ErrGatewayUnavailable, resp.StatusCode())
	default:
		return nil, fmt.Errorf("%w: provider returned %d: %s", ErrGatewayRejected, resp.StatusCode(), resp.String())
	}
}

type pagolinkWebhookPayload struct {
	EventType        string  `json:"event_type"`
	TransactionID    string  `json:"transaction_id"`
	PaymentReference string  `json:"payment_reference"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	PaidAt           *string `json:"paid_at,omitempty"`
}

func (g *PagolinkGateway) ParseWebhook(rawBody []byte, signatureHeader string) (*WebhookEvent, error) {
	if !g.verifySignature(rawBody, signatureHeader) {
		return nil, ErrBadSignature
	}

	var payload pagolinkWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	switch payload.EventType {
	case EventSuccess, EventFailed, EventCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown event_type %q", ErrBadPayload, payload.EventType)
	}

	reference, err := uuid.Parse(payload.PaymentReference)
	if err != nil {
		return nil, fmt.Errorf("%w: bad payment_reference %q", ErrBadPayload, payload.PaymentReference)
	}

	we := &WebhookEvent{
		Type:             payload.EventType,
		ProviderTxnID:    payload.TransactionID,
		PaymentReference: reference,
		Amount:           payload.Amount,
		Currency:         payload.Currency,
		Status:           payload.Status,
		Raw:              rawBody,
	}
	if payload.PaidAt != nil {
		t, err := time.Parse(time.RFC3339, *payload.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("%w: bad paid_at %q", ErrBadPayload, *payload.PaidAt)
		}
		we.PaidAt = &t
	}
	return we, nil
}

func (g *PagolinkGateway) verifySignature(rawBody []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}
	mac := hmac.New(sha256.New, g.webhookKey)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
