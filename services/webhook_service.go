package services

import (
	"context"
	"errors"
	"time"

	"billing-service/gateway"
	"billing-service/kafka"
	"billing-service/models"
	"billing-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookService reconciles gateway callbacks against local state. The
// pipeline is verify, parse, mirror onto the payment row, then transition the
// order. A nil return means the event was fully absorbed and the provider
// should not redeliver it.
type WebhookService interface {
	ProcessWebhook(ctx context.Context, rawBody []byte, signatureHeader string) *ServiceError
}

type webhookServiceImpl struct {
	payments repository.PaymentRepository
	orders   OrderService
	coupons  CouponService
	gw       gateway.Gateway
	events   kafka.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewWebhookService(
	payments repository.PaymentRepository,
	orders OrderService,
	coupons CouponService,
	gw gateway.Gateway,
	events kafka.EventPublisher,
	logger *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		payments: payments,
		orders:   orders,
		coupons:  coupons,
		gw:       gw,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *webhookServiceImpl) ProcessWebhook(ctx context.Context, rawBody []byte, signatureHeader string) *ServiceError {
	event, err := s.gw.ParseWebhook(rawBody, signatureHeader)
	if err != nil {
		if errors.Is(err, gateway.ErrBadSignature) {
			s.logger.Warn("webhook signature verification failed")
			return ErrUnauthenticated("invalid webhook signature")
		}
		s.logger.Warn("webhook payload rejected", zap.Error(err))
		return ErrInvalidPayload("malformed webhook payload")
	}

	payment, err := s.payments.FindByReference(ctx, event.PaymentReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A reference we never issued. The provider is not asked to
			// retry; the anomaly is logged for investigation.
			s.logger.Warn("webhook for unknown payment reference",
				zap.String("payment_reference", event.PaymentReference.String()),
				zap.String("provider_txn_id", event.ProviderTxnID))
			return ErrNotFound("unknown payment reference")
		}
		return ErrInternal("failed to load payment")
	}

	// Event types outside the contract are rejected before anything is
	// written, so an invalid payload never mutates the payment row.
	paymentStatus, ok := paymentStatusFor(event.Type)
	if !ok {
		s.logger.Warn("webhook with unsupported event type",
			zap.String("event_type", event.Type),
			zap.String("payment_reference", event.PaymentReference.String()))
		return ErrInvalidPayload("unsupported event type")
	}

	if err := s.payments.MirrorGatewayStatus(ctx, payment.ID, paymentStatus, event.PaidAt, string(event.Raw)); err != nil {
		s.logger.Error("failed to mirror gateway status",
			zap.String("payment_id", payment.ID.String()), zap.Error(err))
		return ErrInternal("failed to record payment status")
	}

	if event.Type == gateway.EventSuccess {
		return s.handleSuccess(ctx, payment, event)
	}
	return s.handleFailure(ctx, payment, event, paymentStatus)
}

func (s *webhookServiceImpl) handleSuccess(ctx context.Context, payment *models.Payment, event *gateway.WebhookEvent) *ServiceError {
	settledNow, serr := s.orders.ApplySettlement(ctx, payment.OrderID, event.Amount, event.Currency)
	if serr != nil {
		return serr
	}
	if !settledNow {
		// Replay or late delivery; the payment row is already mirrored and
		// there is nothing left to do.
		return nil
	}

	s.publish(ctx, models.OrderEvent{
		Type:      models.EventPaymentSucceeded,
		OrderID:   payment.OrderID.String(),
		UserID:    payment.UserID.String(),
		Amount:    event.Amount,
		Currency:  event.Currency,
		Status:    models.PaymentStatusSucceeded,
		Timestamp: s.now().UTC(),
	})

	// The coupon is a reward, not part of the settlement: a failure here is
	// logged and the webhook still acknowledges.
	if _, cerr := s.coupons.IssueLoyaltyCoupon(ctx, payment.UserID, payment.OrderID); cerr != nil {
		s.logger.Error("failed to issue loyalty coupon",
			zap.String("order_id", payment.OrderID.String()),
			zap.Error(cerr))
	}
	return nil
}

func (s *webhookServiceImpl) handleFailure(ctx context.Context, payment *models.Payment, event *gateway.WebhookEvent, paymentStatus string) *ServiceError {
	reason := event.Type
	cancelledNow, serr := s.orders.ApplyGatewayFailure(ctx, payment.OrderID, reason)
	if serr != nil {
		return serr
	}
	if cancelledNow {
		s.publish(ctx, models.OrderEvent{
			Type:      models.EventPaymentFailed,
			OrderID:   payment.OrderID.String(),
			UserID:    payment.UserID.String(),
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Status:    paymentStatus,
			Timestamp: s.now().UTC(),
		})
	}
	return nil
}

func (s *webhookServiceImpl) publish(ctx context.Context, event models.OrderEvent) {
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish payment event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func paymentStatusFor(eventType string) (string, bool) {
	switch eventType {
	case gateway.EventSuccess:
		return models.PaymentStatusSucceeded, true
	case gateway.EventFailed:
		return models.PaymentStatusFailed, true
	case gateway.EventCancelled:
		return models.PaymentStatusCancelled, true
	}
	return "", false
}
