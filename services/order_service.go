package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"billing-service/gateway"
	"billing-service/kafka"
	"billing-service/models"
	"billing-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// PendingOrderTTL is how long an order may sit pending before the sweep
	// cancels it.
	PendingOrderTTL = 7 * 24 * time.Hour

	// Settlement tolerates a one-minor-unit difference between the order
	// total and the amount the gateway reports (provider-side rounding).
	amountTolerance = 1

	sweepBatchSize = 500
)

// OrderService owns the order lifecycle: creation with checkout link,
// cancellation, settlement and expiry. All transitions out of pending go
// through the repository's conditional update, so concurrent actors cannot
// double-resolve an order.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, userEmail string, req *models.CreateOrderRequest) (*models.CheckoutResponse, *ServiceError)
	GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, *ServiceError)
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError)
	CancelOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID, reason string) (*models.Order, *ServiceError)
	// ApplySettlement moves a pending order to completed. It is safe to call
	// any number of times for the same order; settledNow is true only for the
	// call that performed the transition.
	ApplySettlement(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (settledNow bool, serr *ServiceError)
	// ApplyGatewayFailure cancels a still-pending order after the gateway
	// reported the payment failed or the checkout was abandoned. Returns
	// false when the order had already been resolved.
	ApplyGatewayFailure(ctx context.Context, orderID uuid.UUID, reason string) (bool, *ServiceError)
	// ExpireStale cancels pending orders older than PendingOrderTTL and
	// returns how many it cancelled.
	ExpireStale(ctx context.Context) (int, *ServiceError)
}

type orderServiceImpl struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	audits   repository.AuditRepository
	catalog  CatalogClient
	coupons  CouponService
	gw       gateway.Gateway
	events   kafka.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	audits repository.AuditRepository,
	catalog CatalogClient,
	coupons CouponService,
	gw gateway.Gateway,
	events kafka.EventPublisher,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orders:   orders,
		payments: payments,
		audits:   audits,
		catalog:  catalog,
		coupons:  coupons,
		gw:       gw,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID uuid.UUID, userEmail string, req *models.CreateOrderRequest) (*models.CheckoutResponse, *ServiceError) {
	if req.Hours < 1 {
		return nil, ErrInvalidArgument("hours must be at least 1")
	}

	svc, err := s.catalog.FetchService(ctx, req.ServiceID)
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return nil, se
		}
		s.logger.Error("catalog lookup failed", zap.String("service_id", req.ServiceID.String()), zap.Error(err))
		return nil, ErrInternal("failed to resolve service price")
	}
	if !svc.Active {
		return nil, ErrInvalidArgument("service is not available for purchase")
	}
	if svc.HourlyRate <= 0 {
		return nil, ErrInvalidArgument("service has no valid price")
	}

	vatRate := DefaultVATRate
	if svc.VATRate != nil {
		vatRate = *svc.VATRate
	}

	orderID := uuid.New()
	gross := svc.HourlyRate * int64(req.Hours)
	couponID, discount := s.applyCouponDiscount(ctx, userID, orderID, gross)

	// VAT is charged on the discounted net, so the stored invariant
	// total = subtotal + vat survives coupon application.
	subtotal := gross - discount
	vatAmount := int64(math.Round(float64(subtotal) * vatRate))
	total := subtotal + vatAmount

	serviceID := req.ServiceID
	order := &models.Order{
		ID:          orderID,
		UserID:      userID,
		ServiceID:   &serviceID,
		Hours:       req.Hours,
		Subtotal:    subtotal,
		CouponID:    couponID,
		Discount:    discount,
		VATAmount:   vatAmount,
		TotalAmount: total,
		Currency:    svc.Currency,
		Status:      models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order", zap.Error(err))
		return nil, ErrInternal("failed to create order")
	}

	payment := &models.Payment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		UserID:           userID,
		PaymentReference: uuid.New(),
		Amount:           total,
		Currency:         svc.Currency,
		Status:           models.PaymentStatusInitiated,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error("failed to create payment record", zap.String("order_id", order.ID.String()), zap.Error(err))
		// Without a payment reference no webhook can ever settle this order,
		// so it is cancelled rather than left pending for the sweep to find.
		s.compensateFailedCheckout(ctx, order, "payment record creation failed", err)
		return nil, ErrInternal("failed to create payment record")
	}

	session, err := s.gw.CreateCheckout(ctx, gateway.CheckoutRequest{
		OrderID:          order.ID,
		PaymentReference: payment.PaymentReference,
		Amount:           total,
		Currency:         svc.Currency,
		Description:      fmt.Sprintf("%s (%d hours)", svc.Name, req.Hours),
		CustomerEmail:    userEmail,
	})
	if err != nil {
		// The order cannot be paid without a checkout link, so it is
		// cancelled rather than left pending for the sweep to find.
		s.compensateFailedCheckout(ctx, order, "checkout link creation failed", err)
		if errors.Is(err, gateway.ErrGatewayRejected) {
			return nil, ErrGatewayRejected("payment gateway rejected the checkout request")
		}
		return nil, ErrGatewayUnavailable("payment gateway is unavailable, try again later")
	}

	if err := s.payments.SetCheckoutDetails(ctx, payment.ID, session.CheckoutURL, session.ProviderTxnID); err != nil {
		s.logger.Error("failed to store checkout details",
			zap.String("payment_id", payment.ID.String()), zap.Error(err))
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("total_amount", total),
		zap.String("currency", svc.Currency))

	return &models.CheckoutResponse{
		OrderID:          order.ID,
		PaymentReference: payment.PaymentReference,
		CheckoutURL:      session.CheckoutURL,
		TotalAmount:      total,
		Currency:         svc.Currency,
	}, nil
}

// applyCouponDiscount redeems the user's active loyalty coupon against the
// order being created. Best-effort: any failure, or losing the redemption
// race, means full price rather than a blocked checkout.
func (s *orderServiceImpl) applyCouponDiscount(ctx context.Context, userID, orderID uuid.UUID, gross int64) (*uuid.UUID, int64) {
	coupon, serr := s.coupons.FetchActiveCoupon(ctx, userID)
	if serr != nil || coupon == nil {
		return nil, 0
	}

	redeemed, serr := s.coupons.RedeemCoupon(ctx, coupon.ID, orderID)
	if serr != nil || !redeemed {
		return nil, 0
	}

	discount := int64(math.Round(float64(gross) * coupon.DiscountPercent / 100))
	s.logger.Info("coupon redeemed",
		zap.String("coupon_id", coupon.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int64("discount", discount))
	couponID := coupon.ID
	return &couponID, discount
}

func (s *orderServiceImpl) compensateFailedCheckout(ctx context.Context, order *models.Order, note string, cause error) {
	won, err := s.orders.ConditionalTransition(ctx, order.ID, models.OrderStatusCancelled, note)
	if err != nil {
		s.logger.Error("failed to cancel order after checkout failure",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	if !won {
		return
	}
	s.audit(ctx, order.ID, "system", "cancel", models.OrderStatusPending, models.OrderStatusCancelled, cause.Error())

	// A coupon consumed by an order that never got a checkout link goes back
	// to the user.
	if order.CouponID != nil {
		if serr := s.coupons.ReleaseCoupon(ctx, *order.CouponID, order.ID); serr != nil {
			s.logger.Error("failed to release coupon after order compensation",
				zap.String("order_id", order.ID.String()),
				zap.String("coupon_id", order.CouponID.String()))
		}
	}
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("order not found")
		}
		return nil, ErrInternal("failed to fetch order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden("order belongs to another user")
	}
	return order, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, ErrInternal("failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID, reason string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("order not found")
		}
		return nil, ErrInternal("failed to fetch order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden("order belongs to another user")
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrInvalidState("only pending orders can be cancelled")
	}

	note := "cancelled by user"
	if reason != "" {
		note = "cancelled: " + reason
	}
	won, err := s.orders.ConditionalTransition(ctx, orderID, models.OrderStatusCancelled, note)
	if err != nil {
		return nil, ErrInternal("failed to cancel order")
	}
	if !won {
		// Lost against settlement or the sweep between the read and the
		// update.
		return nil, ErrInvalidState("order was already resolved")
	}

	actor := userID.String()
	if isAdmin {
		actor = "admin:" + userID.String()
	}
	s.audit(ctx, orderID, actor, "cancel", models.OrderStatusPending, models.OrderStatusCancelled, reason)
	s.publish(ctx, models.OrderEvent{
		Type:      models.EventOrderCancelled,
		OrderID:   orderID.String(),
		UserID:    order.UserID.String(),
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Status:    models.OrderStatusCancelled,
		Timestamp: s.now().UTC(),
	})

	order.Status = models.OrderStatusCancelled
	return order, nil
}

func (s *orderServiceImpl) ApplySettlement(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (bool, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound("order not found")
		}
		return false, ErrInternal("failed to fetch order")
	}

	switch order.Status {
	case models.OrderStatusCompleted:
		// Replay of an already-applied settlement.
		return false, nil
	case models.OrderStatusCancelled:
		s.logger.Warn("settlement received for cancelled order",
			zap.String("order_id", orderID.String()),
			zap.Int64("amount", amount))
		return false, nil
	}

	if currency != "" && currency != order.Currency {
		return false, ErrConflict(fmt.Sprintf("settlement currency %s does not match order currency %s", currency, order.Currency))
	}
	if diff := amount - order.TotalAmount; diff > amountTolerance || diff < -amountTolerance {
		return false, ErrConflict(fmt.Sprintf("settlement amount %d does not match order total %d", amount, order.TotalAmount))
	}

	won, err := s.orders.ConditionalTransition(ctx, orderID, models.OrderStatusCompleted, "settled by gateway webhook")
	if err != nil {
		return false, ErrInternal("failed to settle order")
	}
	if !won {
		// Re-read to tell a concurrent settlement from a concurrent cancel.
		current, err := s.orders.FindByID(ctx, orderID)
		if err == nil && current.Status == models.OrderStatusCancelled {
			s.logger.Warn("settlement lost race against cancellation",
				zap.String("order_id", orderID.String()))
		}
		return false, nil
	}

	// Paid is transient; the store moves straight to completed, but the
	// audit trail keeps both hops for timeline reconstruction.
	s.audit(ctx, orderID, models.ActorWebhook, "settle", models.OrderStatusPending, models.OrderStatusPaid, "")
	s.audit(ctx, orderID, models.ActorWebhook, "complete", models.OrderStatusPaid, models.OrderStatusCompleted, "")
	s.publish(ctx, models.OrderEvent{
		Type:      models.EventOrderSettled,
		OrderID:   orderID.String(),
		UserID:    order.UserID.String(),
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Status:    models.OrderStatusCompleted,
		Timestamp: s.now().UTC(),
	})

	s.logger.Info("order settled",
		zap.String("order_id", orderID.String()),
		zap.Int64("amount", order.TotalAmount))
	return true, nil
}

func (s *orderServiceImpl) ApplyGatewayFailure(ctx context.Context, orderID uuid.UUID, reason string) (bool, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound("order not found")
		}
		return false, ErrInternal("failed to fetch order")
	}
	if order.Status != models.OrderStatusPending {
		return false, nil
	}

	won, err := s.orders.ConditionalTransition(ctx, orderID, models.OrderStatusCancelled, "payment "+reason)
	if err != nil {
		return false, ErrInternal("failed to cancel order")
	}
	if !won {
		return false, nil
	}

	s.audit(ctx, orderID, models.ActorWebhook, "cancel", models.OrderStatusPending, models.OrderStatusCancelled, "payment "+reason)
	s.publish(ctx, models.OrderEvent{
		Type:      models.EventOrderCancelled,
		OrderID:   orderID.String(),
		UserID:    order.UserID.String(),
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Status:    models.OrderStatusCancelled,
		Timestamp: s.now().UTC(),
	})
	return true, nil
}

func (s *orderServiceImpl) ExpireStale(ctx context.Context) (int, *ServiceError) {
	cutoff := s.now().Add(-PendingOrderTTL)
	stale, err := s.orders.FindStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, ErrInternal("failed to list stale orders")
	}

	cancelled := 0
	for _, order := range stale {
		won, err := s.orders.ConditionalTransition(ctx, order.ID, models.OrderStatusCancelled, "expired: pending longer than 7 days")
		if err != nil {
			s.logger.Error("failed to expire order",
				zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		if !won {
			// Settled or cancelled since the listing; nothing to do.
			continue
		}
		cancelled++
		s.audit(ctx, order.ID, models.ActorSweeper, "expire", models.OrderStatusPending, models.OrderStatusCancelled, "")
		s.publish(ctx, models.OrderEvent{
			Type:      models.EventOrderExpired,
			OrderID:   order.ID.String(),
			UserID:    order.UserID.String(),
			Amount:    order.TotalAmount,
			Currency:  order.Currency,
			Status:    models.OrderStatusCancelled,
			Timestamp: s.now().UTC(),
		})
	}

	if cancelled > 0 {
		s.logger.Info("expiry sweep finished",
			zap.Int("examined", len(stale)),
			zap.Int("cancelled", cancelled))
	}
	return cancelled, nil
}

// audit is best-effort: a failed audit write is logged, never surfaced.
func (s *orderServiceImpl) audit(ctx context.Context, orderID uuid.UUID, actor, action, from, to, note string) {
	entry := &models.AuditLog{
		OrderID:    orderID,
		Actor:      actor,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write audit entry",
			zap.String("order_id", orderID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *orderServiceImpl) publish(ctx context.Context, event models.OrderEvent) {
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
