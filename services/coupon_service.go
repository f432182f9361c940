package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"billing-service/kafka"
	"billing-service/models"
	"billing-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	loyaltyDiscountPercent = 5.0
	loyaltyCouponLifetime  = 3 * 30 * 24 * time.Hour
	loyaltyCodePrefix      = "LOYAL-"
)

// CouponService issues and redeems loyalty coupons. A settled order earns the
// user a coupon unless they already hold an active one. The check-then-insert
// is not serialized; two settlements racing for the same user can both pass
// the check and issue two coupons, which is accepted.
type CouponService interface {
	// IssueLoyaltyCoupon grants a coupon for a settled order. Returns nil
	// coupon (no error) when the user already holds an active one.
	IssueLoyaltyCoupon(ctx context.Context, userID, orderID uuid.UUID) (*models.Coupon, *ServiceError)
	FetchActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, *ServiceError)
	// RedeemCoupon consumes the coupon for an order if it is still active.
	// Returns false when the coupon was already used or expired.
	RedeemCoupon(ctx context.Context, couponID, orderID uuid.UUID) (bool, *ServiceError)
	// ReleaseCoupon hands a redeemed coupon back to the user after the order
	// that consumed it was cancelled before checkout completed. No-op unless
	// the coupon is still held by that order.
	ReleaseCoupon(ctx context.Context, couponID, orderID uuid.UUID) *ServiceError
}

type couponServiceImpl struct {
	coupons repository.CouponRepository
	events  kafka.EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository, events kafka.EventPublisher, logger *zap.Logger) CouponService {
	return &couponServiceImpl{
		coupons: coupons,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *couponServiceImpl) IssueLoyaltyCoupon(ctx context.Context, userID, orderID uuid.UUID) (*models.Coupon, *ServiceError) {
	now := s.now()

	existing, err := s.coupons.FindActiveByUser(ctx, userID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInternal("failed to check existing coupons")
	}
	if existing != nil {
		s.logger.Debug("user already holds an active coupon, skipping issuance",
			zap.String("user_id", userID.String()),
			zap.String("coupon_id", existing.ID.String()))
		return nil, nil
	}

	coupon := &models.Coupon{
		ID:              uuid.New(),
		UserID:          userID,
		Code:            generateLoyaltyCode(),
		DiscountPercent: loyaltyDiscountPercent,
		ExpiresAt:       now.Add(loyaltyCouponLifetime),
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, ErrInternal("failed to create coupon")
	}

	s.logger.Info("loyalty coupon issued",
		zap.String("user_id", userID.String()),
		zap.String("code", coupon.Code),
		zap.String("order_id", orderID.String()))

	if pubErr := s.events.PublishOrderEvent(ctx, models.OrderEvent{
		Type:      models.EventCouponIssued,
		OrderID:   orderID.String(),
		UserID:    userID.String(),
		Timestamp: now.UTC(),
	}); pubErr != nil {
		s.logger.Error("failed to publish coupon event", zap.Error(pubErr))
	}

	return coupon, nil
}

func (s *couponServiceImpl) FetchActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, *ServiceError) {
	coupon, err := s.coupons.FindActiveByUser(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("no active coupon")
		}
		return nil, ErrInternal("failed to fetch coupon")
	}
	return coupon, nil
}

func (s *couponServiceImpl) RedeemCoupon(ctx context.Context, couponID, orderID uuid.UUID) (bool, *ServiceError) {
	redeemed, err := s.coupons.MarkUsedIfActive(ctx, couponID, orderID, s.now())
	if err != nil {
		return false, ErrInternal("failed to redeem coupon")
	}
	return redeemed, nil
}

func (s *couponServiceImpl) ReleaseCoupon(ctx context.Context, couponID, orderID uuid.UUID) *ServiceError {
	if err := s.coupons.Release(ctx, couponID, orderID); err != nil {
		return ErrInternal("failed to release coupon")
	}
	s.logger.Info("coupon released",
		zap.String("coupon_id", couponID.String()),
		zap.String("order_id", orderID.String()))
	return nil
}

func generateLoyaltyCode() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12]
	return loyaltyCodePrefix + fragment
}
