package repository

import (
	"context"
	"time"

	"billing-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	// FindActiveByUser returns the newest unused, unexpired coupon for a
	// user, or gorm.ErrRecordNotFound.
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Coupon, error)
	// MarkUsedIfActive flips used=true and records the redeeming order, but
	// only if the coupon is still unused and unexpired. Returns false when
	// the coupon had already been consumed or had expired.
	MarkUsedIfActive(ctx context.Context, couponID, orderID uuid.UUID, now time.Time) (bool, error)
	// Release returns a coupon to circulation after the order that consumed
	// it failed to materialize. Guarded on the consuming order id so a coupon
	// redeemed elsewhere in the meantime is left alone.
	Release(ctx context.Context, couponID, orderID uuid.UUID) error
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *GormCouponRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND used = ? AND expires_at > ?", userID, false, now).
		Order("created_at DESC").
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) MarkUsedIfActive(ctx context.Context, couponID, orderID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND used = ? AND expires_at > ?", couponID, false, now).
		Updates(map[string]interface{}{
			"used":              true,
			"redeemed_order_id": orderID,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormCouponRepository) Release(ctx context.Context, couponID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND used = ? AND redeemed_order_id = ?", couponID, true, orderID).
		Updates(map[string]interface{}{
			"used":              false,
			"redeemed_order_id": nil,
			"updated_at":        time.Now(),
		}).Error
}
