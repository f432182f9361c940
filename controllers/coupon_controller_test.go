package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"billing-service/controllers"
	"billing-service/middleware"
	"billing-service/models"
	"billing-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type mockCouponService struct {
	fetchFn func(ctx context.Context, userID uuid.UUID) (*models.Coupon, *services.ServiceError)
}

func (m *mockCouponService) IssueLoyaltyCoupon(context.Context, uuid.UUID, uuid.UUID) (*models.Coupon, *services.ServiceError) {
	return nil, nil
}

func (m *mockCouponService) FetchActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, *services.ServiceError) {
	return m.fetchFn(ctx, userID)
}

func (m *mockCouponService) RedeemCoupon(context.Context, uuid.UUID, uuid.UUID) (bool, *services.ServiceError) {
	return false, nil
}

func (m *mockCouponService) ReleaseCoupon(context.Context, uuid.UUID, uuid.UUID) *services.ServiceError {
	return nil
}

func setupCouponRouter(svc services.CouponService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cc := controllers.NewCouponController(svc)
	coupons := r.Group("/coupons")
	coupons.Use(middleware.AuthMiddleware())
	coupons.GET("/active", cc.GetActiveCoupon)
	return r
}

func TestGetActiveCoupon_HTTP_Success(t *testing.T) {
	userID := uuid.New()
	svc := &mockCouponService{
		fetchFn: func(_ context.Context, gotUser uuid.UUID) (*models.Coupon, *services.ServiceError) {
			assert.Equal(t, userID, gotUser)
			return &models.Coupon{
				ID:              uuid.New(),
				UserID:          userID,
				Code:            "LOYAL-ABCDEF123456",
				DiscountPercent: 5,
				ExpiresAt:       time.Now().Add(24 * time.Hour),
			}, nil
		},
	}
	router := setupCouponRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/coupons/active", nil)
	req.Header.Set("X-User-ID", userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LOYAL-ABCDEF123456")
}

func TestGetActiveCoupon_HTTP_NotFound(t *testing.T) {
	svc := &mockCouponService{
		fetchFn: func(context.Context, uuid.UUID) (*models.Coupon, *services.ServiceError) {
			return nil, services.ErrNotFound("no active coupon")
		},
	}
	router := setupCouponRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/coupons/active", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetActiveCoupon_HTTP_Unauthorized(t *testing.T) {
	router := setupCouponRouter(&mockCouponService{})

	req := httptest.NewRequest(http.MethodGet, "/coupons/active", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
