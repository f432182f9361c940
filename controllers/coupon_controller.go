package controllers

import (
	"net/http"

	"billing-service/middleware"
	"billing-service/services"

	"github.com/gin-gonic/gin"
)

// CouponController handles HTTP requests for loyalty coupon operations.
type CouponController struct {
	couponService services.CouponService
}

func NewCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// GetActiveCoupon handles GET /coupons/active.
func (cc *CouponController) GetActiveCoupon(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	coupon, svcErr := cc.couponService.FetchActiveCoupon(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message, "code": svcErr.Code})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"coupon": coupon})
}
