package controllers

import (
	"io"
	"net/http"

	"billing-service/services"

	"github.com/gin-gonic/gin"
)

// Signature header names per provider.
const (
	stripeSignatureHeader   = "Stripe-Signature"
	pagolinkSignatureHeader = "X-Pagolink-Signature"
)

const maxWebhookBodyBytes = 1 << 16

// WebhookController receives payment gateway callbacks. The route is not
// behind the identity middleware; the webhook signature is the credential.
type WebhookController struct {
	webhookService services.WebhookService
}

func NewWebhookController(webhookService services.WebhookService) *WebhookController {
	return &WebhookController{webhookService: webhookService}
}

// HandlePaymentWebhook handles POST /webhooks/payment.
func (wc *WebhookController) HandlePaymentWebhook(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := ctx.GetHeader(stripeSignatureHeader)
	if signature == "" {
		signature = ctx.GetHeader(pagolinkSignatureHeader)
	}

	if svcErr := wc.webhookService.ProcessWebhook(ctx.Request.Context(), body, signature); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message, "code": svcErr.Code})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
