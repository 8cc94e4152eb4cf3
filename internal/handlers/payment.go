// internal/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// maxWebhookBodyBytes bounds provider notifications.
const maxWebhookBodyBytes = 65536

type PaymentHandler struct {
	webhookService *services.WebhookService
}

func NewPaymentHandler(webhookService *services.WebhookService) *PaymentHandler {
	return &PaymentHandler{
		webhookService: webhookService,
	}
}

// POST /webhook/
func (h *PaymentHandler) Webhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWebhookInvalidPayload), err.Error())
		return
	}

	result, err := h.webhookService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"event_id": result.EventID,
		"type":     result.EventType,
		"outcome":  result.Outcome,
	}).Info("Webhook processed")

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWebhookReceived),
		"result":  result,
	})
}
