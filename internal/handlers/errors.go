// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// notFoundKeys maps NotFoundError resources to their message keys.
var notFoundKeys = map[string]string{
	"user":      i18n.KeyUserNotFound,
	"category":  i18n.KeyCategoryNotFound,
	"product":   i18n.KeyProductNotFound,
	"cart item": i18n.KeyCartItemNotFound,
	"order":     i18n.KeyOrderNotFound,
}

// handleServiceError classifies err and writes the matching response.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErrs validator.ValidationErrors
	var stockErr *services.InsufficientStockError
	var notFoundErr *services.NotFoundError
	var transitionErr *services.StatusTransitionError

	switch {
	case errors.As(err, &validationErrs):
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))

	case errors.As(err, &stockErr):
		utils.ErrorResponse(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", i18n.T(lang, i18n.KeyCartInsufficientStock), gin.H{
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})

	case errors.As(err, &notFoundErr):
		key, ok := notFoundKeys[notFoundErr.Resource]
		if !ok {
			key = i18n.KeyError
		}
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, key), nil)

	case errors.As(err, &transitionErr):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_STATUS_TRANSITION",
			i18n.T(lang, i18n.KeyOrderInvalidStatusTransition, transitionErr.From, transitionErr.To), nil)

	case errors.Is(err, services.ErrEmptyCart):
		utils.ErrorResponse(c, http.StatusBadRequest, "EMPTY_CART", i18n.T(lang, i18n.KeyCartEmpty), nil)

	case errors.Is(err, services.ErrInvalidQuantity):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUANTITY", i18n.T(lang, i18n.KeyCartInvalidQuantity), nil)

	case errors.Is(err, services.ErrSignatureInvalid):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_SIGNATURE", i18n.T(lang, i18n.KeyWebhookInvalidSignature), nil)

	case errors.Is(err, services.ErrInvalidWebhookPayload):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", i18n.T(lang, i18n.KeyWebhookInvalidPayload), nil)

	case errors.Is(err, services.ErrCategoryCycle):
		utils.ErrorResponse(c, http.StatusBadRequest, "CATEGORY_CYCLE", i18n.T(lang, i18n.KeyCategoryCycle), nil)

	case errors.Is(err, services.ErrSlugConflict):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeySlugConflict))

	case errors.Is(err, services.ErrEmailTaken):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))

	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))

	case errors.Is(err, services.ErrPaymentProvider):
		logrus.WithError(err).Error("Payment provider request failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR", i18n.T(lang, i18n.KeyPaymentProviderError), nil)

	case errors.Is(err, services.ErrUnsupportedUpload):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_FILE", i18n.T(lang, i18n.KeyUploadInvalidType), err.Error())

	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes the body into req, writing a 400 on malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}
