// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthEmployeeRequired   = "auth.employee_required"
	KeyAuthSuperuserRequired  = "auth.superuser_required"

	// Users
	KeyUserNotFound    = "user.not_found"
	KeyUserRoleUpdated = "user.role_updated"

	// Catalogue
	KeyCategoryNotFound = "category.not_found"
	KeyCategoryCreated  = "category.created"
	KeyCategoryUpdated  = "category.updated"
	KeyCategoryCycle    = "category.cycle"
	KeyProductNotFound  = "product.not_found"
	KeyProductCreated   = "product.created"
	KeyProductUpdated   = "product.updated"
	KeySlugConflict     = "catalog.slug_conflict"

	// Cart
	KeyCartInsufficientStock = "cart.insufficient_stock"
	KeyCartItemNotFound      = "cart_item.not_found"
	KeyCartItemDeleted       = "cart.item_deleted"
	KeyCartEmpty             = "cart.empty"
	KeyCartInvalidQuantity   = "cart.invalid_quantity"

	// Orders
	KeyOrderNotFound                = "order.not_found"
	KeyOrderInvalidStatusTransition = "order.invalid_status_transition"
	KeyOrderStatusUpdated           = "order.status_updated"

	// Webhooks
	KeyWebhookInvalidSignature = "webhook.invalid_signature"
	KeyWebhookInvalidPayload   = "webhook.invalid_payload"
	KeyWebhookReceived         = "webhook.received"

	// Payments
	KeyPaymentProviderError = "payment.provider_error"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyUploadSuccess     = "upload.success"
	KeyUploadFailed      = "upload.failed"
	KeyUploadInvalidType = "upload.invalid_type"

	// System
	KeyRateLimitExceeded = "rate_limit.exceeded"
	KeyInternalError     = "server.internal_error"
)
