// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidQuantity         = errors.New("quantity must be greater than zero")
	ErrSignatureInvalid        = errors.New("webhook signature is invalid")
	ErrInvalidWebhookPayload   = errors.New("webhook payload is invalid")
	ErrGeocodingDegraded       = errors.New("geocoding degraded")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrSlugConflict            = errors.New("slug already in use")
	ErrCategoryCycle           = errors.New("category parent chain forms a cycle")
	ErrShippingRatesIncomplete = errors.New("shipping rates are incomplete")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrEmailTaken              = errors.New("user with this email already exists")
	ErrPaymentProvider         = errors.New("payment provider request failed")
)

// NotFoundError names the resource that could not be found. It matches ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// InsufficientStockError is returned when a cart change would drive a product's quantity below zero.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StatusTransitionError carries the rejected transition. It matches ErrInvalidStatusTransition.
type StatusTransitionError struct {
	From string
	To   string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}
