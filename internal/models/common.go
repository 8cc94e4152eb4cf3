// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key client side so inserts behave the same on every dialect.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// SoftDeleteModel is used by catalogue and account rows; orders are never deleted.
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Enums
type OrderStatus string

const (
	OrderStatusCart           OrderStatus = "cart"
	OrderStatusOrdered        OrderStatus = "ordered"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusShipped        OrderStatus = "shipped"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusCart,
	OrderStatusOrdered,
	OrderStatusOutForDelivery,
	OrderStatusShipped,
}

func (s OrderStatus) rank() int {
	for i, status := range orderStatusSequence {
		if status == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

// Next returns the status that follows s, or false when s is terminal or unknown.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r+1 >= len(orderStatusSequence) {
		return "", false
	}
	return orderStatusSequence[r+1], true
}

// CanTransitionTo allows exactly one step forward.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	n, ok := s.Next()
	return ok && n == next
}
