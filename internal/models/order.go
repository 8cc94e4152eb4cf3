// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order doubles as the shopping cart while Status is OrderStatusCart.
type Order struct {
	BaseModel
	UserID            uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status            OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'cart';index"`
	TransactionRef    *string     `json:"transaction_ref,omitempty" gorm:"size:255;uniqueIndex"`
	CheckoutSessionID string      `json:"checkout_session_id,omitempty" gorm:"size:255"`
	AmountTotal       float64     `json:"amount_total" gorm:"type:decimal(10,2);not null;default:0"`
	AmountSubtotal    float64     `json:"amount_subtotal" gorm:"type:decimal(10,2);not null;default:0"`
	AmountShipping    float64     `json:"amount_shipping" gorm:"type:decimal(10,2);not null;default:0"`
	AmountTax         float64     `json:"amount_tax" gorm:"type:decimal(10,2);not null;default:0"`
	Address           string      `json:"address" gorm:"size:512"`
	Latitude          *float64    `json:"latitude"`
	Longitude         *float64    `json:"longitude"`
	SettledAt         *time.Time  `json:"settled_at"`

	// Relationships
	User  *User       `json:"-" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

func (o *Order) IsCart() bool {
	return o.Status == OrderStatusCart
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_product;index"`
	Quantity  int       `json:"quantity" gorm:"not null;check:chk_order_items_quantity,quantity > 0"`

	// Relationships
	Order   *Order   `json:"-" gorm:"foreignKey:OrderID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// WebhookEvent records provider events that were applied, keyed by the provider's event id.
type WebhookEvent struct {
	BaseModel
	EventID     string     `json:"event_id" gorm:"size:255;uniqueIndex;not null"`
	Type        string     `json:"type" gorm:"size:100;not null"`
	OrderID     *uuid.UUID `json:"order_id" gorm:"type:uuid;index"`
	ProcessedAt time.Time  `json:"processed_at"`
}
