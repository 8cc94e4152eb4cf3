// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/models"
)

// CartService keeps product stock and cart contents consistent. Every mutation runs in a
// single transaction covering the cart item and the product row.
type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreateCart returns the user's cart with items and products loaded.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var cart *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}
		cart, err = loadCart(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.OrderItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var item models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		if err := adjustStock(tx, productID, -quantity); err != nil {
			return err
		}

		if err := upsertCartItem(tx, cart.ID, productID, quantity); err != nil {
			return err
		}

		if err := touchCart(tx, cart.ID); err != nil {
			return err
		}

		return tx.Preload("Product").
			Where("order_id = ? AND product_id = ?", cart.ID, productID).
			First(&item).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Debug("Cart item added")

	return &item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, newQuantity int) (*models.OrderItem, error) {
	if newQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var item models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		if err := findCartItem(tx, cart.ID, itemID, &item); err != nil {
			return err
		}

		// Positive delta returns stock, negative takes more.
		if delta := item.Quantity - newQuantity; delta != 0 {
			if err := adjustStock(tx, item.ProductID, delta); err != nil {
				return err
			}
		}

		if err := tx.Model(&item).Update("quantity", newQuantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}

		if err := touchCart(tx, cart.ID); err != nil {
			return err
		}

		return tx.Preload("Product").First(&item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *CartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		var item models.OrderItem
		if err := findCartItem(tx, cart.ID, itemID, &item); err != nil {
			return err
		}

		if err := adjustStock(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}

		// Hard delete, so the (order, product) unique index is free for a later re-add.
		if err := tx.Unscoped().Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}

		return touchCart(tx, cart.ID)
	})
}

// upsertCartItem merges quantity into the cart's line for the product, or starts one.
// Concurrent adds for the same line meet on idx_order_items_order_product and sum.
func upsertCartItem(tx *gorm.DB, cartID, productID uuid.UUID, quantity int) error {
	item := models.OrderItem{OrderID: cartID, ProductID: productID, Quantity: quantity}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("order_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to merge cart item: %w", err)
	}
	return nil
}

// getOrCreateCart must run inside a transaction. Concurrent callers converge on one row
// through the one-cart-per-user partial unique index.
func getOrCreateCart(tx *gorm.DB, userID uuid.UUID) (*models.Order, error) {
	var cart models.Order
	err := tx.Where("user_id = ? AND status = ?", userID, models.OrderStatusCart).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	candidate := models.Order{UserID: userID, Status: models.OrderStatusCart}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	if err := tx.Where("user_id = ? AND status = ?", userID, models.OrderStatusCart).First(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

func loadCart(tx *gorm.DB, cartID uuid.UUID) (*models.Order, error) {
	var cart models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.created_at ASC")
	}).Preload("Items.Product").First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

func findCartItem(tx *gorm.DB, cartID, itemID uuid.UUID, item *models.OrderItem) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND order_id = ?", itemID, cartID).
		First(item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("cart item", itemID)
		}
		return fmt.Errorf("failed to load cart item: %w", err)
	}
	return nil
}

// adjustStock applies delta to a product's quantity only if the result stays non-negative.
// On PostgreSQL the UPDATE takes the row lock, serializing concurrent carts on the product.
func adjustStock(tx *gorm.DB, productID uuid.UUID, delta int) error {
	q := tx
	if delta > 0 {
		// Stock is returned even when the product was removed from the catalogue.
		q = tx.Unscoped().Session(&gorm.Session{})
	}

	res := q.Model(&models.Product{}).
		Where("id = ? AND quantity + ? >= 0", productID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust stock: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var product models.Product
	if err := q.Select("id", "quantity").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("product", productID)
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	return &InsufficientStockError{
		ProductID: productID,
		Requested: -delta,
		Available: product.Quantity,
	}
}

func touchCart(tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Model(&models.Order{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}
