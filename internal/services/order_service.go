// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// OrderService serves order history and fulfillment. Carts are never returned here.
type OrderService struct {
	db *gorm.DB
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=ordered out_for_delivery shipped"`
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// ListPastOrders returns the user's non-cart orders, most recently updated first.
func (s *OrderService) ListPastOrders(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND status <> ?", userID, models.OrderStatusCart)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = query.Preload("Items").Preload("Items.Product").Order("updated_at DESC")
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// GetPastOrder returns one of the user's orders. Other users' orders and carts are not found.
func (s *OrderService) GetPastOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("id = ? AND user_id = ? AND status <> ?", orderID, userID, models.OrderStatusCart).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order", orderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// AdvanceStatus moves a placed order one step along its fulfillment sequence.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if err := utils.ValidateStruct(&UpdateOrderStatusRequest{Status: next}); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status <> ?", orderID, models.OrderStatusCart).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order", orderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if !order.Status.CanTransitionTo(next) {
			return &StatusTransitionError{From: string(order.Status), To: string(next)}
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status advanced")

	return &order, nil
}
