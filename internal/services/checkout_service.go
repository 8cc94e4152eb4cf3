// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

type CheckoutService struct {
	db      *gorm.DB
	gateway PaymentGateway
	rates   ShippingRates
	cfg     config.PaymentConfig
}

type CheckoutResponse struct {
	SessionID     string         `json:"session_id"`
	URL           string         `json:"url"`
	ShippingTiers []ShippingTier `json:"shipping_tiers"`
}

func NewCheckoutService(db *gorm.DB, gateway PaymentGateway, rates ShippingRates, cfg config.PaymentConfig) *CheckoutService {
	return &CheckoutService{
		db:      db,
		gateway: gateway,
		rates:   rates,
		cfg:     cfg,
	}
}

// InitiateCheckout opens a hosted checkout session for the user's cart. The cart keeps its
// status until the payment provider reports completion.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, userID uuid.UUID) (*CheckoutResponse, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var cart models.Order
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_items.created_at ASC")
	}).Preload("Items.Product", func(tx *gorm.DB) *gorm.DB {
		// Reserved stock is still sold if the product was since removed from the catalogue.
		return tx.Unscoped()
	}).Where("user_id = ? AND status = ?", userID, models.OrderStatusCart).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	totalWeight, err := TotalWeight(cart.Items)
	if err != nil {
		return nil, err
	}
	tiers := TiersForWeight(totalWeight, s.cfg.ComplimentaryShippingWeight)

	customerID, err := s.ensureCustomer(ctx, &user)
	if err != nil {
		return nil, err
	}

	req := CheckoutSessionRequest{
		CustomerID:       customerID,
		Currency:         s.cfg.Currency,
		SuccessURL:       s.cfg.SuccessURL,
		CancelURL:        s.cfg.CancelURL,
		AllowedCountries: s.cfg.AllowedCountries,
		Metadata: map[string]string{
			"order_id": cart.ID.String(),
			"user_id":  user.ID.String(),
		},
		// Same cart contents, same session.
		IdempotencyKey: fmt.Sprintf("checkout-%s-%d", cart.ID, cart.UpdatedAt.UnixNano()),
	}

	for _, item := range cart.Items {
		req.LineItems = append(req.LineItems, CheckoutLineItem{
			Name:        item.Product.Name,
			Description: item.Product.Description,
			ImageURL:    item.Product.ImageURL,
			UnitAmount:  ToMinorUnits(item.Product.Price),
			Quantity:    int64(item.Quantity),
		})
	}

	for _, tier := range tiers {
		req.ShippingRateIDs = append(req.ShippingRateIDs, s.rates.RateID(tier))
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrPaymentProvider, err)
	}

	// UpdateColumn keeps updated_at, which the idempotency key depends on.
	if err := db.Model(&cart).UpdateColumn("checkout_session_id", session.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     cart.ID,
		"session_id":   session.ID,
		"total_weight": totalWeight,
		"tiers":        tiers,
	}).Info("Checkout session created")

	return &CheckoutResponse{
		SessionID:     session.ID,
		URL:           session.URL,
		ShippingTiers: tiers,
	}, nil
}

// ensureCustomer returns the user's payment customer id, creating and storing it on first use.
func (s *CheckoutService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, CustomerRequest{
		Email:    user.Email,
		Name:     strings.TrimSpace(user.Firstname + " " + user.Lastname),
		Metadata: map[string]string{"user_id": user.ID.String()},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrPaymentProvider, err)
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.User{}).
		Where("id = ? AND (stripe_customer_id = '' OR stripe_customer_id IS NULL)", user.ID).
		UpdateColumn("stripe_customer_id", customerID)
	if res.Error != nil {
		return "", fmt.Errorf("failed to store payment customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent checkout stored one first.
		var stored models.User
		if err := db.Select("id", "stripe_customer_id").First(&stored, "id = ?", user.ID).Error; err != nil {
			return "", fmt.Errorf("failed to reload user: %w", err)
		}
		customerID = stored.StripeCustomerID
	}

	user.StripeCustomerID = customerID
	return customerID, nil
}

// TotalWeight reduces the cart to its shipping weight. An empty cart has no weight to ship.
func TotalWeight(items []models.OrderItem) (float64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyCart
	}

	var total float64
	for _, item := range items {
		if item.Product == nil {
			return 0, fmt.Errorf("cart item %s has no product loaded", item.ID)
		}
		total += item.Product.Weight * float64(item.Quantity)
	}
	return total, nil
}

// ToMinorUnits converts a decimal amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts cents to a decimal amount.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
