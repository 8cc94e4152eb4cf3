// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/shippingrate"
)

// PaymentGateway is the subset of the payment provider used by checkout and setup tooling.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	ListShippingRates(ctx context.Context) ([]ShippingRate, error)
	CreateShippingRate(ctx context.Context, req ShippingRateRequest) (*ShippingRate, error)
}

type CheckoutLineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64 // minor units
	Quantity    int64
}

type CheckoutSessionRequest struct {
	CustomerID       string
	Currency         string
	SuccessURL       string
	CancelURL        string
	LineItems        []CheckoutLineItem
	ShippingRateIDs  []string
	AllowedCountries []string
	Metadata         map[string]string
	IdempotencyKey   string
}

type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

type CustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type ShippingRate struct {
	ID          string
	DisplayName string
	Tier        ShippingTier
	Amount      int64
}

type ShippingRateRequest struct {
	Tier        ShippingTier
	DisplayName string
	Amount      int64
	Currency    string
	MinHours    int64
	MaxHours    int64
}

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeCustomerAPI interface {
	New(params *stripe.CustomerParams) (*stripe.Customer, error)
}

type stripeShippingRateAPI interface {
	New(params *stripe.ShippingRateParams) (*stripe.ShippingRate, error)
	List(params *stripe.ShippingRateListParams) *shippingrate.Iter
}

// StripeGateway implements PaymentGateway on top of the Stripe API client.
type StripeGateway struct {
	sessions      stripeSessionAPI
	customers     stripeCustomerAPI
	shippingRates stripeShippingRateAPI
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}

	sc := client.New(secretKey, nil)
	return &StripeGateway{
		sessions:      sc.CheckoutSessions,
		customers:     sc.Customers,
		shippingRates: sc.ShippingRates,
	}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}

	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	for _, rateID := range req.ShippingRateIDs {
		params.ShippingOptions = append(params.ShippingOptions, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRate: stripe.String(rateID),
		})
	}

	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}

	if len(req.Metadata) > 0 {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: make(map[string]string, len(req.Metadata)),
		}
		for k, v := range req.Metadata {
			params.AddMetadata(k, v)
			params.PaymentIntentData.Metadata[k] = v
		}
	}

	session, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	customer, err := g.customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return customer.ID, nil
}

// ListShippingRates returns active rates. The tier comes from the "type" metadata key.
func (g *StripeGateway) ListShippingRates(ctx context.Context) ([]ShippingRate, error) {
	params := &stripe.ShippingRateListParams{Active: stripe.Bool(true)}
	params.Context = ctx

	var rates []ShippingRate
	iter := g.shippingRates.List(params)
	for iter.Next() {
		rates = append(rates, fromStripeShippingRate(iter.ShippingRate()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list shipping rates: %w", err)
	}
	return rates, nil
}

func (g *StripeGateway) CreateShippingRate(ctx context.Context, req ShippingRateRequest) (*ShippingRate, error) {
	params := &stripe.ShippingRateParams{
		DisplayName: stripe.String(req.DisplayName),
		Type:        stripe.String("fixed_amount"),
		FixedAmount: &stripe.ShippingRateFixedAmountParams{
			Amount:   stripe.Int64(req.Amount),
			Currency: stripe.String(req.Currency),
		},
		TaxBehavior: stripe.String("exclusive"),
		DeliveryEstimate: &stripe.ShippingRateDeliveryEstimateParams{
			Minimum: &stripe.ShippingRateDeliveryEstimateMinimumParams{
				Unit:  stripe.String("hour"),
				Value: stripe.Int64(req.MinHours),
			},
			Maximum: &stripe.ShippingRateDeliveryEstimateMaximumParams{
				Unit:  stripe.String("hour"),
				Value: stripe.Int64(req.MaxHours),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(shippingRateTierKey, string(req.Tier))

	rate, err := g.shippingRates.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create shipping rate: %w", err)
	}

	result := fromStripeShippingRate(rate)
	return &result, nil
}

func fromStripeShippingRate(rate *stripe.ShippingRate) ShippingRate {
	result := ShippingRate{
		ID:          rate.ID,
		DisplayName: rate.DisplayName,
		Tier:        ShippingTier(rate.Metadata[shippingRateTierKey]),
	}
	if rate.FixedAmount != nil {
		result.Amount = rate.FixedAmount.Amount
	}
	return result
}
