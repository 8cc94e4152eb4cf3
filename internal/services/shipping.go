// internal/services/shipping.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
)

type ShippingTier string

const (
	ShippingTierStandard      ShippingTier = "standard"
	ShippingTierExpress       ShippingTier = "express"
	ShippingTierComplimentary ShippingTier = "complimentary"

	shippingRateTierKey = "type"
)

// ShippingRates maps each tier to the provider's shipping rate id. It is resolved once at
// startup and injected into checkout.
type ShippingRates struct {
	Standard      string `json:"standard"`
	Express       string `json:"express"`
	Complimentary string `json:"complimentary"`
}

func (r ShippingRates) Validate() error {
	var missing []ShippingTier
	if r.Standard == "" {
		missing = append(missing, ShippingTierStandard)
	}
	if r.Express == "" {
		missing = append(missing, ShippingTierExpress)
	}
	if r.Complimentary == "" {
		missing = append(missing, ShippingTierComplimentary)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrShippingRatesIncomplete, missing)
	}
	return nil
}

func (r ShippingRates) RateID(tier ShippingTier) string {
	switch tier {
	case ShippingTierStandard:
		return r.Standard
	case ShippingTierExpress:
		return r.Express
	case ShippingTierComplimentary:
		return r.Complimentary
	}
	return ""
}

func (r *ShippingRates) set(tier ShippingTier, id string) {
	switch tier {
	case ShippingTierStandard:
		r.Standard = id
	case ShippingTierExpress:
		r.Express = id
	case ShippingTierComplimentary:
		r.Complimentary = id
	}
}

// TiersForWeight lists the tiers offered for an order; complimentary comes first once the
// order reaches the weight threshold.
func TiersForWeight(totalWeight, threshold float64) []ShippingTier {
	tiers := []ShippingTier{ShippingTierStandard, ShippingTierExpress}
	if totalWeight >= threshold {
		tiers = append([]ShippingTier{ShippingTierComplimentary}, tiers...)
	}
	return tiers
}

// ResolveShippingRates prefers explicit configuration and falls back to the provider's active
// rates. Any tier left unresolved is an error.
func ResolveShippingRates(ctx context.Context, cfg config.PaymentConfig, gateway PaymentGateway) (ShippingRates, error) {
	rates := ShippingRates{
		Standard:      cfg.ShippingRateStandard,
		Express:       cfg.ShippingRateExpress,
		Complimentary: cfg.ShippingRateComplimentary,
	}
	if rates.Validate() == nil {
		return rates, nil
	}

	if gateway == nil {
		return rates, rates.Validate()
	}

	listed, err := gateway.ListShippingRates(ctx)
	if err != nil {
		return rates, fmt.Errorf("failed to list shipping rates: %w", err)
	}

	for _, rate := range listed {
		if rates.RateID(rate.Tier) != "" {
			continue
		}
		rates.set(rate.Tier, rate.ID)
	}

	if err := rates.Validate(); err != nil {
		return rates, err
	}

	logrus.WithFields(logrus.Fields{
		"standard":      rates.Standard,
		"express":       rates.Express,
		"complimentary": rates.Complimentary,
	}).Info("Shipping rates resolved")

	return rates, nil
}

// DefaultShippingRates are the tiers the storefront offers.
func DefaultShippingRates(currency string) []ShippingRateRequest {
	return []ShippingRateRequest{
		{Tier: ShippingTierExpress, DisplayName: "Express Delivery", Amount: 1199, Currency: currency, MinHours: 1, MaxHours: 2},
		{Tier: ShippingTierStandard, DisplayName: "Standard Delivery", Amount: 599, Currency: currency, MinHours: 2, MaxHours: 4},
		{Tier: ShippingTierComplimentary, DisplayName: "Complimentary Delivery", Amount: 0, Currency: currency, MinHours: 1, MaxHours: 4},
	}
}

// SetupShippingRates creates whichever default tiers the provider does not have yet.
func SetupShippingRates(ctx context.Context, gateway PaymentGateway, currency string) (ShippingRates, error) {
	var rates ShippingRates

	existing, err := gateway.ListShippingRates(ctx)
	if err != nil {
		return rates, fmt.Errorf("failed to list shipping rates: %w", err)
	}
	for _, rate := range existing {
		if rates.RateID(rate.Tier) == "" {
			rates.set(rate.Tier, rate.ID)
		}
	}

	for _, req := range DefaultShippingRates(currency) {
		if rates.RateID(req.Tier) != "" {
			continue
		}
		created, err := gateway.CreateShippingRate(ctx, req)
		if err != nil {
			return rates, fmt.Errorf("failed to create %s shipping rate: %w", req.Tier, err)
		}
		rates.set(req.Tier, created.ID)
		logrus.WithFields(logrus.Fields{"tier": req.Tier, "id": created.ID}).Info("Shipping rate created")
	}

	return rates, rates.Validate()
}
