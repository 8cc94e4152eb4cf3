package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/config"
)

func TestTiersForWeight(t *testing.T) {
	assert.Equal(t, []ShippingTier{ShippingTierStandard, ShippingTierExpress}, TiersForWeight(19.99, 20))
	assert.Equal(t,
		[]ShippingTier{ShippingTierComplimentary, ShippingTierStandard, ShippingTierExpress},
		TiersForWeight(20, 20))
}

func TestResolveShippingRatesPrefersConfiguration(t *testing.T) {
	gateway := &fakeGateway{listErr: errors.New("must not be called")}
	rates, err := ResolveShippingRates(context.Background(), config.PaymentConfig{
		ShippingRateStandard:      "a",
		ShippingRateExpress:       "b",
		ShippingRateComplimentary: "c",
	}, gateway)
	require.NoError(t, err)
	assert.Equal(t, ShippingRates{Standard: "a", Express: "b", Complimentary: "c"}, rates)
}

func TestResolveShippingRatesFromProvider(t *testing.T) {
	gateway := &fakeGateway{rates: []ShippingRate{
		{ID: "shr_1", Tier: ShippingTierStandard},
		{ID: "shr_2", Tier: ShippingTierExpress},
		{ID: "shr_3", Tier: ShippingTierComplimentary},
		{ID: "shr_4", Tier: ShippingTierStandard},
		{ID: "shr_5", Tier: "legacy"},
	}}

	rates, err := ResolveShippingRates(context.Background(), config.PaymentConfig{ShippingRateExpress: "override"}, gateway)
	require.NoError(t, err)
	assert.Equal(t, "shr_1", rates.Standard)
	assert.Equal(t, "override", rates.Express)
	assert.Equal(t, "shr_3", rates.Complimentary)
}

func TestResolveShippingRatesIncomplete(t *testing.T) {
	gateway := &fakeGateway{rates: []ShippingRate{{ID: "shr_1", Tier: ShippingTierStandard}}}

	_, err := ResolveShippingRates(context.Background(), config.PaymentConfig{}, gateway)
	assert.ErrorIs(t, err, ErrShippingRatesIncomplete)

	_, err = ResolveShippingRates(context.Background(), config.PaymentConfig{}, nil)
	assert.ErrorIs(t, err, ErrShippingRatesIncomplete)
}

func TestSetupShippingRatesCreatesMissingTiers(t *testing.T) {
	gateway := &fakeGateway{rates: []ShippingRate{{ID: "shr_existing", Tier: ShippingTierExpress}}}

	rates, err := SetupShippingRates(context.Background(), gateway, "usd")
	require.NoError(t, err)
	assert.Equal(t, "shr_existing", rates.Express)
	assert.Equal(t, "shr_standard", rates.Standard)
	assert.Equal(t, "shr_complimentary", rates.Complimentary)

	require.Len(t, gateway.created, 2)
	for _, req := range gateway.created {
		assert.Equal(t, "usd", req.Currency)
		if req.Tier == ShippingTierComplimentary {
			assert.Zero(t, req.Amount)
		}
	}
}
