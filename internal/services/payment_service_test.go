package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/shippingrate"
)

type recordingSessionAPI struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (a *recordingSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	a.params = params
	if a.err != nil {
		return nil, a.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

type recordingCustomerAPI struct {
	params *stripe.CustomerParams
}

func (a *recordingCustomerAPI) New(params *stripe.CustomerParams) (*stripe.Customer, error) {
	a.params = params
	return &stripe.Customer{ID: "cus_123"}, nil
}

type recordingShippingRateAPI struct {
	params *stripe.ShippingRateParams
}

func (a *recordingShippingRateAPI) New(params *stripe.ShippingRateParams) (*stripe.ShippingRate, error) {
	a.params = params
	return &stripe.ShippingRate{
		ID:          "shr_new",
		DisplayName: *params.DisplayName,
		FixedAmount: &stripe.ShippingRateFixedAmount{Amount: *params.FixedAmount.Amount},
		Metadata:    params.Metadata,
	}, nil
}

func (a *recordingShippingRateAPI) List(params *stripe.ShippingRateListParams) *shippingrate.Iter {
	panic("not used")
}

func TestStripeGatewayCheckoutSessionParams(t *testing.T) {
	sessions := &recordingSessionAPI{}
	gateway := &StripeGateway{sessions: sessions}
	ctx := context.Background()

	session, err := gateway.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		CustomerID: "cus_123",
		Currency:   "usd",
		SuccessURL: "http://localhost:3000/success",
		CancelURL:  "http://localhost:3000/cart",
		LineItems: []CheckoutLineItem{
			{Name: "Apples", Description: "Crisp", ImageURL: "http://cdn/apples.png", UnitAmount: 250, Quantity: 3},
			{Name: "Pears", UnitAmount: 199, Quantity: 1},
		},
		ShippingRateIDs:  []string{"shr_standard", "shr_express"},
		AllowedCountries: []string{"US", "CA"},
		Metadata:         map[string]string{"order_id": "0b6f9b1c-7d1e-4c55-9a55-3d8f4a1e2b11"},
		IdempotencyKey:   "checkout-0b6f9b1c",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)

	p := sessions.params
	require.NotNil(t, p)
	assert.Equal(t, ctx, p.Context)
	assert.Equal(t, "payment", stripe.StringValue(p.Mode))
	assert.Equal(t, "http://localhost:3000/success", stripe.StringValue(p.SuccessURL))
	assert.Equal(t, "http://localhost:3000/cart", stripe.StringValue(p.CancelURL))
	assert.Equal(t, "cus_123", stripe.StringValue(p.Customer))
	assert.Equal(t, "checkout-0b6f9b1c", stripe.StringValue(p.IdempotencyKey))

	// The webhook matches the session back to the cart through this key.
	assert.Equal(t, "0b6f9b1c-7d1e-4c55-9a55-3d8f4a1e2b11", p.Metadata["order_id"])
	require.NotNil(t, p.PaymentIntentData)
	assert.Equal(t, "0b6f9b1c-7d1e-4c55-9a55-3d8f4a1e2b11", p.PaymentIntentData.Metadata["order_id"])

	require.Len(t, p.LineItems, 2)
	apples := p.LineItems[0]
	assert.Equal(t, int64(3), stripe.Int64Value(apples.Quantity))
	require.NotNil(t, apples.PriceData)
	assert.Equal(t, "usd", stripe.StringValue(apples.PriceData.Currency))
	assert.Equal(t, int64(250), stripe.Int64Value(apples.PriceData.UnitAmount))
	require.NotNil(t, apples.PriceData.ProductData)
	assert.Equal(t, "Apples", stripe.StringValue(apples.PriceData.ProductData.Name))
	assert.Equal(t, "Crisp", stripe.StringValue(apples.PriceData.ProductData.Description))
	assert.Equal(t, []string{"http://cdn/apples.png"}, stringValues(apples.PriceData.ProductData.Images))

	pears := p.LineItems[1].PriceData.ProductData
	assert.Nil(t, pears.Description)
	assert.Empty(t, pears.Images)

	require.Len(t, p.ShippingOptions, 2)
	assert.Equal(t, "shr_standard", stripe.StringValue(p.ShippingOptions[0].ShippingRate))
	assert.Equal(t, "shr_express", stripe.StringValue(p.ShippingOptions[1].ShippingRate))

	require.NotNil(t, p.ShippingAddressCollection)
	assert.Equal(t, []string{"US", "CA"}, stringValues(p.ShippingAddressCollection.AllowedCountries))
}

func TestStripeGatewayCheckoutSessionWithoutOptionalFields(t *testing.T) {
	sessions := &recordingSessionAPI{}
	gateway := &StripeGateway{sessions: sessions}

	_, err := gateway.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{
		Currency:  "usd",
		LineItems: []CheckoutLineItem{{Name: "Apples", UnitAmount: 250, Quantity: 1}},
	})
	require.NoError(t, err)

	p := sessions.params
	assert.Nil(t, p.Customer)
	assert.Nil(t, p.IdempotencyKey)
	assert.Nil(t, p.PaymentIntentData)
	assert.Nil(t, p.ShippingAddressCollection)
	assert.Empty(t, p.Metadata)
}

func TestStripeGatewayCheckoutSessionError(t *testing.T) {
	providerErr := errors.New("card network unavailable")
	gateway := &StripeGateway{sessions: &recordingSessionAPI{err: providerErr}}

	_, err := gateway.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{Currency: "usd"})
	assert.ErrorIs(t, err, providerErr)
}

func TestStripeGatewayCreateCustomer(t *testing.T) {
	customers := &recordingCustomerAPI{}
	gateway := &StripeGateway{customers: customers}

	id, err := gateway.CreateCustomer(context.Background(), CustomerRequest{
		Email:    "morgan@example.com",
		Name:     "Morgan Lee",
		Metadata: map[string]string{"user_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
	assert.Equal(t, "morgan@example.com", stripe.StringValue(customers.params.Email))
	assert.Equal(t, "Morgan Lee", stripe.StringValue(customers.params.Name))
	assert.Equal(t, "42", customers.params.Metadata["user_id"])
}

func TestStripeGatewayCreateShippingRate(t *testing.T) {
	rates := &recordingShippingRateAPI{}
	gateway := &StripeGateway{shippingRates: rates}

	rate, err := gateway.CreateShippingRate(context.Background(), ShippingRateRequest{
		Tier:        ShippingTierExpress,
		DisplayName: "Express",
		Amount:      1500,
		Currency:    "usd",
		MinHours:    12,
		MaxHours:    24,
	})
	require.NoError(t, err)
	assert.Equal(t, ShippingRate{ID: "shr_new", DisplayName: "Express", Tier: ShippingTierExpress, Amount: 1500}, *rate)

	p := rates.params
	assert.Equal(t, "fixed_amount", stripe.StringValue(p.Type))
	assert.Equal(t, "usd", stripe.StringValue(p.FixedAmount.Currency))
	assert.Equal(t, int64(12), stripe.Int64Value(p.DeliveryEstimate.Minimum.Value))
	assert.Equal(t, int64(24), stripe.Int64Value(p.DeliveryEstimate.Maximum.Value))
	assert.Equal(t, "express", p.Metadata["type"])
}

func TestFromStripeShippingRate(t *testing.T) {
	tests := []struct {
		name string
		rate *stripe.ShippingRate
		want ShippingRate
	}{
		{
			name: "standard",
			rate: &stripe.ShippingRate{ID: "shr_1", DisplayName: "Standard", Metadata: map[string]string{"type": "standard"},
				FixedAmount: &stripe.ShippingRateFixedAmount{Amount: 500}},
			want: ShippingRate{ID: "shr_1", DisplayName: "Standard", Tier: ShippingTierStandard, Amount: 500},
		},
		{
			name: "express",
			rate: &stripe.ShippingRate{ID: "shr_2", DisplayName: "Express", Metadata: map[string]string{"type": "express"},
				FixedAmount: &stripe.ShippingRateFixedAmount{Amount: 1500}},
			want: ShippingRate{ID: "shr_2", DisplayName: "Express", Tier: ShippingTierExpress, Amount: 1500},
		},
		{
			name: "complimentary",
			rate: &stripe.ShippingRate{ID: "shr_3", DisplayName: "Free", Metadata: map[string]string{"type": "complimentary"},
				FixedAmount: &stripe.ShippingRateFixedAmount{Amount: 0}},
			want: ShippingRate{ID: "shr_3", DisplayName: "Free", Tier: ShippingTierComplimentary},
		},
		{
			name: "untagged rate without amount",
			rate: &stripe.ShippingRate{ID: "shr_4", DisplayName: "Legacy"},
			want: ShippingRate{ID: "shr_4", DisplayName: "Legacy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fromStripeShippingRate(tt.rate))
		})
	}
}

func stringValues(values []*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, stripe.StringValue(v))
	}
	return out
}
