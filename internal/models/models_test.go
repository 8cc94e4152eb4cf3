package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusCart.CanTransitionTo(OrderStatusOrdered))
	assert.True(t, OrderStatusOrdered.CanTransitionTo(OrderStatusOutForDelivery))
	assert.True(t, OrderStatusOutForDelivery.CanTransitionTo(OrderStatusShipped))

	assert.False(t, OrderStatusCart.CanTransitionTo(OrderStatusShipped), "skipping a step")
	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusOrdered), "moving backwards")
	assert.False(t, OrderStatusOrdered.CanTransitionTo(OrderStatusOrdered))

	_, ok := OrderStatusShipped.Next()
	assert.False(t, ok)

	assert.False(t, OrderStatus("refunded").Valid())
	_, ok = OrderStatus("refunded").Next()
	assert.False(t, ok)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fresh-fruit", Slugify("Fresh Fruit"))
	assert.Equal(t, "cafe-au-lait", Slugify("Café  au Lait!"))
}

func TestAddressForms(t *testing.T) {
	a := Address{Line1: "1 Washington Sq", City: "San Jose", State: "CA", PostalCode: "95192", CountryCode: "US"}
	assert.Equal(t, "1 Washington Sq, San Jose", a.Short())
	assert.Equal(t, "1 Washington Sq, San Jose, CA, 95192, US", a.Long())

	a.Line2 = "Suite 5"
	assert.Equal(t, "1 Washington Sq Suite 5, San Jose", a.Short())
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("customer"))
	assert.NotEqual(t, "customer", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("customer"))
	assert.Error(t, u.CheckPassword("wrong"))
}

func TestUserIsStaff(t *testing.T) {
	assert.False(t, (&User{}).IsStaff())
	assert.True(t, (&User{IsEmployee: true}).IsStaff())
	assert.True(t, (&User{IsSuperuser: true}).IsStaff())
}

func TestBeforeCreateAssignsID(t *testing.T) {
	b := &BaseModel{}
	require.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)

	fixed := uuid.New()
	b = &BaseModel{ID: fixed}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, fixed, b.ID)
}

func TestJSONBRoundTrip(t *testing.T) {
	var j JSONB
	require.NoError(t, j.Scan([]byte(`{"quantity":3}`)))
	assert.Equal(t, float64(3), j["quantity"])

	require.NoError(t, j.Scan(`{"name":"x"}`))
	assert.Equal(t, "x", j["name"])

	v, err := JSONB(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
