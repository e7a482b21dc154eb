package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPricesIn(t *testing.T) {
	p := Prices{NGN: Price("1000"), USD: Price("2.50")}

	v, ok := p.In(NGN)
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(1000)))

	v, ok = p.In(USD)
	assert.True(t, ok)
	assert.Equal(t, "2.5", v.String())

	_, ok = p.In(EUR)
	assert.False(t, ok)
}

func TestParseCurrency(t *testing.T) {
	c, ok := ParseCurrency(" gbp ")
	assert.True(t, ok)
	assert.Equal(t, GBP, c)

	_, ok = ParseCurrency("JPY")
	assert.False(t, ok)
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderProcessing.CanMoveTo(OrderShipped))
	assert.True(t, OrderShipped.CanMoveTo(OrderDelivered))
	assert.True(t, OrderProcessing.CanMoveTo(OrderCancelled))
	assert.False(t, OrderDelivered.CanMoveTo(OrderCancelled))
	assert.False(t, OrderProcessing.CanMoveTo(OrderDelivered))
}

func TestContactUpdatesSkipsEmailAndBlanks(t *testing.T) {
	u := ContactUpdates(ContactInfo{Email: "x@y.z", Phone: "0803", City: "  "})
	assert.Equal(t, map[string]interface{}{"phone": "0803"}, u)
}

func TestOrderRecipient(t *testing.T) {
	o := &Order{Guest: &ContactInfo{FirstName: "Ada", Email: "ada@example.com"}}
	assert.Equal(t, "ada@example.com", o.Recipient())
	assert.Equal(t, "Ada", o.BuyerName())

	o = &Order{Customer: &Customer{FirstName: "Tunde", LastName: "Ojo", Email: "t@example.com"}}
	assert.Equal(t, "t@example.com", o.Recipient())
	assert.Equal(t, "Tunde Ojo", o.BuyerName())

	assert.Empty(t, (&Order{}).Recipient())
}
