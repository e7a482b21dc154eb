package checkout

import (
	"testing"

	"github.com/nippysky/marobi/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	d := decimal.RequireFromString
	assertMoney(t, "2000", LineTotal(d("1000"), 2, false, decimal.Zero))
	assertMoney(t, "2000", LineTotal(d("1000"), 2, false, d("50")))
	assertMoney(t, "2100", LineTotal(d("1000"), 2, true, d("50")))
	assertMoney(t, "0.3", LineTotal(d("0.1"), 3, false, decimal.Zero))
}

func TestUnitPrice(t *testing.T) {
	p := &domain.Product{Name: "Gele", Prices: domain.Prices{GBP: domain.Price("12.99")}}

	strict := NewService(nil, DefaultOptions())
	v, err := strict.unitPrice(p, domain.GBP)
	assert.NoError(t, err)
	assertMoney(t, "12.99", v)

	_, err = strict.unitPrice(p, domain.NGN)
	assert.ErrorIs(t, err, ErrValidation)

	lenient := NewService(nil, Options{AllowZeroPrice: true})
	v, err = lenient.unitPrice(p, domain.NGN)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())

	assert.True(t, referencePrice(p).IsZero())
}
