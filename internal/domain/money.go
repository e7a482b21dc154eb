package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code accepted at checkout.
type Currency string

const (
	NGN Currency = "NGN"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// ReferenceCurrency is the currency every order total is also reported in.
const ReferenceCurrency = NGN

var Currencies = []Currency{NGN, USD, EUR, GBP}

func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range Currencies {
		if v == c {
			return c, true
		}
	}
	return "", false
}

func (c Currency) Valid() bool {
	_, ok := ParseCurrency(string(c))
	return ok
}

// Prices carries the optional per-currency list prices of a product.
type Prices struct {
	NGN decimal.NullDecimal `gorm:"column:price_ngn;type:decimal(14,2)" json:"price_ngn"`
	USD decimal.NullDecimal `gorm:"column:price_usd;type:decimal(14,2)" json:"price_usd"`
	EUR decimal.NullDecimal `gorm:"column:price_eur;type:decimal(14,2)" json:"price_eur"`
	GBP decimal.NullDecimal `gorm:"column:price_gbp;type:decimal(14,2)" json:"price_gbp"`
}

// In returns the price for the currency; ok is false when no price is set.
func (p Prices) In(c Currency) (decimal.Decimal, bool) {
	var v decimal.NullDecimal
	switch c {
	case NGN:
		v = p.NGN
	case USD:
		v = p.USD
	case EUR:
		v = p.EUR
	case GBP:
		v = p.GBP
	}
	if !v.Valid {
		return decimal.Zero, false
	}
	return v.Decimal, true
}

// Price builds a set price value.
func Price(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}
