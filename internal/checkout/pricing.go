package checkout

import (
	"github.com/nippysky/marobi/internal/domain"
	"github.com/shopspring/decimal"
)

// LineTotal is unit*qty plus the size modification fee charged per unit.
func LineTotal(unit decimal.Decimal, qty int, hasSizeMod bool, sizeModFee decimal.Decimal) decimal.Decimal {
	q := decimal.NewFromInt(int64(qty))
	total := unit.Mul(q)
	if hasSizeMod {
		total = total.Add(sizeModFee.Mul(q))
	}
	return total
}

func (s *Service) unitPrice(p *domain.Product, c domain.Currency) (decimal.Decimal, error) {
	if v, ok := p.Prices.In(c); ok {
		return v, nil
	}
	if s.opts.AllowZeroPrice {
		return decimal.Zero, nil
	}
	return decimal.Zero, &PriceError{ProductName: p.Name, Currency: c}
}

// referencePrice contributes nothing when the product has no NGN price.
func referencePrice(p *domain.Product) decimal.Decimal {
	v, _ := p.Prices.In(domain.ReferenceCurrency)
	return v
}
