package checkout

import (
	"github.com/labstack/gommon/random"
)

const (
	DefaultOrderPrefix = "M-"
	OrderIDLength      = 7
)

// NewOrderID returns prefix followed by OrderIDLength characters drawn from [A-Z0-9].
func NewOrderID(prefix string) string {
	return prefix + random.String(OrderIDLength, random.Uppercase, random.Numeric)
}
