package shipping

import (
	"github.com/shopspring/decimal"
)

// Address is a delivery or pickup contact sent for validation.
type Address struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ValidatedAddress is the provider's normalized form of an Address.
type ValidatedAddress struct {
	AddressCode      int64   `json:"address_code"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

type PackageItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitWeight  decimal.Decimal `json:"unit_weight"` // kg
	UnitAmount  decimal.Decimal `json:"unit_amount"`
	Quantity    int             `json:"quantity"`
}

type Dimension struct {
	Length int `json:"length"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RateRequest asks for courier quotes between two validated addresses.
type RateRequest struct {
	SenderCode   int64         `json:"sender_address_code"`
	ReceiverCode int64         `json:"reciever_address_code"`
	PickupDate   string        `json:"pickup_date"`
	CategoryID   int64         `json:"category_id"`
	Items        []PackageItem `json:"package_items"`
	Dimension    Dimension     `json:"package_dimension"`
}

type CourierRate struct {
	CourierID   string          `json:"courier_id"`
	CourierName string          `json:"courier_name"`
	ServiceCode string          `json:"service_code"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	DeliveryETA string          `json:"delivery_eta"`
}

type RateQuote struct {
	RequestToken string        `json:"request_token"`
	Couriers     []CourierRate `json:"couriers"`
}

// Cheapest returns the lowest priced courier, nil when there are none.
func (q *RateQuote) Cheapest() *CourierRate {
	var best *CourierRate
	for i := range q.Couriers {
		c := &q.Couriers[i]
		if best == nil || c.Total.LessThan(best.Total) {
			best = c
		}
	}
	return best
}

type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
