package domain

import (
	"time"

	"github.com/nippysky/marobi/pkg/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
}

// CanMoveTo reports whether staff may move an order from s to next.
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	for _, v := range orderTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Channel records where an order was placed.
type Channel string

const (
	ChannelOnline  Channel = "online"
	ChannelOffline Channel = "offline"
)

func (c Channel) Valid() bool {
	return c == ChannelOnline || c == ChannelOffline
}

// ContactInfo is the customer contact bundle. Orders placed by guests keep
// a copy of it instead of a customer reference.
type ContactInfo struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

func (c ContactInfo) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Order struct {
	ID            string          `gorm:"primaryKey;size:32" json:"id"`
	Status        OrderStatus     `gorm:"size:20;index" json:"status"`
	Currency      Currency        `gorm:"size:3" json:"currency"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2)" json:"total_amount"`
	TotalNGN      int64           `gorm:"column:total_ngn" json:"total_ngn"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(14,2)" json:"delivery_fee"`
	PaymentMethod string          `gorm:"size:50" json:"payment_method"`
	Channel       Channel         `gorm:"size:10;index" json:"channel"`
	CustomerID    *int64          `gorm:"index" json:"customer_id,string,omitempty"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Guest         *ContactInfo    `gorm:"serializer:json;type:text" json:"guest,omitempty"`
	StaffID       *int64          `json:"staff_id,string,omitempty"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Recipient is the address a receipt goes to, empty when none is known.
func (o *Order) Recipient() string {
	if o.Customer != nil {
		return o.Customer.Email
	}
	if o.Guest != nil {
		return o.Guest.Email
	}
	return ""
}

// BuyerName is the display name of whoever placed the order.
func (o *Order) BuyerName() string {
	if o.Customer != nil {
		return o.Customer.Contact().FullName()
	}
	if o.Guest != nil {
		return o.Guest.FullName()
	}
	return ""
}

// OrderItem is a denormalized snapshot of a purchased variant.
type OrderItem struct {
	ID         int64           `gorm:"primaryKey" json:"id,string"`
	OrderID    string          `gorm:"size:32;index" json:"order_id"`
	VariantID  int64           `gorm:"index" json:"variant_id,string"`
	ProductID  int64           `gorm:"index" json:"product_id,string"`
	Name       string          `gorm:"size:200" json:"name"`
	Image      string          `gorm:"size:1024" json:"image"`
	Category   string          `gorm:"size:100" json:"category"`
	Color      string          `gorm:"size:50" json:"color"`
	Size       string          `gorm:"size:50" json:"size"`
	Quantity   int             `json:"quantity"`
	Currency   Currency        `gorm:"size:3" json:"currency"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(14,2)" json:"unit_price"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(14,2)" json:"line_total"`
	HasSizeMod bool            `json:"has_size_mod"`
	SizeModFee decimal.Decimal `gorm:"type:decimal(14,2)" json:"size_mod_fee"`
}

func (OrderItem) TableName() string {
	return "order_item"
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == 0 {
		i.ID = common.UUIDint64()
	}
	return nil
}
