package checkout

import (
	"strings"
	"time"

	"github.com/nippysky/marobi/internal/domain"
	"github.com/shopspring/decimal"
)

// LineRequest asks for Quantity units of the variant matching ProductID,
// Color and Size. Color or Size set to "N/A" (or left empty) is not used
// to narrow the match.
type LineRequest struct {
	ProductID  int64           `json:"productId,string"`
	Color      string          `json:"color"`
	Size       string          `json:"size"`
	Quantity   int             `json:"quantity"`
	HasSizeMod bool            `json:"hasSizeMod"`
	SizeModFee decimal.Decimal `json:"sizeModFee"`
}

// Buyer is either a registered customer, optionally with updated contact
// details, or a guest described only by Contact.
type Buyer struct {
	CustomerID *int64
	Contact    *domain.ContactInfo
	// Verified is set when an authenticated caller vouches for the buyer
	// (staff logging a sale). Unverified contact changes need the
	// customer's own email.
	Verified bool
}

func (b Buyer) IsGuest() bool {
	return b.CustomerID == nil
}

type PlaceOrderRequest struct {
	Channel       domain.Channel
	Items         []LineRequest
	Buyer         Buyer
	Currency      domain.Currency
	PaymentMethod string
	// DeliveryFee is only accepted on online orders.
	DeliveryFee decimal.Decimal
	// CreatedAt defaults to the time of placement.
	CreatedAt time.Time
	StaffID   *int64
}

// Validate rejects malformed requests before a transaction is opened.
func (r *PlaceOrderRequest) Validate() error {
	if !r.Channel.Valid() {
		return invalid("unknown sales channel %q", r.Channel)
	}
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	for i, it := range r.Items {
		if it.ProductID == 0 {
			return invalid("item %d: product is required", i+1)
		}
		if it.Quantity <= 0 {
			return invalid("item %d: quantity must be positive", i+1)
		}
		if it.HasSizeMod && it.SizeModFee.IsNegative() {
			return invalid("item %d: size modification fee cannot be negative", i+1)
		}
	}
	if !r.Currency.Valid() {
		return invalid("unsupported currency %q", r.Currency)
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return invalid("payment method is required")
	}
	if r.DeliveryFee.IsNegative() {
		return invalid("delivery fee cannot be negative")
	}
	if r.Channel == domain.ChannelOffline && !r.DeliveryFee.IsZero() {
		return invalid("delivery fee only applies to online orders")
	}
	if r.Buyer.IsGuest() {
		c := r.Buyer.Contact
		if c == nil {
			return invalid("customer or guest details are required")
		}
		if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
			return invalid("guest first and last name are required")
		}
		if r.Channel == domain.ChannelOnline && strings.TrimSpace(c.Email) == "" {
			return invalid("email is required for online orders")
		}
	}
	return nil
}
