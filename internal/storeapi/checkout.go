package storeapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func registerCheckoutRoutes() {
	webserver.PublicPOST("/store/checkout", postCheckout)
}

type checkoutPayload struct {
	Items         []checkout.LineRequest `json:"items"`
	CustomerID    string                 `json:"customerId"`
	Customer      *domain.ContactInfo    `json:"customer"`
	Currency      string                 `json:"currency" validate:"required"`
	PaymentMethod string                 `json:"paymentMethod" validate:"required"`
	DeliveryFee   decimal.Decimal        `json:"deliveryFee"`
}

type checkoutResponse struct {
	OrderID  string          `json:"orderId"`
	Email    string          `json:"email"`
	Total    decimal.Decimal `json:"total"`
	Currency domain.Currency `json:"currency"`
}

func postCheckout(c echo.Context) error {
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.ValidationFailed(c, err)
	}

	buyer, err := ResolveBuyer(payload.CustomerID, payload.Customer)
	if err != nil {
		return PlaceOrderFailed(c, err)
	}
	appCtx := webserver.GetAppContext(c)
	order, err := appCtx.Checkout().PlaceOrder(c.Request().Context(), checkout.PlaceOrderRequest{
		Channel:       domain.ChannelOnline,
		Items:         payload.Items,
		Buyer:         buyer,
		Currency:      NormalizeCurrency(payload.Currency),
		PaymentMethod: payload.PaymentMethod,
		DeliveryFee:   payload.DeliveryFee,
	})
	if err != nil {
		return PlaceOrderFailed(c, err)
	}

	appCtx.PublishOrderPlaced(order)

	return webserver.Created(c, checkoutResponse{
		OrderID:  order.ID,
		Email:    order.Recipient(),
		Total:    order.TotalAmount,
		Currency: order.Currency,
	})
}

// PlaceOrderFailed answers a PlaceOrder error. Internal causes are logged
// and replaced by a generic message.
func PlaceOrderFailed(c echo.Context, err error) error {
	status := checkout.StatusCode(err)
	switch {
	case status == http.StatusInternalServerError:
		zap.L().Error("place order failed",
			zap.String("namespace", "checkout"),
			zap.String("path", c.Path()),
			zap.Error(err))
		return fail(c, status, "INTERNAL_ERROR", "Failed to place order", nil)
	case errors.Is(err, checkout.ErrOrderIDExhausted):
		// nothing was written, the same request can be sent again
		c.Response().Header().Set("Retry-After", "1")
		return fail(c, status, "ORDER_ID_CONFLICT", "Could not allocate an order number, please retry", nil)
	case errors.Is(err, checkout.ErrInsufficientStock):
		return fail(c, status, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, checkout.ErrNotFound):
		return fail(c, status, "NOT_FOUND", err.Error(), nil)
	default:
		return fail(c, status, "INVALID_ORDER", err.Error(), nil)
	}
}

// NormalizeCurrency upper-cases known codes and passes anything else
// through for the order validation to reject.
func NormalizeCurrency(s string) domain.Currency {
	if c, ok := domain.ParseCurrency(s); ok {
		return c
	}
	return domain.Currency(s)
}
