package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/storeapi"
	"github.com/nippysky/marobi/internal/webserver"
)

func registerSalesRoutes() {
	webserver.ApiPOST("/sales", createOfflineSale)
}

type offlineSalePayload struct {
	Items         []checkout.LineRequest `json:"items"`
	CustomerID    string                 `json:"customerId"`
	Customer      *domain.ContactInfo    `json:"customer"`
	Currency      string                 `json:"currency" validate:"required"`
	PaymentMethod string                 `json:"paymentMethod" validate:"required"`
	Timestamp     string                 `json:"timestamp"`
}

type offlineSaleResponse struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
}

// createOfflineSale logs an in-store sale through the same order placement
// path as online checkout, attributed to the signed-in staff member.
func createOfflineSale(c echo.Context) error {
	var payload offlineSalePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sale", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var createdAt time.Time
	if ts := strings.TrimSpace(payload.Timestamp); ts != "" {
		t, err := dateparse.ParseLocal(ts)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_TIMESTAMP", fmt.Sprintf("Unrecognized timestamp %q", ts), nil)
		}
		if t.After(time.Now().Add(time.Minute)) {
			return fail(c, http.StatusBadRequest, "INVALID_TIMESTAMP", "Sale time cannot be in the future", nil)
		}
		createdAt = t
	}

	buyer, err := storeapi.ResolveBuyer(payload.CustomerID, payload.Customer)
	if err != nil {
		return storeapi.PlaceOrderFailed(c, err)
	}
	// the signed-in staff member vouches for the buyer's contact details
	buyer.Verified = true
	appCtx := GetAppContext(c)
	order, err := appCtx.Checkout().PlaceOrder(c.Request().Context(), checkout.PlaceOrderRequest{
		Channel:       domain.ChannelOffline,
		Items:         payload.Items,
		Buyer:         buyer,
		Currency:      storeapi.NormalizeCurrency(payload.Currency),
		PaymentMethod: payload.PaymentMethod,
		CreatedAt:     createdAt,
		StaffID:       currentStaffID(c),
	})
	if err != nil {
		return storeapi.PlaceOrderFailed(c, err)
	}

	writeAudit(c, "sale.offline", fmt.Sprintf("%s %s %s", order.ID, order.Currency, order.TotalAmount.StringFixed(2)))
	email := order.Recipient()
	if email != "" {
		appCtx.PublishOrderPlaced(order)
	}
	return webserver.Created(c, offlineSaleResponse{OrderID: order.ID, Email: email})
}
