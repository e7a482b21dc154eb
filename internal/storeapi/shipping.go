package storeapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/shipping"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func registerShippingRoutes() {
	webserver.PublicPOST("/store/shipping/rates", postShippingRates)
}

type ratesPayload struct {
	Receiver  shipping.Address       `json:"receiver"`
	Items     []shipping.PackageItem `json:"items" validate:"required,min=1,dive"`
	Dimension *shipping.Dimension    `json:"dimension"`
}

var defaultDimension = shipping.Dimension{Length: 30, Width: 25, Height: 10}

// postShippingRates validates the delivery address and returns courier
// quotes from the store's dispatch address.
func postShippingRates(c echo.Context) error {
	var payload ratesPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse shipping request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.ValidationFailed(c, err)
	}
	if strings.TrimSpace(payload.Receiver.Address) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_ADDRESS", "Delivery address is required", nil)
	}

	appCtx := webserver.GetAppContext(c)
	senderCode := appCtx.GetSettingsInt64Value("shipping", "sender_address_code")
	if senderCode == 0 {
		return fail(c, http.StatusServiceUnavailable, "SHIPPING_NOT_CONFIGURED", "Shipping quotes are not available", nil)
	}
	unitWeight, err := decimal.NewFromString(appCtx.GetSettingsStringValue("shipping", "unit_weight_kg"))
	if err != nil || !unitWeight.IsPositive() {
		unitWeight = decimal.RequireFromString("0.5")
	}
	for i := range payload.Items {
		if !payload.Items[i].UnitWeight.IsPositive() {
			payload.Items[i].UnitWeight = unitWeight
		}
		if payload.Items[i].Quantity <= 0 {
			payload.Items[i].Quantity = 1
		}
	}
	dim := defaultDimension
	if payload.Dimension != nil {
		dim = *payload.Dimension
	}

	ctx := c.Request().Context()
	client := appCtx.Shipping()
	receiver, err := client.ValidateAddress(ctx, payload.Receiver)
	if err != nil {
		return shippingFailed(c, err)
	}
	quote, err := client.FetchRates(ctx, shipping.RateRequest{
		SenderCode:   senderCode,
		ReceiverCode: receiver.AddressCode,
		CategoryID:   appCtx.GetSettingsInt64Value("shipping", "category_id"),
		Items:        payload.Items,
		Dimension:    dim,
	})
	if err != nil {
		return shippingFailed(c, err)
	}
	return ok(c, map[string]interface{}{
		"address":  receiver,
		"quote":    quote,
		"cheapest": quote.Cheapest(),
	})
}

func shippingFailed(c echo.Context, err error) error {
	if errors.Is(err, shipping.ErrRejected) {
		return fail(c, http.StatusBadRequest, "SHIPPING_REJECTED", err.Error(), nil)
	}
	zap.L().Warn("shipping quote failed", zap.String("namespace", "shipping"), zap.Error(err))
	return fail(c, http.StatusBadGateway, "SHIPPING_UNAVAILABLE", "Shipping provider unavailable, try again later", nil)
}
