package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/webserver"
	"gorm.io/gorm"
)

func registerReceiptRoutes() {
	webserver.ApiGET("/receipts", listReceipts)
	webserver.ApiPOST("/orders/:id/receipt", resendReceipt)
}

func listReceipts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	repo := notify.NewGormReceiptRepository(GetDB(c))
	rows, total, err := repo.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("status")), page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query receipts", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

// resendReceipt sends the receipt again synchronously so the operator sees
// the outcome.
func resendReceipt(c echo.Context) error {
	orderID := c.Param("id")
	err := GetAppContext(c).Receipts().Resend(c.Request().Context(), orderID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	case errors.Is(err, notify.ErrNoRecipient):
		return fail(c, http.StatusBadRequest, "NO_RECIPIENT", "Order has no email address", nil)
	case err != nil:
		return fail(c, http.StatusBadGateway, "SEND_FAILED", "Failed to send receipt", err.Error())
	}
	writeAudit(c, "receipt.resend", orderID)
	return ok(c, map[string]interface{}{"orderId": orderID, "sent": true})
}
