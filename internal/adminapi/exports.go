package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
)

const maxExportRows = 10000

func registerExportRoutes() {
	webserver.ApiGET("/orders/export", exportOrders, webserver.RequireLevel(domain.StaffSuper, domain.StaffManager))
}

type orderRow struct {
	OrderID       string `csv:"order_id"`
	CreatedAt     string `csv:"created_at"`
	Status        string `csv:"status"`
	Channel       string `csv:"channel"`
	Customer      string `csv:"customer"`
	Email         string `csv:"email"`
	Currency      string `csv:"currency"`
	Total         string `csv:"total"`
	TotalNGN      int64  `csv:"total_ngn"`
	DeliveryFee   string `csv:"delivery_fee"`
	PaymentMethod string `csv:"payment_method"`
	Items         int    `csv:"items"`
}

var orderColumns = []string{
	"Order ID", "Created At", "Status", "Channel", "Customer", "Email",
	"Currency", "Total", "Total (NGN)", "Delivery Fee", "Payment Method", "Items",
}

func (r orderRow) values() []interface{} {
	return []interface{}{
		r.OrderID, r.CreatedAt, r.Status, r.Channel, r.Customer, r.Email,
		r.Currency, r.Total, r.TotalNGN, r.DeliveryFee, r.PaymentMethod, r.Items,
	}
}

func toOrderRows(orders []domain.Order) []*orderRow {
	rows := make([]*orderRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		qty := 0
		for _, it := range o.Items {
			qty += it.Quantity
		}
		rows = append(rows, &orderRow{
			OrderID:       o.ID,
			CreatedAt:     o.CreatedAt.Format("2006-01-02 15:04:05"),
			Status:        string(o.Status),
			Channel:       string(o.Channel),
			Customer:      o.BuyerName(),
			Email:         o.Recipient(),
			Currency:      string(o.Currency),
			Total:         o.TotalAmount.StringFixed(2),
			TotalNGN:      o.TotalNGN,
			DeliveryFee:   o.DeliveryFee.StringFixed(2),
			PaymentMethod: o.PaymentMethod,
			Items:         qty,
		})
	}
	return rows
}

// columnName converts a zero based index to a spreadsheet column (A, B, ... AA).
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

func writeOrdersXLSX(rows []*orderRow) (*bytes.Buffer, error) {
	const sheet = "Sheet1"
	f := excelize.NewFile()
	for i, title := range orderColumns {
		f.SetCellValue(sheet, columnName(i)+"1", title)
	}
	for r, row := range rows {
		for i, v := range row.values() {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", columnName(i), r+2), v)
		}
	}
	f.SetSheetName(sheet, "Orders")
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func exportOrders(c echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return fail(c, http.StatusBadRequest, "INVALID_FORMAT", "Format must be csv or xlsx", nil)
	}
	query, err := orderQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	}

	var orders []domain.Order
	if err := query.Preload("Items").Preload("Customer").Order("created_at DESC").Limit(maxExportRows).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	rows := toOrderRows(orders)
	filename := fmt.Sprintf("orders-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	writeAudit(c, "order.export", fmt.Sprintf("%s %d rows", format, len(rows)))

	if format == "xlsx" {
		buf, err := writeOrdersXLSX(rows)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build spreadsheet", err.Error())
		}
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}

	content, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build csv", err.Error())
	}
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", content)
}
