package adminapi

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	jsoniter "github.com/json-iterator/go"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	env := setup(t)
	p := env.seedProduct(t, "Kaftan", domain.Prices{NGN: domain.Price("1000")}, domain.Variant{Color: "Blue", Size: "L", Stock: 0})
	var v domain.Variant
	require.NoError(t, env.db.Where("product_id = ?", p.ID).First(&v).Error)
	env.seedOrder(t, "M-STATUS1", domain.OrderProcessing, 3000, time.Now(),
		domain.OrderItem{VariantID: v.ID, ProductID: p.ID, Name: "Kaftan", Quantity: 3, Currency: domain.NGN})

	rec := env.do(http.MethodPut, "/api/v1/admin/orders/M-STATUS1/status", `{"status":"Delivered"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/admin/orders/M-STATUS1/status", `{"status":"Shipped"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Shipped", jsoniter.Get(rec.Body.Bytes(), "data", "status").ToString())

	rec = env.do(http.MethodPut, "/api/v1/admin/orders/M-STATUS1/status", `{"status":"Cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// cancelling returns the quantities to stock
	require.NoError(t, env.db.First(&v, v.ID).Error)
	assert.Equal(t, 3, v.Stock)

	rec = env.do(http.MethodPut, "/api/v1/admin/orders/M-STATUS1/status", `{"status":"Processing"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/admin/orders/M-STATUS1/status", `{"status":"Lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/admin/orders/M-NOPE/status", `{"status":"Shipped"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersFilters(t *testing.T) {
	env := setup(t)
	env.seedOrder(t, "M-OLD0001", domain.OrderDelivered, 1000, time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local))
	env.seedOrder(t, "M-NEW0001", domain.OrderProcessing, 2000, time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local))
	env.seedOrder(t, "M-NEW0002", domain.OrderProcessing, 3000, time.Date(2024, 3, 6, 23, 0, 0, 0, time.Local))

	rec := env.do(http.MethodGet, "/api/v1/admin/orders?status=Processing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodGet, "/api/v1/admin/orders?from=2024-03-01&to=2024-03-06", "")
	assert.Equal(t, 2, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodGet, "/api/v1/admin/orders?from=March%205,%202024&to=2024-03-05", "")
	assert.Equal(t, 1, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodGet, "/api/v1/admin/orders?q=old0", "")
	assert.Equal(t, 1, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodGet, "/api/v1/admin/orders?from=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/admin/orders/M-NEW0002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", jsoniter.Get(rec.Body.Bytes(), "data", "guest", "email").ToString())
}

func TestExportOrders(t *testing.T) {
	env := setup(t)
	env.seedOrder(t, "M-EXP0001", domain.OrderProcessing, 4500, time.Now(),
		domain.OrderItem{Name: "Gele", Quantity: 2, Currency: domain.NGN})
	env.seedOrder(t, "M-EXP0002", domain.OrderShipped, 1500, time.Now())

	rec := env.do(http.MethodGet, "/api/v1/admin/orders/export?format=csv&status=Processing", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	var rows []*orderRow
	require.NoError(t, gocsv.UnmarshalBytes(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "M-EXP0001", rows[0].OrderID)
	assert.Equal(t, "Ada Obi", rows[0].Customer)
	assert.Equal(t, "4500.00", rows[0].Total)
	assert.Equal(t, 2, rows[0].Items)

	rec = env.do(http.MethodGet, "/api/v1/admin/orders/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Order ID", f.GetCellValue("Orders", "A1"))
	got := []string{f.GetCellValue("Orders", "A2"), f.GetCellValue("Orders", "A3")}
	assert.ElementsMatch(t, []string{"M-EXP0001", "M-EXP0002"}, got)

	rec = env.do(http.MethodGet, "/api/v1/admin/orders/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(0))
	assert.Equal(t, "L", columnName(11))
	assert.Equal(t, "Z", columnName(25))
	assert.Equal(t, "AA", columnName(26))
	assert.Equal(t, "AZ", columnName(51))
}

func TestSalesSummary(t *testing.T) {
	env := setup(t)
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	for i, total := range []int64{1000, 2000, 3000, 4000, 10000} {
		id := "M-SUM000" + string(rune('1'+i))
		env.seedOrder(t, id, domain.OrderProcessing, total, day,
			domain.OrderItem{ProductID: 11, Name: "Gele", Quantity: 1, Currency: domain.NGN})
	}
	env.seedOrder(t, "M-SUMCNCL", domain.OrderCancelled, 99999, day)

	rec := env.do(http.MethodGet, "/api/v1/admin/reports/sales?from=2024-05-01&to=2024-05-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.Bytes()
	assert.Equal(t, 5, jsoniter.Get(body, "data", "orders").ToInt())
	assert.Equal(t, int64(20000), jsoniter.Get(body, "data", "revenueNgn").ToInt64())
	assert.InDelta(t, 4000, jsoniter.Get(body, "data", "meanNgn").ToFloat64(), 0.001)
	assert.InDelta(t, 3000, jsoniter.Get(body, "data", "medianNgn").ToFloat64(), 0.001)
	assert.Equal(t, 5, jsoniter.Get(body, "data", "byChannel", "online").ToInt())
	assert.Equal(t, "NGN", jsoniter.Get(body, "data", "byCurrency", 0, "currency").ToString())
	assert.Equal(t, int64(5), jsoniter.Get(body, "data", "topProducts", 0, "quantity").ToInt64())

	rec = env.do(http.MethodGet, "/api/v1/admin/reports/sales?from=2030-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, jsoniter.Get(rec.Body.Bytes(), "data", "orders").ToInt())
}
