package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salePayload(productID int64, extra string) string {
	return fmt.Sprintf(`{"items":[{"productId":"%d","color":"Blue","size":"L","quantity":2}],
		"currency":"ngn","paymentMethod":"POS"%s}`, productID, extra)
}

func TestOfflineSale(t *testing.T) {
	env := setup(t)
	p := env.seedProduct(t, "Kaftan", domain.Prices{NGN: domain.Price("12000")},
		domain.Variant{Color: "Blue", Size: "L", Stock: 5})

	rec := env.do(http.MethodPost, "/api/v1/admin/sales", salePayload(p.ID,
		`,"customer":{"first_name":"Bisi","last_name":"Ade","email":"Bisi@Example.com"},"timestamp":"2024-02-14 15:30"`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := jsoniter.Get(rec.Body.Bytes(), "data", "orderId").ToString()
	assert.Equal(t, "bisi@example.com", jsoniter.Get(rec.Body.Bytes(), "data", "email").ToString())

	var admin domain.Staff
	require.NoError(t, env.db.Where("username = ?", "admin").First(&admin).Error)
	var o domain.Order
	require.NoError(t, env.db.First(&o, "id = ?", orderID).Error)
	assert.Equal(t, domain.ChannelOffline, o.Channel)
	require.NotNil(t, o.StaffID)
	assert.Equal(t, admin.ID, *o.StaffID)
	assert.Equal(t, "24000", o.TotalAmount.String())
	assert.Equal(t, 2024, o.CreatedAt.Year())
	assert.Equal(t, time.February, o.CreatedAt.Month())

	assert.Eventually(t, func() bool { return env.sender.count() == 1 }, 5*time.Second, 20*time.Millisecond)

	var audits int64
	env.db.Model(&domain.AuditLog{}).Where("opt_action = ?", "sale.offline").Count(&audits)
	assert.Equal(t, int64(1), audits)
}

func TestOfflineSaleWithoutEmail(t *testing.T) {
	env := setup(t)
	p := env.seedProduct(t, "Kaftan", domain.Prices{NGN: domain.Price("12000")},
		domain.Variant{Color: "Blue", Size: "L", Stock: 5})

	rec := env.do(http.MethodPost, "/api/v1/admin/sales", salePayload(p.ID,
		`,"customer":{"first_name":"Walk","last_name":"In"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, jsoniter.Get(rec.Body.Bytes(), "data", "email").ToString())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, env.sender.count())
}

func TestOfflineSaleRejected(t *testing.T) {
	env := setup(t)
	p := env.seedProduct(t, "Kaftan", domain.Prices{NGN: domain.Price("12000")},
		domain.Variant{Color: "Blue", Size: "L", Stock: 1})
	guest := `,"customer":{"first_name":"Walk","last_name":"In"}`

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad timestamp", salePayload(p.ID, guest+`,"timestamp":"someday"`), http.StatusBadRequest, "INVALID_TIMESTAMP"},
		{"future timestamp", salePayload(p.ID, guest+`,"timestamp":"2099-01-01"`), http.StatusBadRequest, "INVALID_TIMESTAMP"},
		{"no buyer", salePayload(p.ID, ""), http.StatusBadRequest, "INVALID_ORDER"},
		{"not enough stock", salePayload(p.ID, guest), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"missing payment", fmt.Sprintf(`{"items":[{"productId":"%d","quantity":1}],"currency":"NGN"}`, p.ID), http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/admin/sales", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, jsoniter.Get(rec.Body.Bytes(), "code").ToString())
		})
	}

	var count int64
	env.db.Model(&domain.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestResendReceipt(t *testing.T) {
	env := setup(t)
	env.seedOrder(t, "M-RCPT001", domain.OrderProcessing, 5000, time.Now(),
		domain.OrderItem{Name: "Gele", Quantity: 1, Currency: domain.NGN})
	noEmail := &domain.Order{
		ID: "M-RCPT002", Status: domain.OrderProcessing, Currency: domain.NGN,
		PaymentMethod: "Cash", Channel: domain.ChannelOffline,
		Guest: &domain.ContactInfo{FirstName: "Walk", LastName: "In"},
	}
	require.NoError(t, env.db.Create(noEmail).Error)

	rec := env.do(http.MethodPost, "/api/v1/admin/orders/M-RCPT001/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.sender.count())

	rec = env.do(http.MethodPost, "/api/v1/admin/orders/M-RCPT002/receipt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_RECIPIENT", jsoniter.Get(rec.Body.Bytes(), "code").ToString())

	rec = env.do(http.MethodPost, "/api/v1/admin/orders/M-MISSING/receipt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.sender.mu.Lock()
	env.sender.fail = errors.New("smtp unavailable")
	env.sender.mu.Unlock()
	rec = env.do(http.MethodPost, "/api/v1/admin/orders/M-RCPT001/receipt", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/admin/receipts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodGet, "/api/v1/admin/receipts?status="+domain.ReceiptFailed, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.Bytes()
	assert.Equal(t, 1, jsoniter.Get(body, "total").ToInt())
	assert.Equal(t, "smtp unavailable", jsoniter.Get(body, "data", 0, "error_msg").ToString())
}

func TestSettings(t *testing.T) {
	env := setup(t)

	rec := env.do(http.MethodGet, "/api/v1/admin/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, jsoniter.Get(rec.Body.Bytes(), "data").Size())

	rec = env.do(http.MethodPut, "/api/v1/admin/settings", `{"checkout.order_prefix":"MX-","notify.workers":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MX-", env.app.GetSettingsStringValue("checkout", "order_prefix"))
	assert.Equal(t, int64(4), env.app.GetSettingsInt64Value("notify", "workers"))

	rec = env.do(http.MethodPut, "/api/v1/admin/settings", `{"order_prefix":"MX-"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodPut, "/api/v1/admin/settings", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// clerks can sell but cannot change settings or read reports
	rec = env.do(http.MethodPost, "/api/v1/admin/staff",
		`{"username":"clerk1","password":"secret1","level":"clerk"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	clerk := env.login(t, "clerk1", "secret1")
	assert.Equal(t, http.StatusForbidden, env.doAs(clerk, http.MethodGet, "/api/v1/admin/settings", "").Code)
	assert.Equal(t, http.StatusForbidden, env.doAs(clerk, http.MethodGet, "/api/v1/admin/reports/sales", "").Code)
	assert.Equal(t, http.StatusForbidden, env.doAs(clerk, http.MethodGet, "/api/v1/admin/orders/export", "").Code)
	assert.Equal(t, http.StatusOK, env.doAs(clerk, http.MethodGet, "/api/v1/admin/orders", "").Code)
}
