package adminapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/app"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSender struct {
	mu   sync.Mutex
	fail error
	sent []*notify.Message
}

func (f *fakeSender) Send(_ context.Context, msg *notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testEnv struct {
	app    *app.Application
	echo   *echo.Echo
	db     *gorm.DB
	sender *fakeSender
	token  string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "admin.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := *config.DefaultAppConfig
	cfg.Web.Secret = "admin-test-secret"
	a := app.NewApplication(&cfg)
	a.OverrideDB(db)
	sender := &fakeSender{}
	a.OverrideMailSender(sender)
	require.NoError(t, a.MigrateDB(false))
	a.Seed()
	require.NoError(t, a.InitServices())
	t.Cleanup(a.Release)

	Init()
	env := &testEnv{app: a, echo: webserver.New(a).Echo(), db: db, sender: sender}
	env.token = env.login(t, "admin", "marobi")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.doAs("", http.MethodPost, "/api/v1/admin/login",
		`{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := jsoniter.Get(rec.Body.Bytes(), "data", "token").ToString()
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) doAs(token, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	return e.doAs(e.token, method, path, body)
}

func (e *testEnv) seedProduct(t *testing.T, name string, prices domain.Prices, variants ...domain.Variant) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Category: "Dresses", Prices: prices, Variants: variants}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedOrder(t *testing.T, id string, status domain.OrderStatus, totalNGN int64, createdAt time.Time, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	o := &domain.Order{
		ID:            id,
		Status:        status,
		Currency:      domain.NGN,
		TotalAmount:   decimal.NewFromInt(totalNGN),
		TotalNGN:      totalNGN,
		PaymentMethod: "Cash",
		Channel:       domain.ChannelOnline,
		Guest:         &domain.ContactInfo{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"},
		CreatedAt:     createdAt,
		Items:         items,
	}
	require.NoError(t, e.db.Create(o).Error)
	return o
}
