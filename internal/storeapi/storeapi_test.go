package storeapi

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/app"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*notify.Message
}

func (f *fakeSender) Send(_ context.Context, msg *notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
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
}

func setup(t *testing.T, shippingURL string) *testEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "store.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := *config.DefaultAppConfig
	cfg.Shipping = config.ShippingConfig{BaseURL: shippingURL, APIKey: "sk_test", Timeout: 2, Attempts: 1}
	a := app.NewApplication(&cfg)
	a.OverrideDB(db)
	sender := &fakeSender{}
	a.OverrideMailSender(sender)
	require.NoError(t, a.MigrateDB(false))
	a.Seed()
	require.NoError(t, a.InitServices())
	t.Cleanup(a.Release)

	Init()
	return &testEnv{app: a, echo: webserver.New(a).Echo(), db: db, sender: sender}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedProduct(t *testing.T, p *domain.Product) *domain.Product {
	t.Helper()
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) stock(t *testing.T, productID int64, color, size string) int {
	t.Helper()
	var v domain.Variant
	require.NoError(t, e.db.Where("product_id = ? AND color = ? AND size = ?", productID, color, size).First(&v).Error)
	return v.Stock
}

