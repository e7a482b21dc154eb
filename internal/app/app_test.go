package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/pkg/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu  sync.Mutex
	got []*notify.Message
}

func (r *recordingSender) Send(_ context.Context, msg *notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func newTestApp(t *testing.T) (*Application, *recordingSender) {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.Database = config.DBConfig{Type: "sqlite", Name: filepath.Join(t.TempDir(), "app.db")}
	db, err := getDatabase(cfg.Database, t.TempDir())
	require.NoError(t, err)

	a := NewApplication(&cfg)
	a.OverrideDB(db)
	sender := &recordingSender{}
	a.OverrideMailSender(sender)
	require.NoError(t, a.MigrateDB(false))
	a.Seed()
	require.NoError(t, a.InitServices())
	t.Cleanup(a.Release)
	return a, sender
}

func TestSeedCreatesSuperAdminAndSettings(t *testing.T) {
	a, _ := newTestApp(t)

	var staff domain.Staff
	require.NoError(t, a.DB().Where("username = ?", superUsername).First(&staff).Error)
	assert.Equal(t, domain.StaffSuper, staff.Level)
	assert.True(t, common.CheckPassword(staff.Password, defaultPassword))

	assert.Equal(t, "M-", a.GetSettingsStringValue("checkout", "order_prefix"))
	assert.Equal(t, int64(3), a.GetSettingsInt64Value("notify", "max_retry"))
	assert.False(t, a.GetSettingsBoolValue("checkout", "allow_zero_price"))

	// seeding twice does not duplicate rows
	a.Seed()
	var count int64
	require.NoError(t, a.DB().Model(&domain.SysConfig{}).Where("type = ? AND name = ?", "checkout", "order_prefix").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSeedRepairsSuperAdmin(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.DB().Model(&domain.Staff{}).Where("username = ?", superUsername).
		Updates(map[string]interface{}{"level": domain.StaffClerk, "status": common.DISABLED}).Error)

	a.Seed()
	var staff domain.Staff
	require.NoError(t, a.DB().Where("username = ?", superUsername).First(&staff).Error)
	assert.Equal(t, domain.StaffSuper, staff.Level)
	assert.Equal(t, common.ENABLED, staff.Status)
}

func TestCheckoutOptionsFromSettings(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.SaveSettings(map[string]interface{}{
		"checkout.order_prefix":      "MRB-",
		"checkout.allow_zero_price":  true,
		"checkout.order_id_attempts": 9,
	}))
	require.NoError(t, a.InitServices())

	opts := a.Checkout().Options()
	assert.Equal(t, "MRB-", opts.OrderPrefix)
	assert.True(t, opts.AllowZeroPrice)
	assert.Equal(t, 9, opts.OrderIDAttempts)

	assert.Error(t, a.SaveSettings(map[string]interface{}{"nocategory": 1}))
}

func TestPublishOrderPlacedSendsReceipt(t *testing.T) {
	a, sender := newTestApp(t)
	p := &domain.Product{Name: "Gele", Prices: domain.Prices{NGN: domain.Price("15000")},
		Variants: []domain.Variant{{Color: "Gold", Stock: 3}}}
	require.NoError(t, a.DB().Create(p).Error)

	order, err := a.Checkout().PlaceOrder(context.Background(), checkout.PlaceOrderRequest{
		Channel:       domain.ChannelOnline,
		Items:         []checkout.LineRequest{{ProductID: p.ID, Color: "Gold", Quantity: 1}},
		Buyer:         checkout.Buyer{Contact: &domain.ContactInfo{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}},
		Currency:      domain.NGN,
		PaymentMethod: "Paystack",
		DeliveryFee:   decimal.NewFromInt(2500),
	})
	require.NoError(t, err)

	a.PublishOrderPlaced(order)
	require.Eventually(t, func() bool { return sender.count() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestSchedClearExpireData(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.DB().Create(&domain.AuditLog{OprName: "admin", OptAction: "old", OptTime: time.Now().AddDate(-2, 0, 0)}).Error)
	require.NoError(t, a.DB().Create(&domain.AuditLog{OprName: "admin", OptAction: "new", OptTime: time.Now()}).Error)

	a.SchedClearExpireData()

	var logs []domain.AuditLog
	require.NoError(t, a.DB().Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "new", logs[0].OptAction)
}

func TestGetDatabaseRejectsUnknownType(t *testing.T) {
	_, err := getDatabase(config.DBConfig{Type: "oracle"}, t.TempDir())
	assert.Error(t, err)
}
