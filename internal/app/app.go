package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/shipping"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	configManager *ConfigManager
	bus           EventBus.Bus
	checkout      *checkout.Service
	receipts      *notify.Dispatcher
	shipping      *shipping.Client
	mailSender    notify.Sender
}

// Ensure Application implements all interfaces
var (
	_ DBProvider            = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ ServiceProvider       = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideMailSender replaces the SMTP sender before InitServices (used in tests).
func (a *Application) OverrideMailSender(s notify.Sender) {
	a.mailSender = s
}

func (a *Application) Init(cfg *config.AppConfig) error {
	if err := a.Connect(cfg); err != nil {
		return err
	}

	// Ensure database schema is migrated before loading configs
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.Seed()
	if cfg.System.SeedDemo {
		a.checkDemoCatalog()
	}

	if err := a.InitServices(); err != nil {
		return err
	}
	a.initJob()
	return nil
}

// Connect sets the time zone and logger and opens the database. The migrate
// and initdb commands stop here.
func (a *Application) Connect(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg.Logger)

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB, err = getDatabase(cfg.Database, cfg.GetDataDir())
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
	return nil
}

func initLogger(cfg config.LogConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// InitServices builds the settings cache, the checkout service, the receipt
// dispatcher and the shipping client on top of an open database.
func (a *Application) InitServices() error {
	a.configManager = NewConfigManager(a.gormDB)

	opts := checkout.DefaultOptions()
	if err := a.configManager.Decode("checkout", &opts); err != nil {
		zap.L().Warn("invalid checkout settings, using defaults", zap.Error(err))
		opts = checkout.DefaultOptions()
	}
	a.checkout = checkout.NewService(a.gormDB, opts)

	if a.mailSender == nil {
		a.mailSender = notify.NewSMTPSender(a.appConfig.Mail)
	}
	dispatcher, err := notify.NewDispatcher(
		notify.NewGormReceiptRepository(a.gormDB),
		notify.NewGormOrderRepository(a.gormDB),
		a.mailSender,
		a.configManager.GetInt("notify", "workers"),
		a.configManager.GetInt("notify", "max_retry"),
	)
	if err != nil {
		return errors.Wrap(err, "init receipt dispatcher")
	}
	a.receipts = dispatcher

	a.bus = EventBus.New()
	if err := a.bus.Subscribe(domain.TopicOrderPlaced, a.receipts.OnOrderPlaced); err != nil {
		return errors.Wrap(err, "subscribe receipts")
	}

	a.shipping = shipping.NewClient(a.appConfig.Shipping)

	zap.L().Info("sales services initialized",
		zap.String("namespace", "app"),
		zap.String("order_prefix", opts.OrderPrefix),
		zap.Bool("allow_zero_price", opts.AllowZeroPrice))
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return err
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
	a.Seed()
}

// Seed creates the default super admin and missing settings.
func (a *Application) Seed() {
	a.checkSuper()
	a.checkSettings()
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Checkout() *checkout.Service {
	return a.checkout
}

func (a *Application) Receipts() *notify.Dispatcher {
	return a.receipts
}

func (a *Application) Shipping() *shipping.Client {
	return a.shipping
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// PublishOrderPlaced hands a committed order to the post-commit subscribers.
func (a *Application) PublishOrderPlaced(order *domain.Order) {
	if a.bus == nil || order == nil {
		return
	}
	a.bus.Publish(domain.TopicOrderPlaced, domain.OrderPlaced{Order: order})
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// SaveSettings stores "category.name" keyed values. Checkout settings take
// effect after a restart.
func (a *Application) SaveSettings(settings map[string]interface{}) error {
	for key, value := range settings {
		category, name, ok := splitSettingKey(key)
		if !ok {
			return errors.Errorf("invalid setting key %q", key)
		}
		if err := a.configManager.Set(category, name, value); err != nil {
			return errors.Wrapf(err, "save setting %s", key)
		}
	}
	return nil
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.receipts != nil {
		a.receipts.Release()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
