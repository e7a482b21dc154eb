package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/shipping"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]interface{}) error
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// ServiceProvider exposes the sales services shared by the HTTP handlers
type ServiceProvider interface {
	Checkout() *checkout.Service
	Receipts() *notify.Dispatcher
	Shipping() *shipping.Client
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider
	ServiceProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// PublishOrderPlaced runs post-commit side effects for a new order.
	PublishOrderPlaced(order *domain.Order)
}
