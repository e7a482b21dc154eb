package app

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed config_schemas.json
var configSchemasData []byte

type ConfigSchema struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type ConfigSchemasJSON struct {
	Schemas []ConfigSchema `json:"schemas"`
}

// ConfigManager caches sys_config rows keyed "category.name".
type ConfigManager struct {
	db     *gorm.DB
	mu     sync.RWMutex
	values map[string]string
}

func NewConfigManager(db *gorm.DB) *ConfigManager {
	cm := &ConfigManager{db: db, values: map[string]string{}}
	cm.Reload()
	return cm
}

func (cm *ConfigManager) Reload() {
	var rows []domain.SysConfig
	if err := cm.db.Find(&rows).Error; err != nil {
		zap.L().Error("failed to load settings", zap.Error(err))
		return
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Type+"."+r.Name] = r.Value
	}
	cm.mu.Lock()
	cm.values = values
	cm.mu.Unlock()
}

func (cm *ConfigManager) GetString(category, key string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.values[category+"."+key]
}

func (cm *ConfigManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(cm.GetString(category, key))
}

func (cm *ConfigManager) GetInt(category, key string) int {
	return cast.ToInt(cm.GetString(category, key))
}

func (cm *ConfigManager) GetBool(category, key string) bool {
	return cast.ToBool(cm.GetString(category, key))
}

// Category returns every setting of a category keyed by name.
func (cm *ConfigManager) Category(category string) map[string]interface{} {
	prefix := category + "."
	out := map[string]interface{}{}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for k, v := range cm.values {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out
}

// Decode fills out (a struct with mapstructure tags) from a category,
// converting the stored strings to the field types.
func (cm *ConfigManager) Decode(category string, out interface{}) error {
	return mapstructure.WeakDecode(cm.Category(category), out)
}

// Set stores one value, creating the row when missing.
func (cm *ConfigManager) Set(category, key string, value interface{}) error {
	v := cast.ToString(value)
	res := cm.db.Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", category, key).
		Update("value", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := cm.db.Create(&domain.SysConfig{Type: category, Name: key, Value: v}).Error; err != nil {
			return err
		}
	}
	cm.mu.Lock()
	cm.values[category+"."+key] = v
	cm.mu.Unlock()
	return nil
}
