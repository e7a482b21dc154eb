package app

import (
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	superUsername   = "admin"
	defaultPassword = "marobi"
)

func (a *Application) checkSuper() {
	var staff domain.Staff
	err := a.gormDB.Where("username = ?", superUsername).First(&staff).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashedPassword, err := common.HashPassword(defaultPassword)
		if err != nil {
			zap.L().Error("failed to hash default password", zap.Error(err))
			return
		}
		if err := a.gormDB.Create(&domain.Staff{
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     common.NA,
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     domain.StaffSuper,
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(staff.Password) == ""
	resetLevel := !strings.EqualFold(staff.Level, domain.StaffSuper)
	resetStatus := !strings.EqualFold(staff.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		hashedPassword, err := common.HashPassword(defaultPassword)
		if err != nil {
			zap.L().Error("failed to hash default password", zap.Error(err))
			return
		}
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = domain.StaffSuper
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.Staff{}).Where("id = ?", staff.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

func (a *Application) checkSettings() {
	// Load configuration definitions from the embedded JSON file
	var schemasData ConfigSchemasJSON
	if err := jsoniter.Unmarshal(configSchemasData, &schemasData); err != nil {
		zap.L().Error("failed to load config schemas from JSON", zap.Error(err))
		return
	}

	for sortid, schema := range schemasData.Schemas {
		category, name, ok := splitSettingKey(schema.Key)
		if !ok {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkDemoCatalog seeds a small catalog for local development
func (a *Application) checkDemoCatalog() {
	defaultProducts := []domain.Product{
		{
			Name: "Adire Maxi Dress", Category: "Dresses",
			Images: []string{"https://cdn.marobi.local/adire-maxi.jpg"},
			Prices: domain.Prices{NGN: domain.Price("45000"), USD: domain.Price("55"), EUR: domain.Price("50"), GBP: domain.Price("43")},
			Variants: []domain.Variant{
				{Color: "Indigo", Size: "S", Stock: 10},
				{Color: "Indigo", Size: "M", Stock: 12},
				{Color: "Indigo", Size: "L", Stock: 6},
			},
		},
		{
			Name: "Aso Oke Gele", Category: "Accessories",
			Images: []string{"https://cdn.marobi.local/gele.jpg"},
			Prices: domain.Prices{NGN: domain.Price("15000"), USD: domain.Price("18"), GBP: domain.Price("14")},
			Variants: []domain.Variant{
				{Color: "Gold", Size: common.NA, Stock: 20},
				{Color: "Wine", Size: common.NA, Stock: 15},
			},
		},
		{
			Name: "Ankara Kimono", Category: "Outerwear",
			Images: []string{"https://cdn.marobi.local/kimono.jpg"},
			Prices: domain.Prices{NGN: domain.Price("30000"), USD: domain.Price("36")},
			Variants: []domain.Variant{
				{Color: common.NA, Size: common.NA, Stock: 25},
			},
		},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized demo product", zap.String("name", p.Name), zap.Int("variants", len(p.Variants)))
			}
		}
	}
}
