package app

import (
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/domain"
)

// ConfigManager reads runtime settings from the sys_config table.
type ConfigManager struct {
	db *gorm.DB
}

// NewConfigManager creates a settings reader over the database.
func NewConfigManager(db *gorm.DB) *ConfigManager {
	return &ConfigManager{db: db}
}

func (m *ConfigManager) value(category, name string) string {
	var cfg domain.SysConfig
	err := m.db.Where("type = ? AND name = ?", category, name).First(&cfg).Error
	if err != nil {
		return ""
	}
	return cfg.Value
}

// GetString retrieves a string configuration value
func (m *ConfigManager) GetString(category, name string) string {
	return m.value(category, name)
}

// GetInt64 retrieves an int64 configuration value
func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.value(category, name))
}

// GetInt retrieves an int configuration value
func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.value(category, name))
}

// GetBool retrieves a boolean configuration value
func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.value(category, name))
}

// SetValue creates or updates a configuration entry.
func (m *ConfigManager) SetValue(category, name, value string) {
	var count int64
	m.db.Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", category, name).
		Count(&count)
	if count == 0 {
		if err := m.db.Create(&domain.SysConfig{
			Type:      category,
			Name:      name,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create config entry",
				zap.String("category", category), zap.String("name", name), zap.Error(err))
		}
		return
	}
	m.db.Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", category, name).
		Updates(map[string]interface{}{"value": value, "updated_at": time.Now()})
}
