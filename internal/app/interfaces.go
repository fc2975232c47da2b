package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/config"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
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
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// FeedProvider provides the realtime change feed
type FeedProvider interface {
	Feed() *realtime.Feed
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	FeedProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// DemoMode reports whether the embedded demo dataset is in use
	DemoMode() bool
}
