package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/deliverdesk/deliverdesk/config"
)

// getDatabase opens the configured database. Postgres is the production
// store; sqlite serves tests and the demo fallback.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	switch cfg.Type {
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = filepath.Join(workdir, "deliverdesk.db")
			_ = os.MkdirAll(workdir, 0o755)
		}
		db, err := gorm.Open(sqlite.Open(name), gormCfg)
		if err != nil {
			zap.S().Panicf("failed to open sqlite database: %v", err)
		}
		return db
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
			cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port, time.Local.String())
		db, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			zap.S().Panicf("failed to open postgres database: %v", err)
		}
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxConn)
			sqlDB.SetMaxIdleConns(cfg.IdleConn)
			sqlDB.SetConnMaxLifetime(time.Hour)
		}
		return db
	}
}
