package app

import (
	"context"
	"os"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/config"
	"github.com/deliverdesk/deliverdesk/internal/catalog"
	"github.com/deliverdesk/deliverdesk/internal/dispatch"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/pkg/metrics"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	configManager *ConfigManager
	feed          *realtime.Feed
	catalogSvc    *catalog.Service
	dispatchSvc   *dispatch.Service
	demoMode      bool
	releaseOnce   sync.Once
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ SettingsProvider = (*Application)(nil)
	_ FeedProvider     = (*Application)(nil)
	_ AppContext       = (*Application)(nil)
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

// DemoMode reports whether the app is running on the embedded demo
// dataset because no real database credentials were configured.
func (a *Application) DemoMode() bool {
	return a.demoMode
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
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
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	// Initialize metrics with workdir convention
	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Initialize database connection; missing credentials fall back to
	// an embedded demo dataset instead of failing startup.
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if !cfg.DatabaseConfigured() {
		zap.S().Warn("database credentials missing, falling back to demo dataset")
		a.demoMode = true
		cfg.Database.Type = "sqlite"
		cfg.Database.Name = "file::memory:?cache=shared"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.checkSuper()
	a.checkSettings()
	a.checkCouriers()
	if a.demoMode {
		a.checkDemoProducts()
		a.checkDemoOrders()
	}

	// Initialize the configuration manager
	a.configManager = NewConfigManager(a.gormDB)

	// Wire the realtime feed and the CRUD façades
	a.feed = realtime.NewFeed()
	a.catalogSvc = catalog.NewService(catalog.NewGormProductRepository(a.gormDB), a.feed)
	a.dispatchSvc = dispatch.NewService(dispatch.NewGormOrderRepository(a.gormDB), a.feed)

	a.initJob()
}

func (a *Application) MigrateDB(track bool) (err error) {
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
	}
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Feed returns the realtime change feed
func (a *Application) Feed() *realtime.Feed {
	return a.feed
}

// CatalogService returns the product façade
func (a *Application) CatalogService() *catalog.Service {
	return a.catalogSvc
}

// DispatchService returns the order façade
func (a *Application) DispatchService() *dispatch.Service {
	return a.dispatchSvc
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

// StartBackgroundJobs is a hook for long-running services; the cron
// scheduler is already started by Init.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	go func() {
		<-ctx.Done()
		a.Release()
	}()
}

// Release releases application resources. Runs once; later calls,
// including concurrent ones from the shutdown paths, are no-ops.
func (a *Application) Release() {
	a.releaseOnce.Do(func() {
		if a.sched != nil {
			a.sched.Stop()
			a.sched = nil
		}
		if a.feed != nil {
			a.feed.WaitAsync()
		}
		_ = metrics.Close()
		_ = zap.L().Sync()
	})
}
