package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "deliverdesk"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
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

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

// defaultSettings are created in sys_config when missing.
var defaultSettings = []domain.SysConfig{
	{Type: "dispatch", Name: "OverdueMinutes", Value: "20", Remark: "Minutes before an undelivered order is flagged overdue"},
	{Type: "dispatch", Name: "StatsWindowDays", Value: "7", Remark: "Default window for delivery statistics"},
	{Type: "system", Name: "OprLogRetentionDays", Value: "365", Remark: "Days to keep operator audit logs"},
}

func (a *Application) checkSettings() {
	for sortid, schema := range defaultSettings {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", schema.Type, schema.Name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   schema.Type,
				Name:   schema.Name,
				Value:  schema.Value,
				Remark: schema.Remark,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Type+"."+schema.Name),
				zap.String("default", schema.Value))
		}
	}
}

// checkCouriers initializes a default courier so a fresh install has a
// working driver account.
func (a *Application) checkCouriers() {
	var count int64
	a.gormDB.Model(&domain.DeliveryCourier{}).Count(&count)
	if count > 0 {
		return
	}

	courier := domain.DeliveryCourier{
		ID:        common.UUIDint64(),
		Name:      "default courier",
		Phone:     "0000",
		Vehicle:   "motorcycle",
		Status:    common.ENABLED,
		Remark:    "created on first start",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := a.gormDB.Create(&courier).Error; err != nil {
		zap.L().Error("failed to create default courier", zap.Error(err))
		return
	}

	account := domain.SysOpr{
		ID:        common.UUIDint64(),
		Realname:  courier.Name,
		Mobile:    courier.Phone,
		Username:  "courier",
		Password:  common.Sha256HashWithSalt("courier", common.GetSecretSalt()),
		Level:     "courier",
		Status:    common.ENABLED,
		CourierID: courier.ID,
		Remark:    "default courier account",
		LastLogin: time.Now(),
	}
	if err := a.gormDB.Create(&account).Error; err != nil {
		zap.L().Error("failed to create default courier account", zap.Error(err))
		return
	}
	zap.L().Info("initialized default courier", zap.Int64("courier_id", courier.ID))
}

func floatPtr(v float64) *float64 { return &v }

// checkDemoProducts seeds the static demo catalog used when no database
// credentials are configured.
func (a *Application) checkDemoProducts() {
	demoProducts := []domain.Product{
		{
			Name: "Pizza Margherita", Category: domain.CategoryPizza, Price: 39.9,
			Description: "Tomato, mozzarella and basil", Active: true,
			Sizes: []domain.ProductSize{{Name: "M", Price: 39.9}, {Name: "G", Price: 49.9}},
		},
		{
			Name: "Classic Burger", Category: domain.CategoryBurger, Price: 24.5,
			OriginalPrice: floatPtr(29.9), Description: "Beef, cheese, lettuce", Active: true,
			Complements: []domain.ComplementGroup{
				{
					Title: "Extras", MaxSelect: 3,
					Items: []domain.ComplementItem{
						{Name: "Extra cheese", Price: 3},
						{Name: "Bacon", Price: 4.5},
					},
				},
			},
		},
		{Name: "Cola 2L", Category: domain.CategoryDrink, Price: 9.9, Active: true},
		{
			Name: "Acai Bowl", Category: domain.CategoryAcai, Price: 0,
			Weighable: true, PricePerKg: floatPtr(54.9), Active: true,
			Availability: &domain.Availability{Days: []int{1, 2, 3, 4, 5}, StartTime: "10:00", EndTime: "22:00"},
		},
		{Name: "Brownie", Category: domain.CategoryDessert, Price: 12, Active: false},
	}

	for _, p := range demoProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
			}
		}
	}
	zap.L().Info("demo catalog ready", zap.Int("products", len(demoProducts)))
}

// checkDemoOrders seeds a pair of in-flight demo orders.
func (a *Application) checkDemoOrders() {
	var count int64
	a.gormDB.Model(&domain.DeliveryOrder{}).Count(&count)
	if count > 0 {
		return
	}

	var courier domain.DeliveryCourier
	_ = a.gormDB.First(&courier).Error

	demoOrders := []domain.DeliveryOrder{
		{
			CustomerName: "Maria Silva", CustomerPhone: "11999990001",
			Address: domain.Address{Street: "Rua das Flores", Number: "123", Neighborhood: "Centro", City: "Sao Paulo"},
			Items: []domain.OrderItem{
				{Name: "Pizza Margherita", Quantity: 1, UnitPrice: 39.9},
			},
			Subtotal: 39.9, DeliveryFee: 8, Total: 47.9,
			PaymentMethod: "pix", Status: domain.OrderStatusPreparing, CourierID: courier.ID,
		},
		{
			CustomerName: "Joao Souza", CustomerPhone: "11999990002",
			Address: domain.Address{Street: "Av. Paulista", Number: "1000", Complement: "ap 42", Neighborhood: "Bela Vista", City: "Sao Paulo"},
			Items: []domain.OrderItem{
				{Name: "Classic Burger", Quantity: 2, UnitPrice: 24.5},
				{Name: "Cola 2L", Quantity: 1, UnitPrice: 9.9},
			},
			Subtotal: 58.9, DeliveryFee: 6, Total: 64.9,
			PaymentMethod: "cash", Status: domain.OrderStatusOnRoute, CourierID: courier.ID,
		},
	}

	for _, o := range demoOrders {
		o.ID = common.UUIDint64()
		o.Code = common.ShortCode(6)
		o.CreatedAt = time.Now()
		o.UpdatedAt = time.Now()
		if err := a.gormDB.Create(&o).Error; err != nil {
			zap.L().Error("failed to create demo order", zap.Error(err))
		}
	}
	zap.L().Info("demo orders ready", zap.Int("orders", len(demoOrders)))
}
