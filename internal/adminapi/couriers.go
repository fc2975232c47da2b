package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

type courierPayload struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Phone   string `json:"phone" validate:"required,min=1,max=32"`
	Vehicle string `json:"vehicle" validate:"omitempty,oneof=motorcycle bicycle car"`
	Remark  string `json:"remark" validate:"omitempty,max=500"`
}

type courierUpdatePayload struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,min=1,max=32"`
	Vehicle *string `json:"vehicle" validate:"omitempty,oneof=motorcycle bicycle car"`
	Status  *string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Remark  *string `json:"remark" validate:"omitempty,max=500"`
}

// registerCourierRoutes registers courier CRUD routes
func registerCourierRoutes() {
	webserver.ApiGET("/dispatch/couriers", listCouriers)
	webserver.ApiGET("/dispatch/couriers/:id", getCourier)
	webserver.ApiPOST("/dispatch/couriers", createCourier)
	webserver.ApiPUT("/dispatch/couriers/:id", updateCourier)
	webserver.ApiDELETE("/dispatch/couriers/:id", deleteCourier)
}

func listCouriers(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.DeliveryCourier{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ? OR phone LIKE ?", "%"+strings.ToLower(q)+"%", "%"+q+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query couriers", err.Error())
	}

	var couriers []domain.DeliveryCourier
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&couriers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query couriers", err.Error())
	}

	return paged(c, couriers, total, page, pageSize)
}

func getCourier(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid courier ID", nil)
	}

	var courier domain.DeliveryCourier
	if err := GetDB(c).Where("id = ?", id).First(&courier).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "COURIER_NOT_FOUND", "Courier not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query courier", err.Error())
	}

	return ok(c, courier)
}

func createCourier(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	var payload courierPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse courier parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Phone = strings.TrimSpace(payload.Phone)

	var exists int64
	GetDB(c).Model(&domain.DeliveryCourier{}).Where("phone = ?", payload.Phone).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "COURIER_EXISTS", "Courier phone already registered", nil)
	}

	courier := domain.DeliveryCourier{
		ID:        common.UUIDint64(),
		Name:      strings.TrimSpace(payload.Name),
		Phone:     payload.Phone,
		Vehicle:   payload.Vehicle,
		Status:    common.ENABLED,
		Remark:    payload.Remark,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := GetDB(c).Create(&courier).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create courier", err.Error())
	}

	auditLog(c, "courier_create", courier.Name)
	return ok(c, courier)
}

func updateCourier(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid courier ID", nil)
	}

	var payload courierUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse courier parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var courier domain.DeliveryCourier
	if err := GetDB(c).Where("id = ?", id).First(&courier).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "COURIER_NOT_FOUND", "Courier not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query courier", err.Error())
	}

	if payload.Phone != nil {
		phone := strings.TrimSpace(*payload.Phone)
		if phone != courier.Phone {
			var exists int64
			GetDB(c).Model(&domain.DeliveryCourier{}).Where("phone = ? AND id != ?", phone, id).Count(&exists)
			if exists > 0 {
				return fail(c, http.StatusConflict, "COURIER_EXISTS", "Courier phone already registered", nil)
			}
			courier.Phone = phone
		}
	}
	if payload.Name != nil {
		courier.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Vehicle != nil {
		courier.Vehicle = *payload.Vehicle
	}
	if payload.Status != nil {
		courier.Status = *payload.Status
	}
	if payload.Remark != nil {
		courier.Remark = *payload.Remark
	}
	courier.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&courier).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update courier", err.Error())
	}

	auditLog(c, "courier_update", courier.Name)
	return ok(c, courier)
}

func deleteCourier(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid courier ID", nil)
	}

	var courier domain.DeliveryCourier
	if err := GetDB(c).Where("id = ?", id).First(&courier).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "COURIER_NOT_FOUND", "Courier not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query courier", err.Error())
	}

	// Prevent deletion while undelivered orders reference this courier
	var inFlight int64
	GetDB(c).Model(&domain.DeliveryOrder{}).
		Where("courier_id = ? AND status IN ?", id, []string{
			domain.OrderStatusPending,
			domain.OrderStatusPreparing,
			domain.OrderStatusOnRoute,
		}).Count(&inFlight)
	if inFlight > 0 {
		return fail(c, http.StatusConflict, "COURIER_IN_USE", "Courier has undelivered orders and cannot be deleted", map[string]interface{}{"order_count": inFlight})
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.DeliveryCourier{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete courier", err.Error())
	}

	auditLog(c, "courier_delete", courier.Name)
	return ok(c, map[string]interface{}{"id": id})
}
