package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/deliverdesk/deliverdesk/internal/dispatch"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
)

type orderPayload struct {
	CustomerName  string             `json:"customer_name" validate:"required,min=1,max=200"`
	CustomerPhone string             `json:"customer_phone" validate:"max=32"`
	Address       domain.Address     `json:"address"`
	Items         []domain.OrderItem `json:"items" validate:"required,min=1"`
	Subtotal      float64            `json:"subtotal" validate:"gte=0"`
	DeliveryFee   float64            `json:"delivery_fee" validate:"gte=0"`
	PaymentMethod string             `json:"payment_method" validate:"required,oneof=cash card pix"`
	Note          string             `json:"note" validate:"max=500"`
}

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type orderCourierPayload struct {
	CourierID int64 `json:"courier_id,string" validate:"required"`
}

// registerOrderRoutes registers order intake and lifecycle endpoints,
// plus the courier-scoped driver view.
func registerOrderRoutes() {
	webserver.ApiGET("/dispatch/orders", listOrders)
	webserver.ApiGET("/dispatch/orders/:id", getOrder)
	webserver.ApiPOST("/dispatch/orders", createOrder)
	webserver.ApiPUT("/dispatch/orders/:id/status", updateOrderStatus)
	webserver.ApiPUT("/dispatch/orders/:id/courier", assignOrderCourier)
	webserver.ApiDELETE("/dispatch/orders/:id", deleteOrder)

	webserver.ApiGET("/driver/orders", listDriverOrders)
}

func listOrders(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	page, pageSize := parsePagination(c)
	filter := dispatch.ListFilter{
		Status: strings.TrimSpace(c.QueryParam("status")),
		Code:   strings.TrimSpace(c.QueryParam("code")),
	}
	if cid, err := strconv.ParseInt(c.QueryParam("courier_id"), 10, 64); err == nil {
		filter.CourierID = cid
	}
	rows, total, err := dispatchSvc.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return failFromService(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	o, err := dispatchSvc.Get(c.Request().Context(), id)
	if err != nil {
		return failFromService(c, err)
	}
	return ok(c, o)
}

func createOrder(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	o := &domain.DeliveryOrder{
		CustomerName:  strings.TrimSpace(payload.CustomerName),
		CustomerPhone: strings.TrimSpace(payload.CustomerPhone),
		Address:       payload.Address,
		Items:         payload.Items,
		Subtotal:      payload.Subtotal,
		DeliveryFee:   payload.DeliveryFee,
		PaymentMethod: payload.PaymentMethod,
		Note:          strings.TrimSpace(payload.Note),
	}
	created, err := dispatchSvc.Create(c.Request().Context(), o)
	if err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "order_create", created.Code)
	return ok(c, created)
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	if !domain.ValidOrderStatus(payload.Status) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown order status", domain.OrderStatuses)
	}

	// Couriers may only move their own orders along the route.
	if webserver.TokenLevel(c) == webserver.LevelCourier {
		o, err := dispatchSvc.Get(c.Request().Context(), id)
		if err != nil {
			return failFromService(c, err)
		}
		if o.CourierID != tokenCourierID(c) {
			return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Order belongs to another courier", nil)
		}
	}

	updated, err := dispatchSvc.SetStatus(c.Request().Context(), id, payload.Status)
	if err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "order_status", updated.Code+" -> "+payload.Status)
	return ok(c, updated)
}

func assignOrderCourier(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderCourierPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse courier assignment", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var count int64
	GetDB(c).Model(&domain.DeliveryCourier{}).Where("id = ?", payload.CourierID).Count(&count)
	if count == 0 {
		return fail(c, http.StatusNotFound, "COURIER_NOT_FOUND", "Courier not found", nil)
	}

	updated, err := dispatchSvc.AssignCourier(c.Request().Context(), id, payload.CourierID)
	if err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "order_assign", updated.Code)
	return ok(c, updated)
}

func deleteOrder(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	if err := dispatchSvc.Delete(c.Request().Context(), id); err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "order_delete", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}

// listDriverOrders serves the driver order view: in-flight orders with
// elapsed time and overdue flags. Couriers see their own orders;
// operators may inspect any courier via query param.
func listDriverOrders(c echo.Context) error {
	courierID := tokenCourierID(c)
	if webserver.TokenLevel(c) != webserver.LevelCourier {
		if cid, err := strconv.ParseInt(c.QueryParam("courier_id"), 10, 64); err == nil {
			courierID = cid
		} else {
			courierID = 0 // operators default to all couriers
		}
	}
	views, err := dispatchSvc.DriverView(c.Request().Context(), courierID)
	if err != nil {
		return failFromService(c, err)
	}
	return ok(c, views)
}

func tokenCourierID(c echo.Context) int64 {
	return cast.ToInt64(webserver.TokenClaims(c)["courier_id"])
}
