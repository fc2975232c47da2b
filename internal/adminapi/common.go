package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/catalog"
	"github.com/deliverdesk/deliverdesk/internal/dberr"
	"github.com/deliverdesk/deliverdesk/internal/dispatch"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

var (
	catalogSvc  *catalog.Service
	dispatchSvc *dispatch.Service
	feed        *realtime.Feed
)

// Setup injects the façades and registers every admin API route. Must
// run after webserver.Init.
func Setup(cs *catalog.Service, ds *dispatch.Service, f *realtime.Feed) {
	catalogSvc = cs
	dispatchSvc = ds
	feed = f

	registerProductRoutes()
	registerOrderRoutes()
	registerCourierRoutes()
	registerStreamRoutes()
	registerStatsRoutes()
}

func ok(c echo.Context, data interface{}) error {
	return webserver.RestOK(c, data)
}

func fail(c echo.Context, status int, msgtype, msg string, detail interface{}) error {
	return webserver.RestError(c, status, msgtype, msg, detail)
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return webserver.RestPaged(c, rows, total, page, pageSize)
}

// GetDB returns the shared database handle for handlers that query
// outside the façades.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.DB()
}

// auditLog records a mutating admin action in the operator audit log.
// Retention is handled by the daily cleanup job.
func auditLog(c echo.Context, action, desc string) {
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   cast.ToString(webserver.TokenClaims(c)["username"]),
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	} else if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid field values", fields)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", nil)
}

// failFromService maps façade taxonomy errors onto HTTP envelopes; the
// user-facing message comes from the taxonomy, unmapped errors carry the
// raw backend text.
func failFromService(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msgtype := "BACKEND_ERROR"
	switch {
	case errors.Is(err, dberr.ErrNotFound):
		status, msgtype = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, dberr.ErrPermissionDenied):
		status, msgtype = http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, dberr.ErrConflict):
		status, msgtype = http.StatusConflict, "CONFLICT"
	case errors.Is(err, dberr.ErrInvalidKey):
		status, msgtype = http.StatusBadRequest, "INVALID_KEY"
	case errors.Is(err, dberr.ErrNoKey):
		status, msgtype = http.StatusInternalServerError, "NO_KEY"
	}
	return fail(c, status, msgtype, dberr.UserMessage(err), nil)
}
