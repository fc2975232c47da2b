package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deliverdesk/deliverdesk/internal/webserver"
	"github.com/deliverdesk/deliverdesk/pkg/metrics"
)

// registerStatsRoutes registers reporting endpoints.
func registerStatsRoutes() {
	webserver.ApiGET("/dispatch/stats", deliveryStats)
	webserver.ApiGET("/system/metrics/:name", systemMetric)
}

// deliveryStats summarizes delivery durations over a trailing window.
func deliveryStats(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	days, _ := strconv.Atoi(c.QueryParam("days"))
	out, err := dispatchSvc.DeliveryStats(c.Request().Context(), days)
	if err != nil {
		return failFromService(c, err)
	}
	return ok(c, out)
}

// systemMetric returns raw gauge samples from the embedded store.
func systemMetric(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	name := c.Param("name")
	end := time.Now().Unix()
	start := end - 6*3600
	if v, err := strconv.ParseInt(c.QueryParam("start"), 10, 64); err == nil {
		start = v
	}
	if v, err := strconv.ParseInt(c.QueryParam("end"), 10, 64); err == nil {
		end = v
	}
	points, err := metrics.Select(name, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metric", err.Error())
	}
	return ok(c, points)
}
