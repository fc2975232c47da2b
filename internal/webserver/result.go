package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RestResult is the JSON envelope shared by every API response.
type RestResult struct {
	Code    int         `json:"code"`
	Msgtype string      `json:"msgtype,omitempty"`
	Msg     string      `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// PageResult wraps a page of rows with its total.
type PageResult struct {
	TotalCount int64       `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Data       interface{} `json:"data"`
}

// RestOK renders a success envelope.
func RestOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, RestResult{Code: 0, Msgtype: "success", Data: data})
}

// RestError renders a failure envelope with an HTTP status.
func RestError(c echo.Context, status int, msgtype, msg string, detail interface{}) error {
	return c.JSON(status, RestResult{Code: status, Msgtype: msgtype, Msg: msg, Detail: detail})
}

// RestPaged renders a paged success envelope.
func RestPaged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, RestResult{
		Code:    0,
		Msgtype: "success",
		Data: PageResult{
			TotalCount: total,
			Page:       page,
			PageSize:   pageSize,
			Data:       rows,
		},
	})
}
