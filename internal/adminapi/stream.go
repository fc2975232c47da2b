package adminapi

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/deliverdesk/deliverdesk/internal/catalog"
	"github.com/deliverdesk/deliverdesk/internal/dispatch"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
)

var streamJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// streamTables maps the public channel names onto feed tables.
var streamTables = map[string]string{
	"products": catalog.FeedTable,
	"orders":   dispatch.FeedTable,
}

// registerStreamRoutes registers the SSE change-feed endpoint.
func registerStreamRoutes() {
	webserver.ApiGET("/stream/:table", streamTable)
}

type streamPayload struct {
	Kind  string      `json:"kind"`
	Table string      `json:"table"`
	New   interface{} `json:"new,omitempty"`
	Old   interface{} `json:"old,omitempty"`
}

// streamTable pushes row-change events for one table as Server-Sent
// Events until the client disconnects. The subscription is torn down
// deterministically on disconnect; a failed subscribe tears down safely
// as well.
func streamTable(c echo.Context) error {
	table, okTable := streamTables[c.Param("table")]
	if !okTable {
		return fail(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "Unknown stream channel", nil)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	events := make(chan realtime.Event, 64)
	sub, err := feed.Subscribe(table, func(ev realtime.Event) {
		select {
		case events <- ev:
		default:
			// Slow consumer: drop rather than block the feed. The
			// collection semantics tolerate missed updates.
		}
	})
	defer sub.Unsubscribe()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STREAM_ERROR", "Failed to open change feed", nil)
	}

	zap.L().Info("stream opened", zap.String("table", table))
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("stream closed", zap.String("table", table))
			return nil
		case ev := <-events:
			payload := streamPayload{Kind: ev.Kind, Table: ev.Table}
			if ev.New != nil {
				payload.New = ev.New.Value
			}
			if ev.Old != nil {
				payload.Old = ev.Old.Value
			}
			data, err := streamJSON.Marshal(payload)
			if err != nil {
				zap.L().Error("stream encode failed", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
