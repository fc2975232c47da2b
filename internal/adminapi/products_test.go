package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/deliverdesk/deliverdesk/config"
	"github.com/deliverdesk/deliverdesk/internal/catalog"
	"github.com/deliverdesk/deliverdesk/internal/dispatch"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

type testAppContext struct {
	cfg *config.AppConfig
	db  *gorm.DB
}

func (a *testAppContext) Config() *config.AppConfig { return a.cfg }
func (a *testAppContext) DB() *gorm.DB              { return a.db }

var (
	setupOnce sync.Once
	testEcho  *echo.Echo
	jwtSecret string
)

// setupServer wires the full HTTP stack once per test binary: sqlite
// store, façades, routes and JWT middleware.
func setupServer(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open("file:adminapi?mode=memory&cache=shared"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(domain.Tables...))
		require.NoError(t, db.Create(&domain.DeliveryCourier{
			ID: 7, Name: "test courier", Phone: "0007", Status: common.ENABLED,
		}).Error)

		cfg := new(config.AppConfig)
		*cfg = *config.DefaultAppConfig
		jwtSecret = cfg.Web.JwtSecret

		appctx := &testAppContext{cfg: cfg, db: db}
		webserver.Init(appctx)

		feed := realtime.NewFeed()
		Setup(
			catalog.NewService(catalog.NewGormProductRepository(db), feed),
			dispatch.NewService(dispatch.NewGormOrderRepository(db), feed),
			feed,
		)
		testEcho = webserver.Instance().Echo()
	})
}

func signToken(t *testing.T, level string, courierID int64) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":        int64(1),
		"username":   "tester",
		"level":      level,
		"courier_id": courierID,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, webserver.RestResult) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	testEcho.ServeHTTP(rec, req)

	var result webserver.RestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec, result
}

func TestApiRequiresToken(t *testing.T) {
	setupServer(t)
	rec, result := doRequest(t, http.MethodGet, "/api/catalog/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_REQUIRED", result.Msgtype)
}

func TestCreateAndGetProduct(t *testing.T) {
	setupServer(t)
	token := signToken(t, webserver.LevelOpr, 0)

	rec, result := doRequest(t, http.MethodPost, "/api/catalog/products", token, map[string]interface{}{
		"name":     "Pizza Calabresa",
		"category": "pizza",
		"price":    42.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id, "server key comes back as a string")

	rec, result = doRequest(t, http.MethodGet, "/api/catalog/products/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := result.Data.(map[string]interface{})
	assert.Equal(t, "Pizza Calabresa", got["name"])
}

func TestCreateProductRejectsCourierToken(t *testing.T) {
	setupServer(t)
	token := signToken(t, webserver.LevelCourier, 7)

	rec, result := doRequest(t, http.MethodPost, "/api/catalog/products", token, map[string]interface{}{
		"name":     "Nope",
		"category": "pizza",
		"price":    1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", result.Msgtype)
}

func TestCreateProductValidation(t *testing.T) {
	setupServer(t)
	token := signToken(t, webserver.LevelOpr, 0)

	rec, result := doRequest(t, http.MethodPost, "/api/catalog/products", token, map[string]interface{}{
		"category": "pizza",
		"price":    1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", result.Msgtype)

	rec, result = doRequest(t, http.MethodPost, "/api/catalog/products", token, map[string]interface{}{
		"name":     "Sushi Roll",
		"category": "sushi",
		"price":    1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", result.Msgtype)
}

func TestUpdateMissingProductReturnsNotFound(t *testing.T) {
	setupServer(t)
	token := signToken(t, webserver.LevelOpr, 0)

	rec, result := doRequest(t, http.MethodPut, "/api/catalog/products/424242", token, map[string]interface{}{
		"price": 9.9,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", result.Msgtype)
	assert.Equal(t, "The record no longer exists", result.Msg)
}

func TestPublicListingShowsActiveOnly(t *testing.T) {
	setupServer(t)
	token := signToken(t, webserver.LevelOpr, 0)

	rec, result := doRequest(t, http.MethodPost, "/api/catalog/products", token, map[string]interface{}{
		"name":     "Hidden Dessert",
		"category": "dessert",
		"price":    5,
		"active":   false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := result.Data.(map[string]interface{})
	hiddenID := data["id"].(string)

	rec, result = doRequest(t, http.MethodGet, "/public/catalog/products?perPage=100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := result.Data.(map[string]interface{})
	rows := page["data"].([]interface{})
	for _, row := range rows {
		p := row.(map[string]interface{})
		assert.NotEqual(t, "Hidden Dessert", p["name"], "inactive rows must not leak")
	}

	rec, result = doRequest(t, http.MethodGet, "/public/catalog/products/"+hiddenID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", result.Msgtype)
}

func TestOrderAndCourierDetailRequireOperator(t *testing.T) {
	setupServer(t)
	courier := signToken(t, webserver.LevelCourier, 7)

	rec, result := doRequest(t, http.MethodGet, "/api/dispatch/orders/1", courier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", result.Msgtype)

	rec, result = doRequest(t, http.MethodGet, "/api/dispatch/couriers/7", courier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", result.Msgtype)

	opr := signToken(t, webserver.LevelOpr, 0)
	rec, _ = doRequest(t, http.MethodGet, "/api/dispatch/couriers/7", opr, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDriverOrderStatusScopedToOwnOrders(t *testing.T) {
	setupServer(t)
	opr := signToken(t, webserver.LevelOpr, 0)

	rec, result := doRequest(t, http.MethodPost, "/api/dispatch/orders", opr, map[string]interface{}{
		"customer_name":  "Maria Silva",
		"customer_phone": "11999990001",
		"address": map[string]interface{}{
			"street": "Rua das Flores", "number": "123",
			"neighborhood": "Centro", "city": "Sao Paulo",
		},
		"items": []map[string]interface{}{
			{"name": "Pizza Margherita", "quantity": 1, "unit_price": 39.9},
		},
		"subtotal":       39.9,
		"delivery_fee":   8,
		"payment_method": "pix",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	data := result.Data.(map[string]interface{})
	orderID := data["id"].(string)

	rec, _ = doRequest(t, http.MethodPut, fmt.Sprintf("/api/dispatch/orders/%s/courier", orderID), opr, map[string]interface{}{
		"courier_id": "7",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	// A courier who does not own the order cannot move it.
	stranger := signToken(t, webserver.LevelCourier, 8)
	rec, result = doRequest(t, http.MethodPut, fmt.Sprintf("/api/dispatch/orders/%s/status", orderID), stranger, map[string]interface{}{
		"status": domain.OrderStatusPreparing,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", result.Msgtype)

	// The assigned courier can.
	owner := signToken(t, webserver.LevelCourier, 7)
	rec, result = doRequest(t, http.MethodPut, fmt.Sprintf("/api/dispatch/orders/%s/status", orderID), owner, map[string]interface{}{
		"status": domain.OrderStatusPreparing,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	got := result.Data.(map[string]interface{})
	assert.Equal(t, domain.OrderStatusPreparing, got["status"])
}
