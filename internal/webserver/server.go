package webserver

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/config"
)

// AppContext is the slice of the application the web layer needs.
type AppContext interface {
	Config() *config.AppConfig
	DB() *gorm.DB
}

type WebServer struct {
	root   *echo.Echo
	api    *echo.Group // authenticated operators and couriers
	public *echo.Group // anonymous access, active rows only
	appctx AppContext
}

var server *WebServer

// CustomValidator wires go-playground validation into echo.
type CustomValidator struct {
	validate *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// Init builds the global web server instance.
func Init(appctx AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	}))

	jwtConfig := echojwt.Config{
		SigningKey: []byte(appctx.Config().Web.JwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, RestResult{
				Code:    http.StatusUnauthorized,
				Msgtype: "AUTH_REQUIRED",
				Msg:     "Authentication required",
			})
		},
	}

	server = &WebServer{
		root:   e,
		api:    e.Group("/api", echojwt.WithConfig(jwtConfig)),
		public: e.Group("/public"),
		appctx: appctx,
	}

	e.POST("/auth/login", loginHandler)
	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	return server
}

// Instance returns the initialized global server.
func Instance() *WebServer {
	return server
}

// DB returns the application database handle.
func DB() *gorm.DB {
	return server.appctx.DB()
}

// Start runs the listener; blocks until the server stops.
func (s *WebServer) Start() error {
	cfg := s.appctx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("web server starting", zap.String("addr", addr))
	return s.root.Start(addr)
}

// Echo exposes the underlying engine, used by tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// ApiGET registers an authenticated GET route.
func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

// ApiPOST registers an authenticated POST route.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

// ApiPUT registers an authenticated PUT route.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

// ApiDELETE registers an authenticated DELETE route.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}

// PubGET registers an anonymous GET route.
func PubGET(path string, h echo.HandlerFunc) {
	server.public.GET(path, h)
}
