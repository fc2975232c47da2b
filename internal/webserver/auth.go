package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

// Operator levels.
const (
	LevelSuper   = "super"
	LevelOpr     = "opr"
	LevelCourier = "courier"
)

const tokenTTL = 24 * time.Hour

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func loginHandler(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return RestError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return RestError(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var opr domain.SysOpr
	err := DB().Where("username = ?", strings.TrimSpace(payload.Username)).First(&opr).Error
	if err != nil {
		return RestError(c, http.StatusUnauthorized, "AUTH_FAILED", "Invalid username or password", nil)
	}
	if opr.Status != common.ENABLED {
		return RestError(c, http.StatusUnauthorized, "AUTH_FAILED", "Account is disabled", nil)
	}
	hashed := common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt())
	if hashed != opr.Password {
		return RestError(c, http.StatusUnauthorized, "AUTH_FAILED", "Invalid username or password", nil)
	}

	claims := jwt.MapClaims{
		"uid":        opr.ID,
		"username":   opr.Username,
		"level":      opr.Level,
		"courier_id": opr.CourierID,
		"exp":        time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(server.appctx.Config().Web.JwtSecret))
	if err != nil {
		return RestError(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to sign token", nil)
	}

	DB().Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	zap.L().Info("operator login", zap.String("username", opr.Username), zap.String("level", opr.Level))

	return RestOK(c, map[string]interface{}{
		"token":    signed,
		"username": opr.Username,
		"level":    opr.Level,
	})
}

// TokenClaims extracts the parsed JWT claims from the request context.
func TokenClaims(c echo.Context) jwt.MapClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

// TokenLevel returns the caller's level claim.
func TokenLevel(c echo.Context) string {
	if v, ok := TokenClaims(c)["level"].(string); ok {
		return v
	}
	return ""
}

// RequireOperator rejects courier-level tokens.
func RequireOperator(c echo.Context) error {
	switch TokenLevel(c) {
	case LevelSuper, LevelOpr:
		return nil
	}
	return ErrForbidden
}

// ErrForbidden is returned when a token lacks the required level.
var ErrForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
