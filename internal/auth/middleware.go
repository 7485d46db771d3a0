package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CookieName - cookie, в которой браузер хранит токен.
const CookieName = "Authorization"

// ContextKey - тип для ключей контекста.
type ContextKey string

const (
	UserIDKey   ContextKey = "user_id"
	UsernameKey ContextKey = "username"
)

// JWTMiddleware пропускает запрос только с валидным токеном.
// Токен берётся из заголовка "Authorization: Bearer", а если его нет - из cookie.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			c.Set(string(UserIDKey), claims.UserID)
			c.Set(string(UsernameKey), claims.Username)

			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if scheme, token, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " "); ok &&
		strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}

	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetUserIDFromContext извлекает ID оператора, сохранённый JWTMiddleware.
func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(string(UserIDKey)).(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "user not found in context")
	}
	return userID, nil
}
