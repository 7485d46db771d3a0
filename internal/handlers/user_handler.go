package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/mastercrm/internal/auth"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/services"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandler обрабатывает HTTP-запросы для работы с пользователями.
type UserHandler struct {
	userService services.UserService
	tokenTTL    time.Duration
	log         *zap.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(userService services.UserService, tokenTTL time.Duration, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		tokenTTL:    tokenTTL,
		log:         log,
	}
}

// Check обрабатывает GET /api/auth/check.
func (h *UserHandler) Check(c echo.Context) error {
	needs, err := h.userService.NeedsRegistration(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to check registration", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"needsRegistration": needs})
}

// Register обрабатывает POST /api/auth/register.
func (h *UserHandler) Register(c echo.Context) error {
	var req models.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, token, err := h.userService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCredentials),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrPasswordTooLong):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrRegistrationClosed):
			return echo.NewHTTPError(http.StatusForbidden, "registration is closed")
		case errors.Is(err, storage.ErrLoginExists):
			return echo.NewHTTPError(http.StatusConflict, "username already exists")
		default:
			return internalError(h.log, "failed to register user", err)
		}
	}

	h.setAuthToken(c, token)
	return c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Login обрабатывает POST /api/auth/login.
func (h *UserHandler) Login(c echo.Context) error {
	var req models.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, token, err := h.userService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return internalError(h.log, "failed to login user", err)
	}

	h.setAuthToken(c, token)
	return c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Me обрабатывает GET /api/auth/me.
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		}
		return internalError(h.log, "failed to get user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers обрабатывает GET /api/auth/users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to list users", err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser обрабатывает POST /api/auth/users.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req models.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCredentials),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrPasswordTooLong):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrLoginExists):
			return echo.NewHTTPError(http.StatusConflict, "username already exists")
		default:
			return internalError(h.log, "failed to create user", err)
		}
	}
	return c.JSON(http.StatusCreated, user)
}

// DeleteUser обрабатывает DELETE /api/auth/users/:id.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	currentID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.userService.DeleteUser(c.Request().Context(), currentID, id); err != nil {
		switch {
		case errors.Is(err, services.ErrDeleteSelf):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			return internalError(h.log, "failed to delete user", err)
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ChangePassword обрабатывает PUT /api/auth/password.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	err = h.userService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCredentials),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrPasswordTooLong),
			errors.Is(err, services.ErrWrongPassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		default:
			return internalError(h.log, "failed to change password", err)
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// setAuthToken устанавливает токен в cookie и заголовок ответа.
func (h *UserHandler) setAuthToken(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})

	c.Response().Header().Set("Authorization", "Bearer "+token)
}
