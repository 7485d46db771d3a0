package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/services"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CityHandler обрабатывает /api/cities.
type CityHandler struct {
	cityService services.CityService
	log         *zap.Logger
}

func NewCityHandler(cityService services.CityService, log *zap.Logger) *CityHandler {
	return &CityHandler{cityService: cityService, log: log}
}

// List обрабатывает GET /api/cities.
func (h *CityHandler) List(c echo.Context) error {
	cities, err := h.cityService.ListCities(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to list cities", err)
	}
	return c.JSON(http.StatusOK, cities)
}

// Create обрабатывает POST /api/cities.
func (h *CityHandler) Create(c echo.Context) error {
	var req models.CityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Name == nil {
		return echo.NewHTTPError(http.StatusBadRequest, services.ErrCityNameRequired.Error())
	}

	city, err := h.cityService.CreateCity(c.Request().Context(), *req.Name)
	if err != nil {
		return h.cityError(err)
	}
	return c.JSON(http.StatusCreated, city)
}

// Update обрабатывает PUT /api/cities/:id.
func (h *CityHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.CityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	city, err := h.cityService.UpdateCity(c.Request().Context(), id, &req)
	if err != nil {
		return h.cityError(err)
	}
	return c.JSON(http.StatusOK, city)
}

// Delete обрабатывает DELETE /api/cities/:id.
func (h *CityHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.cityService.DeleteCity(c.Request().Context(), id); err != nil {
		return h.cityError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *CityHandler) cityError(err error) error {
	switch {
	case errors.Is(err, services.ErrCityNameRequired), errors.Is(err, services.ErrCityHasOrders):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrCityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "city not found")
	case errors.Is(err, storage.ErrCityExists):
		return echo.NewHTTPError(http.StatusConflict, "city already exists")
	default:
		return internalError(h.log, "city operation failed", err)
	}
}

// StatusHandler обрабатывает /api/statuses.
type StatusHandler struct {
	statusService services.StatusService
	log           *zap.Logger
}

func NewStatusHandler(statusService services.StatusService, log *zap.Logger) *StatusHandler {
	return &StatusHandler{statusService: statusService, log: log}
}

// List обрабатывает GET /api/statuses.
func (h *StatusHandler) List(c echo.Context) error {
	statuses, err := h.statusService.ListStatuses(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to list statuses", err)
	}
	return c.JSON(http.StatusOK, statuses)
}

// SourceHandler обрабатывает /api/sources.
type SourceHandler struct {
	sourceService services.SourceService
	log           *zap.Logger
}

func NewSourceHandler(sourceService services.SourceService, log *zap.Logger) *SourceHandler {
	return &SourceHandler{sourceService: sourceService, log: log}
}

// List обрабатывает GET /api/sources.
func (h *SourceHandler) List(c echo.Context) error {
	sources, err := h.sourceService.ListSources(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to list sources", err)
	}
	return c.JSON(http.StatusOK, sources)
}

// Create обрабатывает POST /api/sources.
func (h *SourceHandler) Create(c echo.Context) error {
	var req models.SourceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	source, err := h.sourceService.CreateSource(c.Request().Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSourceNameRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrSourceExists):
			return echo.NewHTTPError(http.StatusConflict, "source already exists")
		default:
			return internalError(h.log, "failed to create source", err)
		}
	}
	return c.JSON(http.StatusCreated, source)
}

// Delete обрабатывает DELETE /api/sources/:id.
func (h *SourceHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.sourceService.DeleteSource(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrSourceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "source not found")
		}
		return internalError(h.log, "failed to delete source", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// MasterHandler обрабатывает /api/masters.
type MasterHandler struct {
	masterService services.MasterService
	log           *zap.Logger
}

func NewMasterHandler(masterService services.MasterService, log *zap.Logger) *MasterHandler {
	return &MasterHandler{masterService: masterService, log: log}
}

// List обрабатывает GET /api/masters.
func (h *MasterHandler) List(c echo.Context) error {
	masters, err := h.masterService.ListMasters(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to list masters", err)
	}
	return c.JSON(http.StatusOK, masters)
}

// FindOrCreate обрабатывает POST /api/masters/find-or-create.
func (h *MasterHandler) FindOrCreate(c echo.Context) error {
	var req models.FindOrCreateMasterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	master, err := h.masterService.FindOrCreate(c.Request().Context(), req.TelegramNick)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMasterNick) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return internalError(h.log, "failed to resolve master", err)
	}
	return c.JSON(http.StatusOK, master)
}

// Stats обрабатывает GET /api/masters/:id/stats.
func (h *MasterHandler) Stats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.masterService.MasterStats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrMasterNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "master not found")
		}
		return internalError(h.log, "failed to get master stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Pinger проверяет доступность базы.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает GET /api/health.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
