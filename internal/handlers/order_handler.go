package handlers

import (
	"errors"
	"net/http"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/numbering"
	"github.com/agamariel/mastercrm/internal/services"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GuardResponse - ответ на переход статуса, который требует действия пользователя.
type GuardResponse struct {
	Error         string `json:"error"`
	RequireMaster bool   `json:"requireMaster,omitempty"`
	RequireAmount bool   `json:"requireAmount,omitempty"`
	OrderID       int64  `json:"orderId"`
	StatusID      int64  `json:"statusId"`
}

// OrderHandler обрабатывает запросы, связанные с заказами.
type OrderHandler struct {
	orderService services.OrderService
	log          *zap.Logger
}

func NewOrderHandler(orderService services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, log: log}
}

// ListByCity обрабатывает GET /api/orders/city/:cityId.
func (h *OrderHandler) ListByCity(c echo.Context) error {
	cityID, err := parseID(c, "cityId")
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListByCity(c.Request().Context(), cityID)
	if err != nil {
		return internalError(h.log, "failed to list city orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// ListByPhone обрабатывает GET /api/orders/by-phone/:phone.
func (h *OrderHandler) ListByPhone(c echo.Context) error {
	orders, err := h.orderService.ListByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return internalError(h.log, "failed to list orders by phone", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Search обрабатывает GET /api/orders/search?q=.
func (h *OrderHandler) Search(c echo.Context) error {
	orders, err := h.orderService.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return internalError(h.log, "failed to search orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get обрабатывает GET /api/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Create обрабатывает POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var req models.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), &req)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

// Update обрабатывает PUT /api/orders/:id.
func (h *OrderHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateOrder(c.Request().Context(), id, &req)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// ChangeStatus обрабатывает PUT /api/orders/:id/status.
// Перевод в «Завершён» отклоняется с 400 и requireAmount: завершение идёт только через PUT /close с суммой.
// Отсутствующий или неизвестный status_id даёт 404.
func (h *OrderHandler) ChangeStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.ChangeStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.ChangeStatus(c.Request().Context(), id, req.StatusID, req.MasterNick)
	if err != nil {
		var guard *services.GuardViolationError
		if errors.As(err, &guard) {
			return c.JSON(http.StatusBadRequest, GuardResponse{
				Error:         guard.Unwrap().Error(),
				RequireMaster: guard.Reason == services.GuardMasterRequired,
				RequireAmount: guard.Reason == services.GuardAmountRequired,
				OrderID:       guard.OrderID,
				StatusID:      guard.StatusID,
			})
		}
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Close обрабатывает PUT /api/orders/:id/close.
func (h *OrderHandler) Close(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.CloseOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.orderService.CloseOrder(c.Request().Context(), id, req.Amount)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Delete обрабатывает DELETE /api/orders/:id.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.orderService.DeleteOrder(c.Request().Context(), id); err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *OrderHandler) orderError(err error) error {
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, storage.ErrStatusNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "status not found")
	case errors.Is(err, storage.ErrCityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "city not found")
	case errors.Is(err, storage.ErrSourceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "source not found")
	case errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, services.ErrCityRequired),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrEmptyMasterNick):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, numbering.ErrSequenceExhausted):
		return echo.NewHTTPError(http.StatusConflict, "monthly order number limit reached")
	default:
		return internalError(h.log, "order operation failed", err)
	}
}
