package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var masterStatsHeaders = []interface{}{"Мастер", "Заказов", "Сумма", "Заработок мастера", "Средний чек"}

// StatsHandler обрабатывает /api/stats.
type StatsHandler struct {
	statsService services.StatsService
	log          *zap.Logger
}

func NewStatsHandler(statsService services.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, log: log}
}

// Overview обрабатывает GET /api/stats/overview.
func (h *StatsHandler) Overview(c echo.Context) error {
	overview, err := h.statsService.Overview(c.Request().Context())
	if err != nil {
		return internalError(h.log, "failed to build overview", err)
	}
	return c.JSON(http.StatusOK, overview)
}

// Masters обрабатывает GET /api/stats/masters?period=.
func (h *StatsHandler) Masters(c echo.Context) error {
	rows, err := h.statsService.ByMaster(c.Request().Context(), models.ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return internalError(h.log, "failed to get master stats", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Sources обрабатывает GET /api/stats/sources?period=.
func (h *StatsHandler) Sources(c echo.Context) error {
	rows, err := h.statsService.BySource(c.Request().Context(), models.ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return internalError(h.log, "failed to get source stats", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Cities обрабатывает GET /api/stats/cities?period=.
func (h *StatsHandler) Cities(c echo.Context) error {
	rows, err := h.statsService.ByCity(c.Request().Context(), models.ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return internalError(h.log, "failed to get city stats", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ExportMasters обрабатывает GET /api/stats/masters/export?period= и отдаёт XLSX.
func (h *StatsHandler) ExportMasters(c echo.Context) error {
	period := models.ParsePeriod(c.QueryParam("period"))

	rows, err := h.statsService.ByMaster(c.Request().Context(), period)
	if err != nil {
		return internalError(h.log, "failed to get master stats", err)
	}

	f, err := masterStatsWorkbook(rows)
	if err != nil {
		return internalError(h.log, "failed to build workbook", err)
	}
	defer f.Close()

	fileName := fmt.Sprintf("masters_%s_%s.xlsx", period, time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}

func masterStatsWorkbook(rows []*models.MasterStatsRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Мастера"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &masterStatsHeaders); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", style); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		total, _ := r.TotalAmount.Float64()
		earned, _ := r.TotalEarned.Float64()
		avg, _ := r.AvgCheck.Round(2).Float64()
		row := []interface{}{r.TelegramNick, r.OrdersCount, total, earned, avg}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "E", 18); err != nil {
		return nil, err
	}

	return f, nil
}
