package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// City - город, в котором ведётся отдельная доска заказов.
type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// CityWithCounts - город со счётчиками заказов.
type CityWithCounts struct {
	City
	OrderCount int64 `json:"order_count"`
	NewCount   int64 `json:"new_count"`
}

// CityRequest - создание или изменение города.
type CityRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1"`
	SortOrder *int    `json:"sort_order"`
}

// Source - источник заявок.
type Source struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceRequest - создание источника.
type SourceRequest struct {
	Name string `json:"name" validate:"required"`
}

// Master - мастер, идентифицируемый ником в Telegram.
type Master struct {
	ID           int64     `json:"id"`
	TelegramNick string    `json:"telegram_nick"`
	CreatedAt    time.Time `json:"created_at"`
}

// MasterWithTotals - мастер с итогами по закрытым заказам.
type MasterWithTotals struct {
	Master
	TotalOrders int64           `json:"total_orders"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	AvgCheck    decimal.Decimal `json:"avg_check"`
}

// FindOrCreateMasterRequest - запрос поиска или создания мастера.
type FindOrCreateMasterRequest struct {
	TelegramNick string `json:"telegram_nick"`
}
