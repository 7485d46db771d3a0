package models

import (
	"github.com/shopspring/decimal"
)

// Period - окно статистики по дате закрытия.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod разбирает период; неизвестное значение означает «за всё время».
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s)
	default:
		return PeriodAll
	}
}

// PeriodTotals - итоги закрытых заказов за период.
type PeriodTotals struct {
	Orders     int64           `json:"orders"`
	Total      decimal.Decimal `json:"total"`
	MyEarnings decimal.Decimal `json:"my_earnings"`
}

// AllTimeTotals - итоги за всё время со средним чеком.
type AllTimeTotals struct {
	PeriodTotals
	AvgCheck decimal.Decimal `json:"avg_check"`
}

// Overview - сводная статистика.
type Overview struct {
	Today        PeriodTotals  `json:"today"`
	Week         PeriodTotals  `json:"week"`
	Month        PeriodTotals  `json:"month"`
	AllTime      AllTimeTotals `json:"allTime"`
	ActiveOrders int64         `json:"activeOrders"`
}

// MasterStatsRow - строка статистики по мастерам.
type MasterStatsRow struct {
	ID           int64           `json:"id"`
	TelegramNick string          `json:"telegram_nick"`
	OrdersCount  int64           `json:"orders_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	AvgCheck     decimal.Decimal `json:"avg_check"`
}

// SourceStatsRow - строка статистики по источникам.
type SourceStatsRow struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	OrdersCount int64           `json:"orders_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgCheck    decimal.Decimal `json:"avg_check"`
}

// CityStatsRow - строка статистики по городам.
type CityStatsRow struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	OrdersCount int64           `json:"orders_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	MyEarnings  decimal.Decimal `json:"my_earnings"`
}

// MasterTotals - общие итоги мастера.
type MasterTotals struct {
	TotalOrders int64           `json:"total_orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	AvgCheck    decimal.Decimal `json:"avg_check"`
}

// MasterMonthTotals - итоги мастера за последние 30 дней.
type MasterMonthTotals struct {
	Orders int64           `json:"orders"`
	Amount decimal.Decimal `json:"amount"`
	Earned decimal.Decimal `json:"earned"`
}

// MasterStats - карточка мастера со статистикой.
type MasterStats struct {
	Master     Master            `json:"master"`
	Stats      MasterTotals      `json:"stats"`
	MonthStats MasterMonthTotals `json:"monthStats"`
}
