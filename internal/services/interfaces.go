package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/google/uuid"
)

// OrderStorage определяет интерфейс для работы с заказами.
type OrderStorage interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetView(ctx context.Context, id int64) (*models.OrderView, error)
	ListByCity(ctx context.Context, cityID int64) ([]*models.OrderView, error)
	ListByPhone(ctx context.Context, phone string, limit uint64) ([]*models.OrderView, error)
	Search(ctx context.Context, q string, limit uint64) ([]*models.OrderView, error)
	Update(ctx context.Context, id int64, fields models.OrderFields) error
	UpdateStatus(ctx context.Context, id, statusID int64, masterID null.Int64) error
	Close(ctx context.Context, id int64, closeOut models.CloseOut) error
	Delete(ctx context.Context, id int64) error
}

// StatusStorage определяет интерфейс для чтения статусов.
type StatusStorage interface {
	List(ctx context.Context) ([]*models.Status, error)
	GetByID(ctx context.Context, id int64) (*models.Status, error)
	GetByName(ctx context.Context, name string) (*models.Status, error)
}

// MasterStorage определяет интерфейс для работы с мастерами.
// Поиск и создание разделены: создание всегда явный шаг вызывающего кода.
type MasterStorage interface {
	FindByNick(ctx context.Context, nick string) (*models.Master, error)
	Create(ctx context.Context, nick string) (*models.Master, error)
	GetByID(ctx context.Context, id int64) (*models.Master, error)
	ListWithTotals(ctx context.Context) ([]*models.MasterWithTotals, error)
	Totals(ctx context.Context, id int64) (*models.MasterTotals, *models.MasterMonthTotals, error)
}

// CityStorage определяет интерфейс для работы с городами.
type CityStorage interface {
	List(ctx context.Context, newStatusID int64) ([]*models.CityWithCounts, error)
	GetByID(ctx context.Context, id int64) (*models.City, error)
	Create(ctx context.Context, name string) (*models.City, error)
	Update(ctx context.Context, id int64, name *string, sortOrder *int) (*models.City, error)
	CountOrders(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// SourceStorage определяет интерфейс для работы с источниками.
type SourceStorage interface {
	List(ctx context.Context) ([]*models.Source, error)
	GetByID(ctx context.Context, id int64) (*models.Source, error)
	Create(ctx context.Context, name string) (*models.Source, error)
	Delete(ctx context.Context, id int64) error
}

// UserStorage определяет интерфейс для работы с пользователями.
type UserStorage interface {
	Create(ctx context.Context, user *models.User) error
	CreateFirst(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StatsStorage определяет интерфейс агрегатов статистики.
type StatsStorage interface {
	Totals(ctx context.Context, p models.Period) (*models.PeriodTotals, error)
	AllTimeTotals(ctx context.Context) (*models.AllTimeTotals, error)
	ActiveOrders(ctx context.Context) (int64, error)
	ByMaster(ctx context.Context, p models.Period) ([]*models.MasterStatsRow, error)
	BySource(ctx context.Context, p models.Period) ([]*models.SourceStatsRow, error)
	ByCity(ctx context.Context, p models.Period) ([]*models.CityStatsRow, error)
}
