package services

import (
	"context"
	"fmt"

	"github.com/agamariel/mastercrm/internal/models"
)

// MasterService определяет операции над мастерами.
type MasterService interface {
	ListMasters(ctx context.Context) ([]*models.MasterWithTotals, error)
	FindOrCreate(ctx context.Context, nick string) (*models.Master, error)
	MasterStats(ctx context.Context, id int64) (*models.MasterStats, error)
}

// MasterServiceImpl реализует MasterService.
type MasterServiceImpl struct {
	masters  MasterStorage
	resolver *MasterResolver
}

// NewMasterService создаёт сервис мастеров.
func NewMasterService(masters MasterStorage, resolver *MasterResolver) *MasterServiceImpl {
	return &MasterServiceImpl{masters: masters, resolver: resolver}
}

// ListMasters возвращает мастеров с итогами по закрытым заказам.
func (s *MasterServiceImpl) ListMasters(ctx context.Context) ([]*models.MasterWithTotals, error) {
	masters, err := s.masters.ListWithTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list masters: %w", err)
	}
	return masters, nil
}

// FindOrCreate возвращает мастера по нику, создавая его при отсутствии.
func (s *MasterServiceImpl) FindOrCreate(ctx context.Context, nick string) (*models.Master, error) {
	return s.resolver.Resolve(ctx, nick)
}

// MasterStats возвращает карточку мастера: итоги за всё время и за последние 30 дней.
func (s *MasterServiceImpl) MasterStats(ctx context.Context, id int64) (*models.MasterStats, error) {
	master, err := s.masters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, month, err := s.masters.Totals(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("master totals: %w", err)
	}

	return &models.MasterStats{
		Master:     *master,
		Stats:      *totals,
		MonthStats: *month,
	}, nil
}
