package storage

import (
	"context"

	"github.com/agamariel/mastercrm/internal/models"
)

// MockMasterStorage - мок хранилища мастеров.
type MockMasterStorage struct {
	FindByNickFunc     func(ctx context.Context, nick string) (*models.Master, error)
	CreateFunc         func(ctx context.Context, nick string) (*models.Master, error)
	GetByIDFunc        func(ctx context.Context, id int64) (*models.Master, error)
	ListWithTotalsFunc func(ctx context.Context) ([]*models.MasterWithTotals, error)
	TotalsFunc         func(ctx context.Context, id int64) (*models.MasterTotals, *models.MasterMonthTotals, error)
}

func (m *MockMasterStorage) FindByNick(ctx context.Context, nick string) (*models.Master, error) {
	if m.FindByNickFunc != nil {
		return m.FindByNickFunc(ctx, nick)
	}
	return nil, ErrMasterNotFound
}

func (m *MockMasterStorage) Create(ctx context.Context, nick string) (*models.Master, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, nick)
	}
	return &models.Master{ID: 1, TelegramNick: nick}, nil
}

func (m *MockMasterStorage) GetByID(ctx context.Context, id int64) (*models.Master, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrMasterNotFound
}

func (m *MockMasterStorage) ListWithTotals(ctx context.Context) ([]*models.MasterWithTotals, error) {
	if m.ListWithTotalsFunc != nil {
		return m.ListWithTotalsFunc(ctx)
	}
	return []*models.MasterWithTotals{}, nil
}

func (m *MockMasterStorage) Totals(ctx context.Context, id int64) (*models.MasterTotals, *models.MasterMonthTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, id)
	}
	return &models.MasterTotals{}, &models.MasterMonthTotals{}, nil
}
