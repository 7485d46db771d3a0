package services

import (
	"context"
	"fmt"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/sourcegraph/conc/pool"
)

// StatsService считает сводную статистику по закрытым заказам.
type StatsService interface {
	Overview(ctx context.Context) (*models.Overview, error)
	ByMaster(ctx context.Context, p models.Period) ([]*models.MasterStatsRow, error)
	BySource(ctx context.Context, p models.Period) ([]*models.SourceStatsRow, error)
	ByCity(ctx context.Context, p models.Period) ([]*models.CityStatsRow, error)
}

// StatsServiceImpl реализует StatsService.
type StatsServiceImpl struct {
	stats StatsStorage
}

func NewStatsService(stats StatsStorage) *StatsServiceImpl {
	return &StatsServiceImpl{stats: stats}
}

// Overview собирает итоги за день, неделю, месяц и всё время параллельно.
func (s *StatsServiceImpl) Overview(ctx context.Context) (*models.Overview, error) {
	var overview models.Overview

	p := pool.New().WithContext(ctx).WithCancelOnError()

	periods := []struct {
		period models.Period
		dst    *models.PeriodTotals
	}{
		{models.PeriodDay, &overview.Today},
		{models.PeriodWeek, &overview.Week},
		{models.PeriodMonth, &overview.Month},
	}
	for _, item := range periods {
		p.Go(func(ctx context.Context) error {
			totals, err := s.stats.Totals(ctx, item.period)
			if err != nil {
				return fmt.Errorf("%s totals: %w", item.period, err)
			}
			*item.dst = *totals
			return nil
		})
	}

	p.Go(func(ctx context.Context) error {
		totals, err := s.stats.AllTimeTotals(ctx)
		if err != nil {
			return fmt.Errorf("all-time totals: %w", err)
		}
		overview.AllTime = *totals
		return nil
	})

	p.Go(func(ctx context.Context) error {
		active, err := s.stats.ActiveOrders(ctx)
		if err != nil {
			return fmt.Errorf("active orders: %w", err)
		}
		overview.ActiveOrders = active
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &overview, nil
}

func (s *StatsServiceImpl) ByMaster(ctx context.Context, p models.Period) ([]*models.MasterStatsRow, error) {
	return s.stats.ByMaster(ctx, p)
}

func (s *StatsServiceImpl) BySource(ctx context.Context, p models.Period) ([]*models.SourceStatsRow, error) {
	return s.stats.BySource(ctx, p)
}

func (s *StatsServiceImpl) ByCity(ctx context.Context, p models.Period) ([]*models.CityStatsRow, error) {
	return s.stats.ByCity(ctx, p)
}
