package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrCityNameRequired = errors.New("city name is required")
	ErrCityHasOrders    = errors.New("city has orders and cannot be deleted")
)

// CityService определяет операции над городами.
type CityService interface {
	ListCities(ctx context.Context) ([]*models.CityWithCounts, error)
	CreateCity(ctx context.Context, name string) (*models.City, error)
	UpdateCity(ctx context.Context, id int64, req *models.CityRequest) (*models.City, error)
	DeleteCity(ctx context.Context, id int64) error
}

// CityServiceImpl реализует CityService.
type CityServiceImpl struct {
	cities CityStorage
	stages *StageResolver
	log    *zap.Logger
}

// NewCityService создаёт сервис городов.
func NewCityService(cities CityStorage, stages *StageResolver, log *zap.Logger) *CityServiceImpl {
	return &CityServiceImpl{cities: cities, stages: stages, log: log}
}

// ListCities возвращает города с числом всех заказов и заказов в статусе «Новый».
func (s *CityServiceImpl) ListCities(ctx context.Context) ([]*models.CityWithCounts, error) {
	initial, err := s.stages.Resolve(ctx, models.StageNew)
	if err != nil {
		return nil, err
	}

	cities, err := s.cities.List(ctx, initial.ID)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// CreateCity добавляет город в конец списка.
func (s *CityServiceImpl) CreateCity(ctx context.Context, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCityNameRequired
	}

	city, err := s.cities.Create(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrCityExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create city: %w", err)
	}

	s.log.Info("city created", zap.Int64("city_id", city.ID), zap.String("name", city.Name))
	return city, nil
}

// UpdateCity меняет название и/или позицию города.
func (s *CityServiceImpl) UpdateCity(ctx context.Context, id int64, req *models.CityRequest) (*models.City, error) {
	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, ErrCityNameRequired
		}
		name = &trimmed
	}

	city, err := s.cities.Update(ctx, id, name, req.SortOrder)
	if err != nil {
		if errors.Is(err, storage.ErrCityNotFound) || errors.Is(err, storage.ErrCityExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update city: %w", err)
	}
	return city, nil
}

// DeleteCity удаляет город без заказов.
func (s *CityServiceImpl) DeleteCity(ctx context.Context, id int64) error {
	count, err := s.cities.CountOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("count city orders: %w", err)
	}
	if count > 0 {
		return ErrCityHasOrders
	}

	if err := s.cities.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCityInUse) {
			return ErrCityHasOrders
		}
		return err
	}

	s.log.Info("city deleted", zap.Int64("city_id", id))
	return nil
}
