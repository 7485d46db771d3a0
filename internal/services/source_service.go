package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/storage"
)

var ErrSourceNameRequired = errors.New("source name is required")

// SourceService определяет операции над источниками заявок.
type SourceService interface {
	ListSources(ctx context.Context) ([]*models.Source, error)
	CreateSource(ctx context.Context, name string) (*models.Source, error)
	DeleteSource(ctx context.Context, id int64) error
}

// SourceServiceImpl реализует SourceService.
type SourceServiceImpl struct {
	sources SourceStorage
}

func NewSourceService(sources SourceStorage) *SourceServiceImpl {
	return &SourceServiceImpl{sources: sources}
}

func (s *SourceServiceImpl) ListSources(ctx context.Context) ([]*models.Source, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

func (s *SourceServiceImpl) CreateSource(ctx context.Context, name string) (*models.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSourceNameRequired
	}

	source, err := s.sources.Create(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrSourceExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create source: %w", err)
	}
	return source, nil
}

// DeleteSource удаляет источник; у заказов с ним source_id становится NULL.
func (s *SourceServiceImpl) DeleteSource(ctx context.Context, id int64) error {
	return s.sources.Delete(ctx, id)
}
