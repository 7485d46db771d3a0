package services

import (
	"context"
	"fmt"

	"github.com/agamariel/mastercrm/internal/models"
)

// StatusService отдаёт справочник статусов.
type StatusService interface {
	ListStatuses(ctx context.Context) ([]*models.Status, error)
}

type StatusServiceImpl struct {
	statuses StatusStorage
}

func NewStatusService(statuses StatusStorage) *StatusServiceImpl {
	return &StatusServiceImpl{statuses: statuses}
}

// ListStatuses возвращает статусы в порядке воронки.
func (s *StatusServiceImpl) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}
