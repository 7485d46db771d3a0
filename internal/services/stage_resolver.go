package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/storage"
)

// ErrStageMissing возвращается, когда в справочнике нет статуса с каноническим именем этапа.
var ErrStageMissing = errors.New("well-known stage is missing from statuses")

// StageResolver сопоставляет известные этапы со строками справочника статусов по имени.
// Найденные статусы кешируются на время жизни процесса.
type StageResolver struct {
	statuses StatusStorage

	mu    sync.RWMutex
	cache map[models.Stage]*models.Status
}

// NewStageResolver создаёт резолвер этапов.
func NewStageResolver(statuses StatusStorage) *StageResolver {
	return &StageResolver{
		statuses: statuses,
		cache:    make(map[models.Stage]*models.Status),
	}
}

// Resolve возвращает статус для этапа.
func (r *StageResolver) Resolve(ctx context.Context, stage models.Stage) (*models.Status, error) {
	r.mu.RLock()
	status, ok := r.cache[stage]
	r.mu.RUnlock()
	if ok {
		return status, nil
	}

	status, err := r.statuses.GetByName(ctx, stage.Name())
	if err != nil {
		if errors.Is(err, storage.ErrStatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStageMissing, stage)
		}
		return nil, fmt.Errorf("resolve stage %s: %w", stage, err)
	}

	r.mu.Lock()
	r.cache[stage] = status
	r.mu.Unlock()

	return status, nil
}

// Is сообщает, является ли statusID статусом этапа stage.
func (r *StageResolver) Is(ctx context.Context, statusID int64, stage models.Stage) (bool, error) {
	status, err := r.Resolve(ctx, stage)
	if err != nil {
		return false, err
	}
	return status.ID == statusID, nil
}
