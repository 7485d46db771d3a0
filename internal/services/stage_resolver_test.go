package services

import (
	"context"
	"testing"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStatuses struct {
	memStatuses
	byName int
}

func (s *countingStatuses) GetByName(ctx context.Context, name string) (*models.Status, error) {
	s.byName++
	return s.memStatuses.GetByName(ctx, name)
}

func TestStageResolver_ResolvesByNameAndCaches(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	statuses := &countingStatuses{memStatuses: memStatuses{db}}
	resolver := NewStageResolver(statuses)

	for i := 0; i < 3; i++ {
		status, err := resolver.Resolve(ctx, models.StageCompleted)
		require.NoError(t, err)
		assert.Equal(t, int64(16), status.ID)
	}
	assert.Equal(t, 1, statuses.byName)

	ok, err := resolver.Is(ctx, 14, models.StageInProgress)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.Is(ctx, 6, models.StageCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStageResolver_Missing(t *testing.T) {
	db := newMemDB()
	db.statuses = db.statuses[:3]

	_, err := NewStageResolver(memStatuses{db}).Resolve(context.Background(), models.StageInProgress)
	assert.ErrorIs(t, err, ErrStageMissing)
}
