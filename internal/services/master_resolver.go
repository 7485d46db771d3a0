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

// ErrEmptyMasterNick возвращается для пустого ника мастера.
var ErrEmptyMasterNick = errors.New("master nick is required")

// MasterResolver находит мастера по нику или создаёт нового.
type MasterResolver struct {
	masters MasterStorage
	log     *zap.Logger
}

// NewMasterResolver создаёт резолвер мастеров.
func NewMasterResolver(masters MasterStorage, log *zap.Logger) *MasterResolver {
	return &MasterResolver{masters: masters, log: log}
}

// Resolve возвращает мастера с ником nick (после обрезки пробелов), создавая его при отсутствии.
// Если мастера с тем же ником параллельно создал другой запрос, поиск повторяется.
func (r *MasterResolver) Resolve(ctx context.Context, nick string) (*models.Master, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return nil, ErrEmptyMasterNick
	}

	master, err := r.masters.FindByNick(ctx, nick)
	if err == nil {
		return master, nil
	}
	if !errors.Is(err, storage.ErrMasterNotFound) {
		return nil, fmt.Errorf("find master: %w", err)
	}

	master, err = r.masters.Create(ctx, nick)
	if err == nil {
		r.log.Info("master created", zap.Int64("master_id", master.ID), zap.String("telegram_nick", master.TelegramNick))
		return master, nil
	}
	if !errors.Is(err, storage.ErrMasterExists) {
		return nil, fmt.Errorf("create master: %w", err)
	}

	master, err = r.masters.FindByNick(ctx, nick)
	if err != nil {
		return nil, fmt.Errorf("find master after conflict: %w", err)
	}

	return master, nil
}
