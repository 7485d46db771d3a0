package numbering

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UnnumberedOrder - заказ без номера, ожидающий бэкфилла.
type UnnumberedOrder struct {
	ID        int64
	CreatedAt time.Time
}

// BackfillStore даёт доступ к заказам без номеров.
type BackfillStore interface {
	// ListUnnumbered возвращает заказы без номера в порядке создания.
	ListUnnumbered(ctx context.Context) ([]UnnumberedOrder, error)
	AssignNumber(ctx context.Context, orderID int64, number string) error
}

// Backfiller присваивает номера заказам, созданным до появления нумерации.
type Backfiller struct {
	store     BackfillStore
	allocator *Allocator
	log       *zap.Logger
}

// NewBackfiller создаёт бэкфиллер.
func NewBackfiller(store BackfillStore, allocator *Allocator, log *zap.Logger) *Backfiller {
	return &Backfiller{store: store, allocator: allocator, log: log}
}

// Run нумерует заказы по месяцу их создания и возвращает число пронумерованных.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	orders, err := b.store.ListUnnumbered(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unnumbered orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	b.log.Info("backfilling order numbers", zap.Int("orders", len(orders)))

	for i, o := range orders {
		number, err := b.allocator.AllocateFor(ctx, o.CreatedAt)
		if err != nil {
			return i, fmt.Errorf("allocate number for order %d: %w", o.ID, err)
		}
		if err := b.store.AssignNumber(ctx, o.ID, number); err != nil {
			return i, fmt.Errorf("assign number to order %d: %w", o.ID, err)
		}
		b.log.Debug("order number assigned", zap.Int64("order_id", o.ID), zap.String("number", number))
	}

	return len(orders), nil
}
