package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOrderNumberSequence хранит счётчики месяцев в таблице order_number_counters.
// Инкремент выполняется одним UPSERT под блокировкой строки счётчика.
type PostgresOrderNumberSequence struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderNumberSequence создаёт счётчик номеров на PostgreSQL.
func NewPostgresOrderNumberSequence(pool *pgxpool.Pool) *PostgresOrderNumberSequence {
	return &PostgresOrderNumberSequence{pool: pool}
}

// Next выдаёт следующий порядковый номер месяца.
// Счётчик не отстаёт от номеров, уже записанных в orders.
func (s *PostgresOrderNumberSequence) Next(ctx context.Context, prefix string) (int, error) {
	query := `
		INSERT INTO order_number_counters (prefix, last_value)
		VALUES ($1, COALESCE((
			SELECT CAST(split_part(order_number, '-', 2) AS INTEGER)
			FROM orders
			WHERE order_number LIKE $2
			ORDER BY order_number DESC
			LIMIT 1
		), 0) + 1)
		ON CONFLICT (prefix) DO UPDATE
		SET last_value = GREATEST(order_number_counters.last_value + 1, EXCLUDED.last_value)
		RETURNING last_value
	`

	var next int
	if err := s.pool.QueryRow(ctx, query, prefix, prefix+"-%").Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment order number counter: %w", err)
	}

	return next, nil
}
