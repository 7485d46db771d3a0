package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStatsStorage считает агрегаты по закрытым заказам.
type PostgresStatsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStatsStorage создаёт новый экземпляр PostgresStatsStorage.
func NewPostgresStatsStorage(pool *pgxpool.Pool) *PostgresStatsStorage {
	return &PostgresStatsStorage{pool: pool}
}

// periodCondition - условие на o.closed_at для периода; пустая строка для «всё время».
func periodCondition(p models.Period) string {
	switch p {
	case models.PeriodDay:
		return "o.closed_at >= date_trunc('day', NOW())"
	case models.PeriodWeek:
		return "o.closed_at >= NOW() - INTERVAL '7 days'"
	case models.PeriodMonth:
		return "o.closed_at >= NOW() - INTERVAL '30 days'"
	default:
		return ""
	}
}

func closedJoin(on string, p models.Period) string {
	join := "orders o ON " + on + " AND o.closed_at IS NOT NULL"
	if cond := periodCondition(p); cond != "" {
		join += " AND " + cond
	}
	return join
}

// Totals возвращает число закрытых заказов, выручку и долю владельца за период.
func (s *PostgresStatsStorage) Totals(ctx context.Context, p models.Period) (*models.PeriodTotals, error) {
	builder := psql.
		Select("COUNT(*)", "COALESCE(SUM(o.amount), 0)", "COALESCE(SUM(o.my_share), 0)").
		From("orders o").
		Where("o.closed_at IS NOT NULL")
	if cond := periodCondition(p); cond != "" {
		builder = builder.Where(cond)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build totals query: %w", err)
	}

	var totals models.PeriodTotals
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&totals.Orders, &totals.Total, &totals.MyEarnings); err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	return &totals, nil
}

// AllTimeTotals возвращает итоги за всё время со средним чеком.
func (s *PostgresStatsStorage) AllTimeTotals(ctx context.Context) (*models.AllTimeTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(my_share), 0), COALESCE(AVG(amount), 0)
		FROM orders
		WHERE closed_at IS NOT NULL
	`

	var totals models.AllTimeTotals
	err := s.pool.QueryRow(ctx, query).Scan(&totals.Orders, &totals.Total, &totals.MyEarnings, &totals.AvgCheck)
	if err != nil {
		return nil, fmt.Errorf("failed to query all-time totals: %w", err)
	}

	return &totals, nil
}

// ActiveOrders возвращает число незакрытых заказов.
func (s *PostgresStatsStorage) ActiveOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE closed_at IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

// ByMaster возвращает статистику мастеров, у которых есть закрытые заказы за период.
func (s *PostgresStatsStorage) ByMaster(ctx context.Context, p models.Period) ([]*models.MasterStatsRow, error) {
	builder := psql.
		Select(
			"m.id",
			"m.telegram_nick",
			"COUNT(o.id) AS orders_count",
			"COALESCE(SUM(o.amount), 0) AS total_amount",
			"COALESCE(SUM(o.master_share), 0) AS total_earned",
			"COALESCE(AVG(o.amount), 0) AS avg_check",
		).
		From("masters m").
		LeftJoin(closedJoin("o.master_id = m.id", p)).
		GroupBy("m.id").
		Having("COUNT(o.id) > 0").
		OrderBy("total_amount DESC", "m.telegram_nick")

	return collectStats(ctx, s.pool, builder, func(row pgx.Rows) (*models.MasterStatsRow, error) {
		var r models.MasterStatsRow
		err := row.Scan(&r.ID, &r.TelegramNick, &r.OrdersCount, &r.TotalAmount, &r.TotalEarned, &r.AvgCheck)
		return &r, err
	})
}

// BySource возвращает статистику по источникам за период.
func (s *PostgresStatsStorage) BySource(ctx context.Context, p models.Period) ([]*models.SourceStatsRow, error) {
	builder := psql.
		Select(
			"src.id",
			"src.name",
			"COUNT(o.id) AS orders_count",
			"COALESCE(SUM(o.amount), 0) AS total_amount",
			"COALESCE(AVG(o.amount), 0) AS avg_check",
		).
		From("sources src").
		LeftJoin(closedJoin("o.source_id = src.id", p)).
		GroupBy("src.id").
		OrderBy("orders_count DESC", "src.name")

	return collectStats(ctx, s.pool, builder, func(row pgx.Rows) (*models.SourceStatsRow, error) {
		var r models.SourceStatsRow
		err := row.Scan(&r.ID, &r.Name, &r.OrdersCount, &r.TotalAmount, &r.AvgCheck)
		return &r, err
	})
}

// ByCity возвращает статистику по городам за период.
func (s *PostgresStatsStorage) ByCity(ctx context.Context, p models.Period) ([]*models.CityStatsRow, error) {
	builder := psql.
		Select(
			"c.id",
			"c.name",
			"COUNT(o.id) AS orders_count",
			"COALESCE(SUM(o.amount), 0) AS total_amount",
			"COALESCE(SUM(o.my_share), 0) AS my_earnings",
		).
		From("cities c").
		LeftJoin(closedJoin("o.city_id = c.id", p)).
		GroupBy("c.id").
		OrderBy("orders_count DESC", "c.name")

	return collectStats(ctx, s.pool, builder, func(row pgx.Rows) (*models.CityStatsRow, error) {
		var r models.CityStatsRow
		err := row.Scan(&r.ID, &r.Name, &r.OrdersCount, &r.TotalAmount, &r.MyEarnings)
		return &r, err
	})
}

func collectStats[T any](ctx context.Context, pool *pgxpool.Pool, builder sq.SelectBuilder, scan func(pgx.Rows) (*T, error)) ([]*T, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	result := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		result = append(result, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return result, nil
}
