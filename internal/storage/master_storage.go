package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrMasterNotFound = errors.New("master not found")
	ErrMasterExists   = errors.New("master already exists")
)

// PostgresMasterStorage реализует хранилище мастеров.
type PostgresMasterStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresMasterStorage создаёт новый экземпляр PostgresMasterStorage.
func NewPostgresMasterStorage(pool *pgxpool.Pool) *PostgresMasterStorage {
	return &PostgresMasterStorage{pool: pool}
}

// FindByNick ищет мастера по точному совпадению ника.
func (s *PostgresMasterStorage) FindByNick(ctx context.Context, nick string) (*models.Master, error) {
	query := `SELECT id, telegram_nick, created_at FROM masters WHERE telegram_nick = $1`
	return scanMaster(s.pool.QueryRow(ctx, query, nick))
}

// GetByID возвращает мастера по идентификатору.
func (s *PostgresMasterStorage) GetByID(ctx context.Context, id int64) (*models.Master, error) {
	query := `SELECT id, telegram_nick, created_at FROM masters WHERE id = $1`
	return scanMaster(s.pool.QueryRow(ctx, query, id))
}

// Create добавляет мастера. При занятом нике возвращает ErrMasterExists.
func (s *PostgresMasterStorage) Create(ctx context.Context, nick string) (*models.Master, error) {
	query := `
		INSERT INTO masters (telegram_nick, created_at)
		VALUES ($1, NOW())
		RETURNING id, telegram_nick, created_at
	`

	master, err := scanMaster(s.pool.QueryRow(ctx, query, nick))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrMasterExists
		}
		return nil, fmt.Errorf("failed to create master: %w", err)
	}

	return master, nil
}

// ListWithTotals возвращает мастеров с итогами закрытых заказов.
func (s *PostgresMasterStorage) ListWithTotals(ctx context.Context) ([]*models.MasterWithTotals, error) {
	query := `
		SELECT m.id, m.telegram_nick, m.created_at,
			COUNT(o.id) AS total_orders,
			COALESCE(SUM(o.master_share), 0) AS total_earned,
			COALESCE(AVG(o.amount), 0) AS avg_check
		FROM masters m
		LEFT JOIN orders o ON o.master_id = m.id AND o.closed_at IS NOT NULL
		GROUP BY m.id
		ORDER BY m.telegram_nick
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query masters: %w", err)
	}
	defer rows.Close()

	masters := make([]*models.MasterWithTotals, 0)
	for rows.Next() {
		var m models.MasterWithTotals
		if err := rows.Scan(&m.ID, &m.TelegramNick, &m.CreatedAt, &m.TotalOrders, &m.TotalEarned, &m.AvgCheck); err != nil {
			return nil, fmt.Errorf("failed to scan master: %w", err)
		}
		masters = append(masters, &m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return masters, nil
}

// Totals возвращает итоги мастера за всё время и за последние 30 дней.
func (s *PostgresMasterStorage) Totals(ctx context.Context, id int64) (*models.MasterTotals, *models.MasterMonthTotals, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(master_share), 0),
			COALESCE(AVG(amount), 0),
			COUNT(*) FILTER (WHERE closed_at >= NOW() - INTERVAL '30 days'),
			COALESCE(SUM(amount) FILTER (WHERE closed_at >= NOW() - INTERVAL '30 days'), 0),
			COALESCE(SUM(master_share) FILTER (WHERE closed_at >= NOW() - INTERVAL '30 days'), 0)
		FROM orders
		WHERE master_id = $1 AND closed_at IS NOT NULL
	`

	var (
		total models.MasterTotals
		month models.MasterMonthTotals
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&total.TotalOrders,
		&total.TotalAmount,
		&total.TotalEarned,
		&total.AvgCheck,
		&month.Orders,
		&month.Amount,
		&month.Earned,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query master totals: %w", err)
	}

	return &total, &month, nil
}

func scanMaster(row pgx.Row) (*models.Master, error) {
	var master models.Master
	if err := row.Scan(&master.ID, &master.TelegramNick, &master.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("failed to scan master: %w", err)
	}
	return &master, nil
}
