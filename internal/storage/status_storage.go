package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrStatusNotFound = errors.New("status not found")

// PostgresStatusStorage читает этапы воронки.
type PostgresStatusStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStatusStorage создаёт новый экземпляр PostgresStatusStorage.
func NewPostgresStatusStorage(pool *pgxpool.Pool) *PostgresStatusStorage {
	return &PostgresStatusStorage{pool: pool}
}

// List возвращает статусы в порядке воронки.
func (s *PostgresStatusStorage) List(ctx context.Context) ([]*models.Status, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, color, sort_order FROM statuses ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]*models.Status, 0)
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return statuses, nil
}

// GetByID возвращает статус по идентификатору.
func (s *PostgresStatusStorage) GetByID(ctx context.Context, id int64) (*models.Status, error) {
	return scanStatus(s.pool.QueryRow(ctx, `SELECT id, name, color, sort_order FROM statuses WHERE id = $1`, id))
}

// GetByName возвращает статус по точному имени.
func (s *PostgresStatusStorage) GetByName(ctx context.Context, name string) (*models.Status, error) {
	return scanStatus(s.pool.QueryRow(ctx, `SELECT id, name, color, sort_order FROM statuses WHERE name = $1`, name))
}

func scanStatus(row pgx.Row) (*models.Status, error) {
	var status models.Status
	if err := row.Scan(&status.ID, &status.Name, &status.Color, &status.SortOrder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to scan status: %w", err)
	}
	return &status, nil
}
