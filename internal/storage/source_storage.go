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
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceExists   = errors.New("source already exists")
)

// PostgresSourceStorage реализует хранилище источников заявок.
type PostgresSourceStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresSourceStorage создаёт новый экземпляр PostgresSourceStorage.
func NewPostgresSourceStorage(pool *pgxpool.Pool) *PostgresSourceStorage {
	return &PostgresSourceStorage{pool: pool}
}

// List возвращает источники по алфавиту.
func (s *PostgresSourceStorage) List(ctx context.Context) ([]*models.Source, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]*models.Source, 0)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return sources, nil
}

// GetByID возвращает источник по идентификатору.
func (s *PostgresSourceStorage) GetByID(ctx context.Context, id int64) (*models.Source, error) {
	return scanSource(s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM sources WHERE id = $1`, id))
}

// Create добавляет источник.
func (s *PostgresSourceStorage) Create(ctx context.Context, name string) (*models.Source, error) {
	source, err := scanSource(s.pool.QueryRow(ctx, `
		INSERT INTO sources (name, created_at)
		VALUES ($1, NOW())
		RETURNING id, name, created_at
	`, name))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSourceExists
		}
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	return source, nil
}

// Delete удаляет источник; у заказов ссылка на него обнуляется.
func (s *PostgresSourceStorage) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSourceNotFound
	}

	return nil
}

func scanSource(row pgx.Row) (*models.Source, error) {
	var source models.Source
	if err := row.Scan(&source.ID, &source.Name, &source.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}
	return &source, nil
}
