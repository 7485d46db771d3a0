package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrCityExists   = errors.New("city already exists")
	ErrCityInUse    = errors.New("city has orders")
)

// PostgresCityStorage реализует хранилище городов.
type PostgresCityStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresCityStorage создаёт новый экземпляр PostgresCityStorage.
func NewPostgresCityStorage(pool *pgxpool.Pool) *PostgresCityStorage {
	return &PostgresCityStorage{pool: pool}
}

// List возвращает города со счётчиками всех заказов и заказов в статусе newStatusID.
func (s *PostgresCityStorage) List(ctx context.Context, newStatusID int64) ([]*models.CityWithCounts, error) {
	query := `
		SELECT c.id, c.name, c.sort_order, c.created_at,
			COUNT(o.id) AS order_count,
			COUNT(o.id) FILTER (WHERE o.status_id = $1) AS new_count
		FROM cities c
		LEFT JOIN orders o ON o.city_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`

	rows, err := s.pool.Query(ctx, query, newStatusID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := make([]*models.CityWithCounts, 0)
	for rows.Next() {
		var c models.CityWithCounts
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.CreatedAt, &c.OrderCount, &c.NewCount); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, &c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return cities, nil
}

// GetByID возвращает город по идентификатору.
func (s *PostgresCityStorage) GetByID(ctx context.Context, id int64) (*models.City, error) {
	return scanCity(s.pool.QueryRow(ctx, `SELECT id, name, sort_order, created_at FROM cities WHERE id = $1`, id))
}

// Create добавляет город в конец списка.
func (s *PostgresCityStorage) Create(ctx context.Context, name string) (*models.City, error) {
	var city *models.City

	err := WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE cities IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock cities: %w", err)
		}

		var sortOrder int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM cities`).Scan(&sortOrder); err != nil {
			return fmt.Errorf("failed to get next sort order: %w", err)
		}

		created, err := scanCity(tx.QueryRow(ctx, `
			INSERT INTO cities (name, sort_order, created_at)
			VALUES ($1, $2, NOW())
			RETURNING id, name, sort_order, created_at
		`, name, sortOrder))
		if err != nil {
			return err
		}
		city = created
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCityExists
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}

	return city, nil
}

// Update меняет имя и/или позицию города.
func (s *PostgresCityStorage) Update(ctx context.Context, id int64, name *string, sortOrder *int) (*models.City, error) {
	set := map[string]interface{}{}
	if name != nil {
		set["name"] = *name
	}
	if sortOrder != nil {
		set["sort_order"] = *sortOrder
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	query, args, err := psql.Update("cities").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, sort_order, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build city update: %w", err)
	}

	city, err := scanCity(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCityExists
		}
		return nil, err
	}

	return city, nil
}

// CountOrders возвращает число заказов города.
func (s *PostgresCityStorage) CountOrders(ctx context.Context, id int64) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE city_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count city orders: %w", err)
	}
	return count, nil
}

// Delete удаляет город. Город с заказами удалить нельзя.
func (s *PostgresCityStorage) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		if _, ok := foreignKeyConstraint(err); ok {
			return ErrCityInUse
		}
		return fmt.Errorf("failed to delete city: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCityNotFound
	}

	return nil
}

func scanCity(row pgx.Row) (*models.City, error) {
	var city models.City
	if err := row.Scan(&city.ID, &city.Name, &city.SortOrder, &city.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to scan city: %w", err)
	}
	return &city, nil
}
