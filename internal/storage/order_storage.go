package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/numbering"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNumberTaken = errors.New("order number already taken")
)

const orderColumns = `o.id, o.order_number, o.city_id, o.status_id, o.source_id, o.master_id,
	o.address, o.metro, o.problem, o.comment, o.phone, o.client_name, o.scheduled_time, o.recording_url,
	o.amount, o.my_share, o.master_share, o.closed_at, o.created_at, o.updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresOrderStorage реализует хранилище заказов для PostgreSQL.
type PostgresOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStorage создаёт новый экземпляр PostgresOrderStorage.
func NewPostgresOrderStorage(pool *pgxpool.Pool) *PostgresOrderStorage {
	return &PostgresOrderStorage{pool: pool}
}

// Create создаёт новый заказ.
func (s *PostgresOrderStorage) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			order_number, city_id, status_id, source_id, master_id,
			address, metro, problem, comment, phone, client_name, scheduled_time, recording_url,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		order.OrderNumber,
		order.CityID,
		order.StatusID,
		order.SourceID,
		order.MasterID,
		order.Address,
		order.Metro,
		order.Problem,
		order.Comment,
		order.Phone,
		order.ClientName,
		order.ScheduledTime,
		order.RecordingURL,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderNumberTaken
		}
		if mapped := mapOrderForeignKey(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID возвращает заказ без справочных полей.
func (s *PostgresOrderStorage) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	return scanOrder(s.pool.QueryRow(ctx, query, id))
}

// GetView возвращает заказ с названиями статуса, источника, мастера и города.
func (s *PostgresOrderStorage) GetView(ctx context.Context, id int64) (*models.OrderView, error) {
	query, args, err := orderViewQuery().Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order query: %w", err)
	}
	return scanOrderView(s.pool.QueryRow(ctx, query, args...))
}

// ListByCity возвращает заказы города для канбана (новые сверху).
func (s *PostgresOrderStorage) ListByCity(ctx context.Context, cityID int64) ([]*models.OrderView, error) {
	return s.listViews(ctx, orderViewQuery().
		Where(sq.Eq{"o.city_id": cityID}).
		OrderBy("o.created_at DESC", "o.id DESC"))
}

// ListByPhone возвращает историю заказов клиента по точному номеру.
func (s *PostgresOrderStorage) ListByPhone(ctx context.Context, phone string, limit uint64) ([]*models.OrderView, error) {
	return s.listViews(ctx, orderViewQuery().
		Where(sq.Eq{"o.phone": phone}).
		OrderBy("o.created_at DESC", "o.id DESC").
		Limit(limit))
}

// Search ищет подстроку в адресе, метро, телефоне, имени клиента, проблеме и нике мастера.
func (s *PostgresOrderStorage) Search(ctx context.Context, q string, limit uint64) ([]*models.OrderView, error) {
	term := "%" + likeEscaper.Replace(q) + "%"

	return s.listViews(ctx, orderViewQuery().
		Where(sq.Or{
			sq.ILike{"o.address": term},
			sq.ILike{"o.metro": term},
			sq.ILike{"o.phone": term},
			sq.ILike{"o.client_name": term},
			sq.ILike{"o.problem": term},
			sq.ILike{"m.telegram_nick": term},
		}).
		OrderBy("o.created_at DESC", "o.id DESC").
		Limit(limit))
}

// Update частично обновляет поля заказа. Город, статус и финансы здесь не меняются.
func (s *PostgresOrderStorage) Update(ctx context.Context, id int64, fields models.OrderFields) error {
	set := map[string]interface{}{"updated_at": sq.Expr("NOW()")}
	if fields.SourceID != nil {
		set["source_id"] = *fields.SourceID
	}
	if fields.MasterID != nil {
		set["master_id"] = *fields.MasterID
	}
	for column, value := range map[string]*null.String{
		"address":        fields.Address,
		"metro":          fields.Metro,
		"problem":        fields.Problem,
		"comment":        fields.Comment,
		"phone":          fields.Phone,
		"client_name":    fields.ClientName,
		"scheduled_time": fields.ScheduledTime,
		"recording_url":  fields.RecordingURL,
	} {
		if value != nil {
			set[column] = *value
		}
	}

	query, args, err := psql.Update("orders").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build order update: %w", err)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		if mapped := mapOrderForeignKey(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdateStatus переводит заказ в статус и, если masterID задан, назначает мастера одним запросом.
func (s *PostgresOrderStorage) UpdateStatus(ctx context.Context, id, statusID int64, masterID null.Int64) error {
	query := `
		UPDATE orders
		SET status_id = $1, master_id = COALESCE($2, master_id), updated_at = NOW()
		WHERE id = $3
	`

	result, err := s.pool.Exec(ctx, query, statusID, masterID, id)
	if err != nil {
		if mapped := mapOrderForeignKey(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Close записывает сумму, доли и финальный статус одним запросом.
// Время закрытия ставится только при первом закрытии.
func (s *PostgresOrderStorage) Close(ctx context.Context, id int64, closeOut models.CloseOut) error {
	query := `
		UPDATE orders
		SET status_id = $1,
			amount = $2,
			my_share = $3,
			master_share = $4,
			closed_at = COALESCE(closed_at, NOW()),
			updated_at = NOW()
		WHERE id = $5
	`

	result, err := s.pool.Exec(ctx, query,
		closeOut.StatusID,
		closeOut.Amount,
		closeOut.MyShare,
		closeOut.MasterShare,
		id,
	)
	if err != nil {
		if mapped := mapOrderForeignKey(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to close order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Delete удаляет заказ.
func (s *PostgresOrderStorage) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// LastNumber возвращает наибольший номер заказа за месяц prefix.
func (s *PostgresOrderStorage) LastNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT order_number
		FROM orders
		WHERE order_number LIKE $1
		ORDER BY order_number DESC
		LIMIT 1
	`

	var number string
	err := s.pool.QueryRow(ctx, query, prefix+"-%").Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last order number: %w", err)
	}

	return number, nil
}

// ListUnnumbered возвращает заказы без номера в порядке создания.
func (s *PostgresOrderStorage) ListUnnumbered(ctx context.Context) ([]numbering.UnnumberedOrder, error) {
	query := `
		SELECT id, created_at
		FROM orders
		WHERE order_number IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unnumbered orders: %w", err)
	}
	defer rows.Close()

	var orders []numbering.UnnumberedOrder
	for rows.Next() {
		var o numbering.UnnumberedOrder
		if err := rows.Scan(&o.ID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unnumbered order: %w", err)
		}
		orders = append(orders, o)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return orders, nil
}

// AssignNumber присваивает номер заказу, у которого его ещё нет.
func (s *PostgresOrderStorage) AssignNumber(ctx context.Context, orderID int64, number string) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE orders SET order_number = $1 WHERE id = $2 AND order_number IS NULL`,
		number, orderID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderNumberTaken
		}
		return fmt.Errorf("failed to assign order number: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (s *PostgresOrderStorage) listViews(ctx context.Context, builder sq.SelectBuilder) ([]*models.OrderView, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orders query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.OrderView, 0)
	for rows.Next() {
		view, err := scanOrderView(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, view)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return orders, nil
}

func orderViewQuery() sq.SelectBuilder {
	return psql.
		Select(orderColumns, "s.name", "s.color", "src.name", "m.telegram_nick", "c.name").
		From("orders o").
		LeftJoin("statuses s ON s.id = o.status_id").
		LeftJoin("sources src ON src.id = o.source_id").
		LeftJoin("masters m ON m.id = o.master_id").
		LeftJoin("cities c ON c.id = o.city_id")
}

func orderTargets(o *models.Order) []any {
	return []any{
		&o.ID,
		&o.OrderNumber,
		&o.CityID,
		&o.StatusID,
		&o.SourceID,
		&o.MasterID,
		&o.Address,
		&o.Metro,
		&o.Problem,
		&o.Comment,
		&o.Phone,
		&o.ClientName,
		&o.ScheduledTime,
		&o.RecordingURL,
		&o.Amount,
		&o.MyShare,
		&o.MasterShare,
		&o.ClosedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// scanOrder помогает читать заказ из строки результата.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	if err := row.Scan(orderTargets(&order)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

func scanOrderView(row pgx.Row) (*models.OrderView, error) {
	var view models.OrderView
	targets := append(orderTargets(&view.Order),
		&view.StatusName,
		&view.StatusColor,
		&view.SourceName,
		&view.MasterNick,
		&view.CityName,
	)
	if err := row.Scan(targets...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &view, nil
}

// mapOrderForeignKey переводит нарушение внешнего ключа заказа в доменную ошибку.
func mapOrderForeignKey(err error) error {
	constraint, ok := foreignKeyConstraint(err)
	if !ok {
		return nil
	}
	switch constraint {
	case "orders_city_id_fkey":
		return ErrCityNotFound
	case "orders_status_id_fkey":
		return ErrStatusNotFound
	case "orders_source_id_fkey":
		return ErrSourceNotFound
	case "orders_master_id_fkey":
		return ErrMasterNotFound
	default:
		return fmt.Errorf("foreign key violation %s: %w", constraint, err)
	}
}
