package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aarondl/null/v8"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/numbering"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/agamariel/mastercrm/internal/utils"
	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	phoneHistoryLimit = 10
	phoneHistoryMin   = 5
	searchLimit       = 50
	searchMinLength   = 2

	numberAttempts = 3
	numberRetryGap = 20 * time.Millisecond
)

var (
	ErrInvalidPhone = errors.New("phone must match +7XXXXXXXXXX")
	ErrCityRequired = errors.New("city is required")
)

// OrderService определяет интерфейс работы с заказами.
type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderView, error)
	UpdateOrder(ctx context.Context, id int64, req *models.UpdateOrderRequest) (*models.OrderView, error)
	ChangeStatus(ctx context.Context, id, statusID int64, masterNick *string) (*models.OrderView, error)
	CloseOrder(ctx context.Context, id int64, amount *decimal.Decimal) (*models.OrderView, error)
	GetOrder(ctx context.Context, id int64) (*models.OrderView, error)
	ListByCity(ctx context.Context, cityID int64) ([]*models.OrderView, error)
	ListByPhone(ctx context.Context, phone string) ([]*models.OrderView, error)
	Search(ctx context.Context, q string) ([]*models.OrderView, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// OrderDeps - зависимости сервиса заказов.
type OrderDeps struct {
	Orders    OrderStorage
	Statuses  StatusStorage
	Cities    CityStorage
	Sources   SourceStorage
	Stages    *StageResolver
	Masters   *MasterResolver
	Allocator *numbering.Allocator
	Log       *zap.Logger
}

// OrderServiceImpl реализует OrderService.
type OrderServiceImpl struct {
	orders    OrderStorage
	statuses  StatusStorage
	cities    CityStorage
	sources   SourceStorage
	stages    *StageResolver
	masters   *MasterResolver
	allocator *numbering.Allocator
	log       *zap.Logger
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(deps OrderDeps) *OrderServiceImpl {
	return &OrderServiceImpl{
		orders:    deps.Orders,
		statuses:  deps.Statuses,
		cities:    deps.Cities,
		sources:   deps.Sources,
		stages:    deps.Stages,
		masters:   deps.Masters,
		allocator: deps.Allocator,
		log:       deps.Log,
	}
}

// CreateOrder создаёт заказ в статусе «Новый» с очередным номером месяца.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderView, error) {
	phone, err := normalizeOptionalPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	if req.CityID <= 0 {
		return nil, ErrCityRequired
	}
	if _, err := s.cities.GetByID(ctx, req.CityID); err != nil {
		return nil, fmt.Errorf("get city: %w", err)
	}

	order := &models.Order{
		CityID:        req.CityID,
		Address:       optionalText(req.Address),
		Metro:         optionalText(req.Metro),
		Problem:       optionalText(req.Problem),
		Comment:       optionalText(req.Comment),
		Phone:         phone,
		ClientName:    optionalText(req.ClientName),
		ScheduledTime: optionalText(req.ScheduledTime),
		RecordingURL:  optionalText(req.RecordingURL),
	}

	if req.SourceID != nil && *req.SourceID > 0 {
		if _, err := s.sources.GetByID(ctx, *req.SourceID); err != nil {
			return nil, fmt.Errorf("get source: %w", err)
		}
		order.SourceID = null.Int64From(*req.SourceID)
	}

	initial, err := s.stages.Resolve(ctx, models.StageNew)
	if err != nil {
		return nil, err
	}
	order.StatusID = initial.ID

	if req.MasterNick != nil && strings.TrimSpace(*req.MasterNick) != "" {
		master, err := s.masters.Resolve(ctx, *req.MasterNick)
		if err != nil {
			return nil, err
		}
		order.MasterID = null.Int64From(master.ID)
	}

	if err := s.insertNumbered(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber.String),
		zap.Int64("city_id", order.CityID),
	)

	return s.orders.GetView(ctx, order.ID)
}

// insertNumbered выдаёт номер и вставляет заказ, повторяя попытку при занятом номере.
func (s *OrderServiceImpl) insertNumbered(ctx context.Context, order *models.Order) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		number, err := s.allocator.Allocate(ctx)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		order.OrderNumber = null.StringFrom(number)

		err = s.orders.Create(ctx, order)
		if errors.Is(err, storage.ErrOrderNumberTaken) {
			s.log.Warn("order number collision, retrying", zap.String("order_number", number))
			return struct{}{}, err
		}
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(numberRetryGap)),
		backoff.WithMaxTries(numberAttempts),
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// UpdateOrder частично редактирует заказ. Статус, город и финансы не меняются.
func (s *OrderServiceImpl) UpdateOrder(ctx context.Context, id int64, req *models.UpdateOrderRequest) (*models.OrderView, error) {
	var fields models.OrderFields

	if req.Phone != nil {
		phone, err := normalizeOptionalPhone(req.Phone)
		if err != nil {
			return nil, err
		}
		fields.Phone = &phone
	}

	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if req.SourceID != nil {
		source := null.Int64{}
		if *req.SourceID > 0 {
			if _, err := s.sources.GetByID(ctx, *req.SourceID); err != nil {
				return nil, fmt.Errorf("get source: %w", err)
			}
			source = null.Int64From(*req.SourceID)
		}
		fields.SourceID = &source
	}

	if req.MasterNick != nil {
		master := null.Int64{}
		if strings.TrimSpace(*req.MasterNick) != "" {
			resolved, err := s.masters.Resolve(ctx, *req.MasterNick)
			if err != nil {
				return nil, err
			}
			master = null.Int64From(resolved.ID)
		}
		fields.MasterID = &master
	}

	fields.Address = textField(req.Address)
	fields.Metro = textField(req.Metro)
	fields.Problem = textField(req.Problem)
	fields.Comment = textField(req.Comment)
	fields.ClientName = textField(req.ClientName)
	fields.ScheduledTime = textField(req.ScheduledTime)
	fields.RecordingURL = textField(req.RecordingURL)

	if fields.IsEmpty() {
		return s.orders.GetView(ctx, id)
	}

	if err := s.orders.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	return s.orders.GetView(ctx, id)
}

// GetOrder возвращает заказ с названиями справочников.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, id int64) (*models.OrderView, error) {
	return s.orders.GetView(ctx, id)
}

// ListByCity возвращает доску заказов города.
func (s *OrderServiceImpl) ListByCity(ctx context.Context, cityID int64) ([]*models.OrderView, error) {
	orders, err := s.orders.ListByCity(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("list city orders: %w", err)
	}
	return orders, nil
}

// ListByPhone возвращает последние заказы клиента. Слишком короткий номер даёт пустой список.
func (s *OrderServiceImpl) ListByPhone(ctx context.Context, phone string) ([]*models.OrderView, error) {
	phone = utils.NormalizePhone(phone)
	if utf8.RuneCountInString(phone) < phoneHistoryMin {
		return []*models.OrderView{}, nil
	}

	orders, err := s.orders.ListByPhone(ctx, phone, phoneHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list orders by phone: %w", err)
	}
	return orders, nil
}

// Search ищет заказы по подстроке. Запрос короче двух символов даёт пустой список.
func (s *OrderServiceImpl) Search(ctx context.Context, q string) ([]*models.OrderView, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < searchMinLength {
		return []*models.OrderView{}, nil
	}

	orders, err := s.orders.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder удаляет заказ. Мастера, города и источники не затрагиваются.
func (s *OrderServiceImpl) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("order deleted", zap.Int64("order_id", id))
	return nil
}

// normalizeOptionalPhone обрезает и проверяет телефон; пустой телефон хранится как NULL.
func normalizeOptionalPhone(phone *string) (null.String, error) {
	if phone == nil {
		return null.String{}, nil
	}
	normalized := utils.NormalizePhone(*phone)
	if normalized == "" {
		return null.String{}, nil
	}
	if !utils.ValidatePhone(normalized) {
		return null.String{}, ErrInvalidPhone
	}
	return null.StringFrom(normalized), nil
}

// optionalText превращает пустую строку в NULL.
func optionalText(v *string) null.String {
	if v == nil || strings.TrimSpace(*v) == "" {
		return null.String{}
	}
	return null.StringFrom(*v)
}

func textField(v *string) *null.String {
	if v == nil {
		return nil
	}
	value := optionalText(v)
	return &value
}
