package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/revenue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount = errors.New("amount is required and must not be negative")

	// ErrMasterRequired - переход в «В работе» без мастера.
	ErrMasterRequired = errors.New("master is required for this status")
	// ErrAmountRequired - переход в «Завершён» возможен только через закрытие с суммой.
	ErrAmountRequired = errors.New("amount is required to complete the order")
)

// GuardReason - причина, по которой переход статуса остановлен.
type GuardReason int

const (
	GuardMasterRequired GuardReason = iota + 1
	GuardAmountRequired
)

// GuardViolationError - переход отклонён, но может быть повторён после действия пользователя.
type GuardViolationError struct {
	Reason   GuardReason
	OrderID  int64
	StatusID int64
}

func (e *GuardViolationError) Error() string {
	return fmt.Sprintf("order %d: status %d: %v", e.OrderID, e.StatusID, e.Unwrap())
}

func (e *GuardViolationError) Unwrap() error {
	switch e.Reason {
	case GuardAmountRequired:
		return ErrAmountRequired
	default:
		return ErrMasterRequired
	}
}

// ChangeStatus переводит заказ в статус statusID.
// Вход в «В работе» требует мастера: уже назначенного или переданного ником.
// Мастер, найденный или созданный по нику, записывается вместе со статусом.
func (s *OrderServiceImpl) ChangeStatus(ctx context.Context, id, statusID int64, masterNick *string) (*models.OrderView, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		return nil, err
	}

	nick := ""
	if masterNick != nil {
		nick = strings.TrimSpace(*masterNick)
	}

	inProgress, err := s.stages.Is(ctx, target.ID, models.StageInProgress)
	if err != nil {
		return nil, err
	}
	if inProgress && !order.MasterID.Valid && nick == "" {
		return nil, &GuardViolationError{Reason: GuardMasterRequired, OrderID: order.ID, StatusID: target.ID}
	}

	completed, err := s.stages.Is(ctx, target.ID, models.StageCompleted)
	if err != nil {
		return nil, err
	}
	if completed {
		return nil, &GuardViolationError{Reason: GuardAmountRequired, OrderID: order.ID, StatusID: target.ID}
	}

	masterID := null.Int64{}
	if nick != "" {
		master, err := s.masters.Resolve(ctx, nick)
		if err != nil {
			return nil, err
		}
		masterID = null.Int64From(master.ID)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, target.ID, masterID); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.log.Info("order status changed",
		zap.Int64("order_id", order.ID),
		zap.Int64("from_status", order.StatusID),
		zap.Int64("to_status", target.ID),
		zap.Bool("master_assigned", masterID.Valid),
	)

	return s.orders.GetView(ctx, order.ID)
}

// CloseOrder закрывает заказ с суммой amount и делит её пополам.
// Наличие мастера не проверяется.
func (s *OrderServiceImpl) CloseOrder(ctx context.Context, id int64, amount *decimal.Decimal) (*models.OrderView, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if amount == nil {
		return nil, ErrInvalidAmount
	}

	myShare, masterShare, err := revenue.CloseOut(*amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	terminal, err := s.stages.Resolve(ctx, models.StageCompleted)
	if err != nil {
		return nil, err
	}

	closeOut := models.CloseOut{
		StatusID:    terminal.ID,
		Amount:      *amount,
		MyShare:     myShare,
		MasterShare: masterShare,
	}

	if err := s.orders.Close(ctx, order.ID, closeOut); err != nil {
		return nil, fmt.Errorf("close order: %w", err)
	}

	s.log.Info("order closed",
		zap.Int64("order_id", order.ID),
		zap.String("amount", closeOut.Amount.String()),
		zap.Bool("had_master", order.MasterID.Valid),
		zap.Bool("reclosed", order.IsClosed()),
	)

	return s.orders.GetView(ctx, order.ID)
}
