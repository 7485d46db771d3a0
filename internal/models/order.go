package models

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

func init() {
	// Деньги отдаются числами, а не строками.
	decimal.MarshalJSONWithoutQuotes = true
}

// Order представляет заказ на выезд мастера.
type Order struct {
	ID            int64               `json:"id" db:"id"`
	OrderNumber   null.String         `json:"order_number" db:"order_number"`
	CityID        int64               `json:"city_id" db:"city_id"`
	StatusID      int64               `json:"status_id" db:"status_id"`
	SourceID      null.Int64          `json:"source_id" db:"source_id"`
	MasterID      null.Int64          `json:"master_id" db:"master_id"`
	Address       null.String         `json:"address" db:"address"`
	Metro         null.String         `json:"metro" db:"metro"`
	Problem       null.String         `json:"problem" db:"problem"`
	Comment       null.String         `json:"comment" db:"comment"`
	Phone         null.String         `json:"phone" db:"phone"`
	ClientName    null.String         `json:"client_name" db:"client_name"`
	ScheduledTime null.String         `json:"scheduled_time" db:"scheduled_time"`
	RecordingURL  null.String         `json:"recording_url" db:"recording_url"`
	Amount        decimal.NullDecimal `json:"amount" db:"amount"`
	MyShare       decimal.NullDecimal `json:"my_share" db:"my_share"`
	MasterShare   decimal.NullDecimal `json:"master_share" db:"master_share"`
	ClosedAt      null.Time           `json:"closed_at" db:"closed_at"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// IsClosed сообщает, прошёл ли заказ закрытие.
func (o *Order) IsClosed() bool {
	return o.ClosedAt.Valid
}

// OrderView - заказ, дополненный названиями связанных справочников.
type OrderView struct {
	Order
	StatusName  null.String `json:"status_name"`
	StatusColor null.String `json:"status_color"`
	SourceName  null.String `json:"source_name"`
	MasterNick  null.String `json:"master_nick"`
	CityName    null.String `json:"city_name"`
}

// CreateOrderRequest - запрос на создание заказа.
type CreateOrderRequest struct {
	CityID        int64   `json:"city_id"`
	SourceID      *int64  `json:"source_id"`
	MasterNick    *string `json:"master_nick"`
	Address       *string `json:"address"`
	Metro         *string `json:"metro"`
	Problem       *string `json:"problem"`
	Comment       *string `json:"comment"`
	Phone         *string `json:"phone" validate:"omitempty,ru_phone"`
	ClientName    *string `json:"client_name"`
	ScheduledTime *string `json:"scheduled_time"`
	RecordingURL  *string `json:"recording_url"`
}

// UpdateOrderRequest - частичное редактирование заказа.
// Отсутствующее (или null) поле не меняется. Город и статус здесь не редактируются.
type UpdateOrderRequest struct {
	SourceID      *int64  `json:"source_id"`
	MasterNick    *string `json:"master_nick"`
	Address       *string `json:"address"`
	Metro         *string `json:"metro"`
	Problem       *string `json:"problem"`
	Comment       *string `json:"comment"`
	Phone         *string `json:"phone" validate:"omitempty,ru_phone"`
	ClientName    *string `json:"client_name"`
	ScheduledTime *string `json:"scheduled_time"`
	RecordingURL  *string `json:"recording_url"`
}

// ChangeStatusRequest - перевод заказа в другой статус.
type ChangeStatusRequest struct {
	StatusID   int64   `json:"status_id"`
	MasterNick *string `json:"master_nick"`
}

// CloseOrderRequest - закрытие заказа с суммой.
type CloseOrderRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// OrderFields - набор изменяемых полей заказа для хранилища.
// nil означает «не менять», Valid=false - записать NULL.
type OrderFields struct {
	SourceID      *null.Int64
	MasterID      *null.Int64
	Address       *null.String
	Metro         *null.String
	Problem       *null.String
	Comment       *null.String
	Phone         *null.String
	ClientName    *null.String
	ScheduledTime *null.String
	RecordingURL  *null.String
}

// IsEmpty сообщает, что ни одно поле не задано.
func (f OrderFields) IsEmpty() bool {
	return f.SourceID == nil && f.MasterID == nil && f.Address == nil && f.Metro == nil &&
		f.Problem == nil && f.Comment == nil && f.Phone == nil && f.ClientName == nil &&
		f.ScheduledTime == nil && f.RecordingURL == nil
}

// CloseOut - результат расчёта закрытия заказа.
type CloseOut struct {
	StatusID    int64
	Amount      decimal.Decimal
	MyShare     decimal.Decimal
	MasterShare decimal.Decimal
}
