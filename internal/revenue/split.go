// Package revenue считает распределение выручки при закрытии заказа.
package revenue

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount возвращается для отрицательной суммы.
var ErrNegativeAmount = errors.New("amount must not be negative")

var two = decimal.NewFromInt(2)

// Split делит сумму пополам между владельцем и мастером.
// Половина суммы в десятичной записи всегда конечна, поэтому доли равны и в сумме дают amount.
func Split(amount decimal.Decimal) (myShare, masterShare decimal.Decimal) {
	places := int32(1)
	if exp := amount.Exponent(); exp < 0 {
		places -= exp
	}
	half := amount.DivRound(two, places)
	return half, half
}

// CloseOut проверяет сумму и возвращает обе доли.
func CloseOut(amount decimal.Decimal) (myShare, masterShare decimal.Decimal, err error) {
	if amount.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrNegativeAmount
	}
	myShare, masterShare = Split(amount)
	return myShare, masterShare, nil
}
