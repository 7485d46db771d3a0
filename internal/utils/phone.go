package utils

import (
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+7\d{10}$`)

// NormalizePhone убирает пробелы по краям номера.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// ValidatePhone проверяет номер формата +7XXXXXXXXXX.
// Пустой номер допустим: телефон в заказе необязателен.
func ValidatePhone(phone string) bool {
	phone = NormalizePhone(phone)
	if phone == "" {
		return true
	}
	return phoneRe.MatchString(phone)
}
