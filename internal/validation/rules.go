package validation

import (
	"github.com/agamariel/mastercrm/internal/utils"
	"github.com/go-playground/validator/v10"
)

func registerRules(v *validator.Validate) error {
	return v.RegisterValidation("ru_phone", isRussianPhone)
}

// isRussianPhone - +7 и десять цифр; пустое значение допустимо.
func isRussianPhone(fl validator.FieldLevel) bool {
	return utils.ValidatePhone(fl.Field().String())
}
