package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/libracat/libracat/pkg/models"
)

// dateValidator ensures the value is formatted as YYYY-MM-DD or
// YYYY-MM-DD HH:MM:SS, or is the empty string. Pair it with `required` when the
// value can't be left out.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := models.ParseDate(value)
	return err == nil
}
