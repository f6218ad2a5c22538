package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator wraps go-playground validator with the rules request bodies use.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validateNotBlank)
	return &requestValidator{validate: v}
}

// Struct validates a request body. The returned error names the first failing field.
func (rv *requestValidator) Struct(payload any) error {
	if rv == nil || rv.validate == nil {
		return nil
	}
	err := rv.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return fmt.Errorf("%s failed %s", strings.ToLower(first.Field()), first.Tag())
	}
	return err
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
