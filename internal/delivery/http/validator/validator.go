// Package validator bridges go-playground/validator into echo.
package validator

import (
	validatorlib "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	domainerrors "fritime/internal/domain/errors"
)

type echoValidator struct {
	validate *validatorlib.Validate
}

// New creates an echo.Validator backed by go-playground/validator.
func New() echo.Validator {
	return &echoValidator{validate: validatorlib.New()}
}

// Validate implements echo.Validator. Struct tag violations surface as the
// validation domain error so the central error handler renders them as 400s.
func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
