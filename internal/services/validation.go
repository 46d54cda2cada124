// Package services contains the business logic of the API server
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/learnportal/backend/internal/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs the struct tags of req and reports the first failing field as a VALIDATION_ERROR
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("%s failed on the %s rule", strings.ToLower(fe.Field()), fe.Tag())
		return apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, msg)
	}
	return apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, apperrors.ErrValidation.Message)
}
