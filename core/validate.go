package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return ProviderID(fl.Field().String()).IsKnown()
	})
	return v
}

var defaultValidator = newValidator()

// Validate checks a request without touching the network.
func Validate(req *GenerationRequest) error {
	return validateWith(defaultValidator, req)
}

func validateWith(v *validator.Validate, req *GenerationRequest) error {
	if req == nil {
		return ValidationError("request is nil")
	}
	if err := v.Struct(req); err != nil {
		return ValidationError(describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "provider":
		return fmt.Sprintf("%s %q is not supported", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", field)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	case "gt":
		return fmt.Sprintf("%s must be positive", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
