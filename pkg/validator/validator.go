package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

// Error renders the violation the way handlers show it to the operator
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", e.FailedField, e.Tag)
}

// statusValidator is installed by the model layer owner to keep this package free of domain imports
type statusValidator interface {
	IsValid() bool
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		d, ok := asDecimal(fl)
		return ok && !d.IsNegative()
	})

	// decimal_cents rejects amounts with more precision than the store keeps
	validate.RegisterValidation("decimal_cents", func(fl validator.FieldLevel) bool {
		d, ok := asDecimal(fl)
		return ok && d.Equal(d.Round(2))
	})

	validate.RegisterValidation("notblank", validators.NotBlank)

	// order_status accepts any value with an IsValid() bool method returning true
	validate.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		if s, ok := fl.Field().Interface().(statusValidator); ok {
			return s.IsValid()
		}
		return false
	})
}

func asDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	}
	return decimal.Zero, false
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
