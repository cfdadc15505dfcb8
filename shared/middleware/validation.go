package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// Limits are the request bounds enforced before a request reaches the core.
type Limits struct {
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	MaxPageLimit int
}

// Validator wraps a validator instance carrying the service's custom rules:
//
//	notblank  - string with at least one non-space character
//	amountmin - decimal >= Limits.MinAmount
//	amountmax - decimal <= Limits.MaxAmount
//	pagelimit - int <= Limits.MaxPageLimit
type Validator struct {
	validate *validator.Validate
	limits   Limits
}

func NewValidator(limits Limits) *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	// Decimals are validated through their exact string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "amountmin", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.GreaterThanOrEqual(limits.MinAmount)
	})
	mustRegister(v, "amountmax", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.LessThanOrEqual(limits.MaxAmount)
	})
	mustRegister(v, "pagelimit", func(fl validator.FieldLevel) bool {
		return limits.MaxPageLimit <= 0 || fl.Field().Int() <= int64(limits.MaxPageLimit)
	})

	return &Validator{validate: v, limits: limits}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidateRequest returns nil when obj satisfies its validate tags.
func (v *Validator) ValidateRequest(obj any) []ValidationError {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "", Message: err.Error(), Type: "invalid"}}
	}

	validationErrors := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Message: v.errorMsg(fe),
			Type:    fe.Tag(),
		})
	}

	return validationErrors
}

func (v *Validator) errorMsg(err validator.FieldError) string {
	label := fieldLabel(err.Field())
	switch err.Tag() {
	case "required":
		if err.Kind() == reflect.String {
			return label + " must not be blank"
		}
		return label + " must not be null"
	case "notblank":
		return label + " must not be blank"
	case "amountmin":
		return label + " must be at least " + v.limits.MinAmount.String()
	case "amountmax":
		return label + " must be at most " + v.limits.MaxAmount.String()
	case "pagelimit":
		return fmt.Sprintf("Value must be at most %d", v.limits.MaxPageLimit)
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	default:
		return "Invalid value"
	}
}

// fieldLabel turns a json field name into the sentence subject, e.g. "Name".
func fieldLabel(field string) string {
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}
