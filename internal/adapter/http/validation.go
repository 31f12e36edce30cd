package http

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var (
	reAccount  = regexp.MustCompile(`^[a-z0-9][a-z0-9:_-]{0,63}$`)
	reCurrency = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)
)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// account id = lowercase alphanumeric with :_- separators, max 64
	_ = v.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		return reAccount.MatchString(fl.Field().String())
	})
	// currency code = short uppercase symbol
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return reCurrency.MatchString(fl.Field().String())
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "account":
			out = append(out, FieldError{Field: field, Message: "must be a valid account id"})
		case "currency":
			out = append(out, FieldError{Field: field, Message: "must be a short uppercase currency code"})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
