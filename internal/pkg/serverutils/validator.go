package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", e.Field(), e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
