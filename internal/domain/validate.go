package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks v against its struct tags and returns a validation Error
// naming the first offending field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Validation("invalid input")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return Validation("%s is required", fe.Field())
	case "email":
		return Validation("%s must be a valid email", fe.Field())
	case "min":
		return Validation("%s must contain at least %s item(s)", fe.Field(), fe.Param())
	default:
		return Validation("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
