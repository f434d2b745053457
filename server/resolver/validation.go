package resolver

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const minBirthYear = 1900

var (
	usernameRegexp = regexp.MustCompile(`^[\w.@+-]+$`)
	validate       = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json name, that is what clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegexp.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateInput runs the struct tags of input and reports the first failing
// field as a *model.ValidationError.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	fe := fieldErrors[0]
	return model.NewValidationError(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		if isList {
			return fmt.Sprintf("ensure this field has no more than %s items", fe.Param())
		}
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		if isList {
			return fmt.Sprintf("ensure this field has at least %s items", fe.Param())
		}
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s", fe.Param())
	case "email":
		return "enter a valid email address"
	case "e164":
		return "enter a valid phone number in international format, e.g. +12125552368"
	case "username":
		return "enter a valid username, it may contain only letters, numbers and @/./+/-/_ characters"
	}
	return fmt.Sprintf("failed on the '%s' check", fe.Tag())
}

// parseDatetime accepts any common layout, values without a zone are UTC.
func parseDatetime(field, raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "datetime has wrong format: %s", raw)
	}
	return t.UTC(), nil
}

func validateBirthYear(birthYear *int, now time.Time) error {
	if birthYear == nil {
		return nil
	}
	if *birthYear <= minBirthYear || *birthYear > now.Year() {
		return model.NewValidationError("birth_year", "ensure this value is between %d and %d", minBirthYear+1, now.Year())
	}
	return nil
}
