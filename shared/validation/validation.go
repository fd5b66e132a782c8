// Package validation checks operation inputs against their declared rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pavitra93/go-lease-management/shared/apperror"
)

var (
	saudiMobile = regexp.MustCompile(`^(?:\+966|00966|0)?5\d{8}$`)
	nationalID  = regexp.MustCompile(`^\d{10}$`)

	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"), f.Name)
		})
		_ = v.RegisterValidation("sa_mobile", func(fl validator.FieldLevel) bool {
			return saudiMobile.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
			return nationalID.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func jsonName(tag, fallback string) string {
	name := strings.Split(tag, ",")[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

// Struct validates s and returns a Validation error naming every failing field
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "sa_mobile":
		return fmt.Sprintf("%s must be a Saudi mobile number", fe.Field())
	case "national_id":
		return fmt.Sprintf("%s must be 10 digits", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
