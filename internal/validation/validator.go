// Package validation checks decoded request bodies with validator/v10 and
// reports failures as *domain.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/coffee-api/internal/domain"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	// maxprice caps a domain.Price at what the price column can hold.
	_ = v.RegisterValidation("maxprice", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(domain.MaxPrice)
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a *domain.ValidationError listing
// every failing field, or nil.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against tag and reports it under field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return domain.NewValidationError(field, friendlyMessage(verrs[0]))
}

func (v *Validator) formatError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		name := e.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = friendlyMessage(e)
	}
	return &domain.ValidationError{Fields: fields}
}

//nolint:gocyclo // one case per tag in use
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
		}
		return "ensure this value is greater than or equal to " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
		}
		return "ensure this value is less than or equal to " + e.Param()
	case "url", "http_url":
		return "enter a valid URL"
	case "gte":
		return "ensure this value is greater than or equal to " + e.Param()
	case "lte":
		return "ensure this value is less than or equal to " + e.Param()
	case "maxprice":
		return "ensure that there are no more than 7 digits in total"
	default:
		return "is invalid"
	}
}
