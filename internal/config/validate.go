package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/sessionbill/internal/billing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their file keys rather than Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"yaml", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return v
}

// checkStruct runs the struct tags of v and converts every failure into a
// *billing.ValidationError tagged with source and prefix.
func checkStruct(source, prefix string, v any) []error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{fmt.Errorf("validate %s: %w", source, err)}
	}

	out := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, &billing.ValidationError{
			Source: source,
			Field:  field,
			Value:  fmt.Sprint(fe.Value()),
			Reason: reasonFor(fe),
		})
	}
	return out
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid e-mail address"
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

// tag attaches source and prefix to a normalizer error.
func tag(err error, source, prefix string) error {
	var ve *billing.ValidationError
	if errors.As(err, &ve) {
		ve.Source = source
		if prefix != "" {
			ve.Field = prefix + "." + ve.Field
		}
	}
	return err
}
