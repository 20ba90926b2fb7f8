package models

import (
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks a record against its struct tags before it is written
// to the store, so malformed data cannot corrupt downstream readers.
func Validate(record any) error {
	if err := validate.Struct(record); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			details := map[string]string{}
			for _, fieldErr := range errs {
				details[fieldErr.Field()] = fieldErr.Tag()
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "record validation failed").WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "record validation failed")
	}
	return nil
}

// ValidateSlice applies Validate to every element of a record slice.
func ValidateSlice[T any](records []T) error {
	for i := range records {
		if err := Validate(records[i]); err != nil {
			return err
		}
	}
	return nil
}
