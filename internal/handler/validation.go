package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"carrent/internal/domain"
)

var (
	registerOnce  sync.Once
	contactDigits = regexp.MustCompile(`^[0-9]{10}$`)
)

// registerValidators adds the booking tags to gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("contact10", func(fl validator.FieldLevel) bool {
			return contactDigits.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("pickup_type", func(fl validator.FieldLevel) bool {
			return domain.PickupType(fl.Field().String()).Valid()
		})
	})
}

var fieldMessages = map[string]string{
	"required":    "is required",
	"contact10":   "must be exactly 10 digits",
	"pickup_type": "must be self or delivery",
	"datetime":    "must be a YYYY-MM-DD date",
	"gt":          "must be positive",
	"latitude":    "must be a valid latitude",
	"longitude":   "must be a valid longitude",
}

// bindingErrorResponse turns a binding failure into a field error body.
func bindingErrorResponse(err error) FieldErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrorResponse{Error: "invalid request body"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		fields[fe.Field()] = msg
	}
	return FieldErrorResponse{Error: "validation failed", Fields: fields}
}

// fieldName reports fields by their wire name, form tag first.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
