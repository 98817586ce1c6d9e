// Package validator holds the shared request validator and its custom rules.
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the accepted format for calendar dates in requests.
const DateLayout = "2006-01-02"

var nonSpace = regexp.MustCompile(`\S`)

// Validate is the shared validator instance.
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Report fields by their JSON names.
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	// Non-empty and not only whitespace.
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})

	// Calendar date such as "2025-03-31".
	_ = Validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
}

// Struct validates s and returns a short message describing the first failure.
func Struct(s interface{}) (string, bool) {
	err := Validate.Struct(s)
	if err == nil {
		return "", true
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error(), false
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required", false
	case "isodate":
		return fe.Field() + " must be a date in YYYY-MM-DD format", false
	default:
		return fe.Field() + " is invalid (" + fe.Tag() + ")", false
	}
}
