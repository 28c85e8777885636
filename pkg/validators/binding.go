package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterTagNames makes gin's validator report fields by their json name
// so binding errors line up with the request body.
func RegisterTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})
	})
}

// FromBinding converts an error returned by gin's ShouldBind* into a field
// error list. Syntax errors become a single "body" entry.
func FromBinding(err error) Errors {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errs := make(Errors, 0, len(ve))
		for _, fe := range ve {
			errs = append(errs, FieldError{
				Field:   fieldPath(fe),
				Message: tagMessage(fe),
			})
		}

		return errs
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return Errors{{Field: te.Field, Message: "must be a " + te.Type.String()}}
	}

	return Errors{{Field: "body", Message: "malformed or invalid JSON request body"}}
}

// fieldPath drops the top level struct name from the namespace, so
// "submitBody.location.latitude" becomes "location.latitude".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "numeric":
		return "must contain digits only"
	default:
		return "is invalid"
	}
}
