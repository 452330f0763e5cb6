// Package inputval validates request input structs using `validate` struct
// tags and reports human-readable, field-specific messages. The `label` tag
// names the field in messages; it defaults to the Go field name.
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every failed rule of one Validate call. Its Error() text is
// the first message, which is what single-message callers show.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	return e.Fields[0].Message
}

// Result is the outcome of Validate.
type Result struct {
	Fields []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Fields) > 0 }

// Err returns the failures as an *Error, or nil.
func (r Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return &Error{Fields: r.Fields}
}

// Validate checks v (a struct or pointer to struct) against its tags.
func Validate(v any) Result {
	err := validate.Struct(v)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Fields: []FieldError{{Message: err.Error()}}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return Result{Fields: out}
}

// Fail builds an *Error for a rule checked outside of struct tags.
func Fail(field, msg string) error {
	return &Error{Fields: []FieldError{{Field: field, Message: msg}}}
}

// IsValidationError reports whether err is (or wraps) an *Error.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return label + " is required."
	case "min":
		if isString(fe.Kind()) {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "max":
		if isString(fe.Kind()) {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return label + " must be a valid email address."
	default:
		return label + " is invalid."
	}
}

func isString(k reflect.Kind) bool { return k == reflect.String }

// IsValidEmail reports whether s is a bare address (no display name, no
// whitespace) that net/mail accepts.
func IsValidEmail(s string) bool {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}
