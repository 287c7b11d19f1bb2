// Package forms binds, validates and re-renders the HTML forms of the app.
// Each field reports only its first failing rule.
package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/opin/internal/errmsg"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// Errors maps a form field name to its message.
type Errors map[string]string

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Values is the flat name to value map used to re-render a form.
type Values map[string]string

// Get returns the value of name, or "".
func (v Values) Get(name string) string {
	return v[name]
}

// messageOverrider lets a form replace entries of the shared message table.
type messageOverrider interface {
	FieldMessages() map[string]string
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "emailaddr", func(s string) bool { return emailPattern.MatchString(s) })
		mustRegister(v, "haslower", func(s string) bool { return strings.ContainsFunc(s, isLower) })
		mustRegister(v, "hasupper", func(s string) bool { return strings.ContainsFunc(s, isUpper) })
		mustRegister(v, "hasdigit", func(s string) bool { return strings.ContainsFunc(s, isDigit) })
		mustRegister(v, "hasspecial", func(s string) bool { return specialPattern.MatchString(s) })
		validate = v
	})
	return validate
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func mustRegister(v *validator.Validate, tag string, fn func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// EchoValidator implements echo.Validator.
type EchoValidator struct{}

// Validate implements echo.Validator.
func (EchoValidator) Validate(i interface{}) error {
	return Validator().Struct(i)
}

// Validate checks form and returns its field messages, or nil when valid.
func Validate(form any) Errors {
	return Messages(Validator().Struct(form), form)
}

// Messages converts a validation error of form into field messages. Errors
// that did not come from the validator are reported under the empty field.
func Messages(err error, form any) Errors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": errmsg.Unexpected}
	}

	var overrides map[string]string
	if o, ok := form.(messageOverrider); ok {
		overrides = o.FieldMessages()
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		key := field + "." + fe.Tag()
		switch {
		case overrides[key] != "":
			out[field] = overrides[key]
		case messages[key] != "":
			out[field] = messages[key]
		default:
			out[field] = errmsg.FieldHint(field)
		}
	}
	return out
}

// Snapshot copies the bound values of form for a re-render. Passwords and
// the challenge token are never echoed back.
func Snapshot(form any) Values {
	out := Values{}
	rv := reflect.Indirect(reflect.ValueOf(form))
	if rv.Kind() != reflect.Struct {
		return out
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := strings.SplitN(rt.Field(i).Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || strings.Contains(name, "password") || strings.HasPrefix(name, "cf-") {
			continue
		}
		if f := rv.Field(i); f.Kind() == reflect.String {
			out[name] = f.String()
		}
	}
	return out
}
