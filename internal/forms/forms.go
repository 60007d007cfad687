// Package forms binds submitted HTML forms, validates them and collects
// field-level error messages for re-rendering.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/net/xsrftoken"
)

const csrfField = "csrf_token"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// CSRF issues and checks the anti-forgery token embedded in a form. Tokens
// are bound to the signing key, the user and the form action.
type CSRF struct {
	key    string
	userID string
	action string
}

func NewCSRF(key string, userID uint, action string) CSRF {
	return CSRF{key: key, userID: strconv.FormatUint(uint64(userID), 10), action: action}
}

func (c CSRF) Token() string {
	return xsrftoken.Generate(c.key, c.userID, c.action)
}

func (c CSRF) Valid(token string) bool {
	return token != "" && xsrftoken.Valid(token, c.key, c.userID, c.action)
}

// Form holds what every form carries besides its fields.
type Form struct {
	CSRFToken string              `form:"-"`
	Errors    map[string][]string `form:"-"`

	submitted string
}

func (f *Form) AddError(field, msg string) {
	if f.Errors == nil {
		f.Errors = make(map[string][]string)
	}
	f.Errors[field] = append(f.Errors[field], msg)
}

func (f *Form) FieldErrors(field string) []string {
	return f.Errors[field]
}

func (f *Form) HasErrors(field string) bool {
	return len(f.Errors[field]) > 0
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

func (f *Form) parse(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	f.submitted = r.PostForm.Get(csrfField)
	return nil
}

// check validates the anti-forgery token and then the tagged fields of s,
// recording one message per failing field.
func (f *Form) check(csrf CSRF, s interface{}) bool {
	f.Errors = nil
	if !csrf.Valid(f.submitted) {
		f.AddError(csrfField, "The CSRF token is missing or invalid.")
	}

	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			f.AddError(fe.Field(), message(fe))
		}
	} else if err != nil {
		f.AddError("", err.Error())
	}
	return f.Valid()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "eqfield":
		return "Field must be equal to password."
	default:
		return "Invalid value."
	}
}
