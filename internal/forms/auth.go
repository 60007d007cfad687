package forms

import (
	"net/http"
	"strings"
)

type RegistrationForm struct {
	Form
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email,max=120"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

func NewRegistrationForm(csrf CSRF) *RegistrationForm {
	return &RegistrationForm{Form: Form{CSRFToken: csrf.Token()}}
}

func (f *RegistrationForm) Bind(r *http.Request) error {
	if err := f.parse(r); err != nil {
		return err
	}
	f.Username = strings.TrimSpace(r.PostForm.Get("username"))
	f.Email = strings.TrimSpace(r.PostForm.Get("email"))
	f.Password = r.PostForm.Get("password")
	f.ConfirmPassword = r.PostForm.Get("confirm_password")
	return nil
}

func (f *RegistrationForm) Validate(csrf CSRF) bool {
	return f.check(csrf, f)
}

type LoginForm struct {
	Form
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

func NewLoginForm(csrf CSRF) *LoginForm {
	return &LoginForm{Form: Form{CSRFToken: csrf.Token()}}
}

func (f *LoginForm) Bind(r *http.Request) error {
	if err := f.parse(r); err != nil {
		return err
	}
	f.Email = strings.TrimSpace(r.PostForm.Get("email"))
	f.Password = r.PostForm.Get("password")
	f.Remember = r.PostForm.Get("remember") != ""
	return nil
}

func (f *LoginForm) Validate(csrf CSRF) bool {
	return f.check(csrf, f)
}
