package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"blogpost/internal/db"
	"blogpost/internal/forms"
	"blogpost/internal/types"
	"blogpost/pkg/utils"
	"blogpost/web/static/html"

	"golang.org/x/crypto/bcrypt"
)

const (
	actionRegister = "register"
	actionLogin    = "login"
	sessionCookie  = "jwt"
)

func (s *Server) GetRegisterPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.renderRegister(w, r, forms.NewRegistrationForm(s.csrf(nil, actionRegister)))
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	csrf := s.csrf(nil, actionRegister)
	form := forms.NewRegistrationForm(csrf)
	if err := form.Bind(r); err != nil {
		s.renderError(w, r, types.BadRequest(err))
		return
	}
	form.Validate(csrf)

	// uniqueness is checked here so both fields report at once
	if form.Username != "" {
		if _, err := s.store.GetUserByUsername(r.Context(), form.Username); err == nil {
			form.AddError("username", "That username is taken. Please choose a different one.")
		} else if !errors.Is(err, db.ErrNotFound) {
			s.serverError(w, r, err)
			return
		}
	}
	if form.Email != "" {
		if _, err := s.store.GetUserByEmail(r.Context(), form.Email); err == nil {
			form.AddError("email", "That email is taken. Please choose a different one.")
		} else if !errors.Is(err, db.ErrNotFound) {
			s.serverError(w, r, err)
			return
		}
	}
	if !form.Valid() {
		s.renderRegister(w, r, form)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	user := &db.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hash),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.logger.Infow("User registered", "user_id", user.ID, "username", user.Username)

	s.flash(w, r, "success", "Your account has been created! You are now able to log in")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) GetLoginPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.renderLogin(w, r, forms.NewLoginForm(s.csrf(nil, actionLogin)), nil)
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	csrf := s.csrf(nil, actionLogin)
	form := forms.NewLoginForm(csrf)
	if err := form.Bind(r); err != nil {
		s.renderError(w, r, types.BadRequest(err))
		return
	}
	if !form.Validate(csrf) {
		s.renderLogin(w, r, form, nil)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), form.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		s.logger.Infow("Login failed", "email", form.Email, "remote_addr", r.RemoteAddr)
		failed := types.Flash{Category: "danger", Message: "Login Unsuccessful. Please check email and password"}
		s.renderLogin(w, r, form, &failed)
		return
	}

	ttl := s.cfg.SessionTTL
	if form.Remember {
		ttl = s.cfg.RememberTTL
	}
	token, err := utils.GenerateToken([]byte(s.cfg.SignKey), user.ID, ttl)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if form.Remember {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
	s.logger.Infow("User logged in", "user_id", user.ID)

	http.Redirect(w, r, utils.SafeRedirect(r.URL.Query().Get("next"), "/"), http.StatusFound)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) renderRegister(w http.ResponseWriter, r *http.Request, form *forms.RegistrationForm) {
	data := &html.RegisterData{
		Base: s.base(w, r, "Register"),
		Form: form,
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.Register(w, data) })
}

// renderLogin shows the login form. extra is displayed alongside any queued
// flashes without waiting for a redirect.
func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, form *forms.LoginForm, extra *types.Flash) {
	data := &html.LoginData{
		Base: s.base(w, r, "Login"),
		Form: form,
		Next: r.URL.Query().Get("next"),
	}
	if extra != nil {
		data.Base.Flashes = append(data.Base.Flashes, *extra)
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.Login(w, data) })
}
