package server

import (
	"bytes"
	"io"
	"net/http"

	"blogpost/internal/types"
	"blogpost/web/static/html"

	"github.com/go-chi/chi/v5/middleware"
)

// base collects what the layout needs and consumes pending flashes, so it
// must run before anything is written to w.
func (s *Server) base(w http.ResponseWriter, r *http.Request, title string) html.Base {
	return html.Base{
		Title:       title,
		CurrentUser: currentUser(r),
		Flashes:     s.popFlashes(w, r),
	}
}

// render buffers the page so a template failure can still become a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page func(io.Writer) error) {
	var buf bytes.Buffer
	if err := page(&buf); err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, se types.StatusError) {
	data := &html.ErrorData{
		Base:   s.base(w, r, se.StatusText()),
		Status: se.HTTPStatus(),
	}
	switch se.HTTPStatus() {
	case http.StatusNotFound:
		data.Heading = "Oops. Page Not Found (404)"
		data.Message = "That page does not exist. Please try a different location"
	case http.StatusForbidden:
		data.Heading = "You don't have permission to do that (403)"
		data.Message = "Please check your account and try again"
	case http.StatusBadRequest:
		data.Heading = "Bad Request (400)"
		data.Message = "The form you submitted could not be processed. Please go back and try again"
	default:
		data.Heading = "Something went wrong (500)"
		data.Message = "We're experiencing some trouble on our end. Please try again in the near future"
	}

	var buf bytes.Buffer
	if err := html.Error(&buf, data); err != nil {
		s.logger.Errorw("Failed to render error page", "status", se.HTTPStatus(), "error", err)
		http.Error(w, se.StatusText(), se.HTTPStatus())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(se.HTTPStatus())
	buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Errorw("Request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	s.renderError(w, r, types.NewStatusError(err, http.StatusInternalServerError))
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, types.NotFound())
}
