package types

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
)

type StatusError struct {
	Error  error
	Status int
}

func (e StatusError) Unwrap() error {
	return e.Error
}

func (e StatusError) HTTPStatus() int {
	return e.Status
}

func (e StatusError) StatusText() string {
	return http.StatusText(e.Status)
}

func NewStatusError(err error, status int) StatusError {
	return StatusError{
		Error:  err,
		Status: status,
	}
}

func NotFound() StatusError {
	return NewStatusError(ErrNotFound, http.StatusNotFound)
}

func Forbidden() StatusError {
	return NewStatusError(ErrForbidden, http.StatusForbidden)
}

func BadRequest(err error) StatusError {
	return NewStatusError(errors.Join(ErrBadRequest, err), http.StatusBadRequest)
}
