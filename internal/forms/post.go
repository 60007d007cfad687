package forms

import (
	"net/http"
)

type PostForm struct {
	Form
	Title   string `form:"title" validate:"notblank,max=100"`
	Content string `form:"content" validate:"notblank"`
}

func NewPostForm(csrf CSRF) *PostForm {
	return &PostForm{Form: Form{CSRFToken: csrf.Token()}}
}

func (f *PostForm) Bind(r *http.Request) error {
	if err := f.parse(r); err != nil {
		return err
	}
	f.Title = r.PostForm.Get("title")
	f.Content = r.PostForm.Get("content")
	return nil
}

func (f *PostForm) Validate(csrf CSRF) bool {
	return f.check(csrf, f)
}
