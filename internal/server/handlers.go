package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"blogpost/internal/db"
	"blogpost/internal/forms"
	"blogpost/internal/types"
	"blogpost/pkg/utils/markdown"
	"blogpost/web/static/html"

	"github.com/go-chi/chi/v5"
)

const (
	actionPost       = "post"
	actionDeletePost = "delete-post"
)

func (s *Server) csrf(user *db.User, action string) forms.CSRF {
	var id uint
	if user != nil {
		id = user.ID
	}
	return forms.NewCSRF(s.cfg.SignKey, id, action)
}

// pageParam reads ?page=, falling back to the first page on anything that
// is not an integer.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

func (s *Server) GetHomePage(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context(), pageParam(r), s.cfg.PostsPerPage)
	if errors.Is(err, db.ErrPageOutOfRange) {
		s.renderError(w, r, types.NotFound())
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := &html.ListData{
		Base:    s.base(w, r, ""),
		Posts:   posts,
		PageURL: r.URL.Path,
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.Home(w, data) })
}

func (s *Server) GetAboutPage(w http.ResponseWriter, r *http.Request) {
	base := s.base(w, r, "About")
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.About(w, base) })
}

func (s *Server) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	author, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, db.ErrNotFound) {
		s.renderError(w, r, types.NotFound())
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}

	posts, err := s.store.ListPostsByAuthor(r.Context(), author.ID, pageParam(r), s.cfg.PostsPerPage)
	if errors.Is(err, db.ErrPageOutOfRange) {
		s.renderError(w, r, types.NotFound())
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := &html.ListData{
		Base:    s.base(w, r, author.Username),
		Posts:   posts,
		PageURL: r.URL.Path,
		Author:  author,
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.UserPosts(w, data) })
}

func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := postFromContext(r.Context())
	if !ok {
		s.renderError(w, r, types.NotFound())
		return
	}

	body, err := markdown.Render(post.Content)
	if err != nil {
		s.serverError(w, r, fmt.Errorf("rendering post %d: %w", post.ID, err))
		return
	}

	user := currentUser(r)
	data := &html.PostData{
		Base:    s.base(w, r, post.Title),
		Post:    post,
		Body:    body,
		CanEdit: post.IsAuthoredBy(user),
	}
	if data.CanEdit {
		data.DeleteCSRF = s.csrf(user, actionDeletePost).Token()
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.Post(w, data) })
}

func (s *Server) GetNewPost(w http.ResponseWriter, r *http.Request, user *db.User) {
	s.renderPostForm(w, r, "New Post", "/post/new", forms.NewPostForm(s.csrf(user, actionPost)))
}

func (s *Server) HandleCreatePost(w http.ResponseWriter, r *http.Request, user *db.User) {
	csrf := s.csrf(user, actionPost)
	form := forms.NewPostForm(csrf)
	if err := form.Bind(r); err != nil {
		s.renderError(w, r, types.BadRequest(err))
		return
	}
	if !form.Validate(csrf) {
		s.renderPostForm(w, r, "New Post", "/post/new", form)
		return
	}

	post := &db.Post{
		Title:   form.Title,
		Content: form.Content,
		UserID:  user.ID,
	}
	if err := s.store.CreatePost(r.Context(), post); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.logger.Infow("Post created", "post_id", post.ID, "user_id", user.ID)
	s.recordPostEvent(r, "created")

	s.flash(w, r, "success", "Your post has been created!")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) GetUpdatePost(w http.ResponseWriter, r *http.Request, user *db.User) {
	post, ok := s.ownedPost(w, r, user)
	if !ok {
		return
	}

	form := forms.NewPostForm(s.csrf(user, actionPost))
	form.Title = post.Title
	form.Content = post.Content
	s.renderPostForm(w, r, "Update Post", fmt.Sprintf("/post/%d/update", post.ID), form)
}

func (s *Server) HandleUpdatePost(w http.ResponseWriter, r *http.Request, user *db.User) {
	post, ok := s.ownedPost(w, r, user)
	if !ok {
		return
	}

	csrf := s.csrf(user, actionPost)
	form := forms.NewPostForm(csrf)
	if err := form.Bind(r); err != nil {
		s.renderError(w, r, types.BadRequest(err))
		return
	}
	if !form.Validate(csrf) {
		s.renderPostForm(w, r, "Update Post", fmt.Sprintf("/post/%d/update", post.ID), form)
		return
	}

	post.Title = form.Title
	post.Content = form.Content
	if err := s.store.UpdatePost(r.Context(), post); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.renderError(w, r, types.NotFound())
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.logger.Infow("Post updated", "post_id", post.ID, "user_id", user.ID)
	s.recordPostEvent(r, "updated")

	s.flash(w, r, "success", "Your post has been updated!")
	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusFound)
}

func (s *Server) HandleDeletePost(w http.ResponseWriter, r *http.Request, user *db.User) {
	post, ok := s.ownedPost(w, r, user)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, types.BadRequest(err))
		return
	}
	if !s.csrf(user, actionDeletePost).Valid(r.PostForm.Get("csrf_token")) {
		s.renderError(w, r, types.BadRequest(errors.New("invalid csrf token")))
		return
	}

	if err := s.store.DeletePost(r.Context(), post.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.renderError(w, r, types.NotFound())
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.logger.Infow("Post deleted", "post_id", post.ID, "user_id", user.ID)
	s.recordPostEvent(r, "deleted")

	s.flash(w, r, "success", "Your post has been deleted!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ownedPost returns the post loaded by PostCtx, rendering 403 when user is
// not its author.
func (s *Server) ownedPost(w http.ResponseWriter, r *http.Request, user *db.User) (*db.Post, bool) {
	post, ok := postFromContext(r.Context())
	if !ok {
		s.renderError(w, r, types.NotFound())
		return nil, false
	}
	if !post.IsAuthoredBy(user) {
		s.renderError(w, r, types.Forbidden())
		return nil, false
	}
	return post, true
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, legend, action string, form *forms.PostForm) {
	data := &html.PostFormData{
		Base:   s.base(w, r, legend),
		Legend: legend,
		Action: action,
		Form:   form,
	}
	s.render(w, r, http.StatusOK, func(w io.Writer) error { return html.CreatePost(w, data) })
}

func (s *Server) recordPostEvent(r *http.Request, action string) {
	if s.metrics != nil {
		s.metrics.RecordPostEvent(r.Context(), action)
	}
}
