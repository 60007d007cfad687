package html

import (
	"blogpost/internal/db"
	"blogpost/internal/forms"
	"blogpost/internal/types"
	"embed"
	"html/template"
	"io"
)

//go:embed *.html
var files embed.FS

var isDev bool

// SetDev switches template loading to the working tree so edits show up
// without a rebuild.
func SetDev(dev bool) {
	isDev = dev
}

func parse(file string) *template.Template {
	if isDev {
		// dynamically read from files for dynamic template parsing
		return template.Must(
			template.New("layout.html").ParseFiles("web/static/html/layout.html", "web/static/html/"+file))
	} else {
		// read from embedded file system in production
		return template.Must(
			template.New("layout.html").ParseFS(files, "layout.html", file))
	}
}

// Base is the data every page's layout needs.
type Base struct {
	Title       string
	CurrentUser *db.User
	Flashes     []types.Flash
}

type ListData struct {
	Base
	Posts   *db.Page[db.Post]
	PageURL string
	Author  *db.User
}

type PostData struct {
	Base
	Post       *db.Post
	Body       template.HTML
	CanEdit    bool
	DeleteCSRF string
}

type PostFormData struct {
	Base
	Legend string
	Action string
	Form   *forms.PostForm
}

type LoginData struct {
	Base
	Form *forms.LoginForm
	Next string
}

type RegisterData struct {
	Base
	Form *forms.RegistrationForm
}

type ErrorData struct {
	Base
	Status  int
	Heading string
	Message string
}

func Home(w io.Writer, data *ListData) error {
	return parse("home.html").Execute(w, data)
}

func UserPosts(w io.Writer, data *ListData) error {
	return parse("user_posts.html").Execute(w, data)
}

func About(w io.Writer, base Base) error {
	return parse("about.html").Execute(w, base)
}

func Post(w io.Writer, data *PostData) error {
	return parse("post.html").Execute(w, data)
}

func CreatePost(w io.Writer, data *PostFormData) error {
	return parse("create_post.html").Execute(w, data)
}

func Login(w io.Writer, data *LoginData) error {
	return parse("login.html").Execute(w, data)
}

func Register(w io.Writer, data *RegisterData) error {
	return parse("register.html").Execute(w, data)
}

func Error(w io.Writer, data *ErrorData) error {
	return parse("error.html").Execute(w, data)
}
