package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"blogpost/internal/config"
	"blogpost/internal/db"
	"blogpost/internal/metrics"
	"blogpost/web/static"
	"blogpost/web/static/html"

	"github.com/aarol/reload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type PostStore interface {
	GetPost(ctx context.Context, id uint) (*db.Post, error)
	ListPosts(ctx context.Context, page, perPage int) (*db.Page[db.Post], error)
	ListPostsByAuthor(ctx context.Context, userID uint, page, perPage int) (*db.Page[db.Post], error)
	CreatePost(ctx context.Context, post *db.Post) error
	UpdatePost(ctx context.Context, post *db.Post) error
	DeletePost(ctx context.Context, id uint) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uint) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	CreateUser(ctx context.Context, user *db.User) error
}

type Store interface {
	PostStore
	UserStore
}

type Server struct {
	cfg            *config.Config
	store          Store
	logger         *zap.SugaredLogger
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	loginLimiters  *clientLimiters
}

func New(cfg *config.Config, store Store, logger *zap.SugaredLogger, m *metrics.Metrics, metricsHandler http.Handler) *Server {
	html.SetDev(cfg.IsDev())

	s := &Server{
		cfg:            cfg,
		store:          store,
		logger:         logger,
		metrics:        m,
		metricsHandler: metricsHandler,
	}
	if rpm := cfg.LoginRateLimitRPM; rpm > 0 {
		s.loginLimiters = newClientLimiters(rpm)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID) // add unique id to each request context
	r.Use(middleware.RealIP)    // add request RemoteAddr to X-Real-IP
	r.Use(s.RequestLogger)      // log each request with its status and duration
	r.Use(s.Recoverer)          // recover and log from panic, render 500
	r.Use(jwtauth.Verifier(s.cfg.TokenAuth()))
	r.Use(s.CurrentUser)

	r.NotFound(s.NotFound)

	// handle static assets
	if s.cfg.IsDev() {
		r.Handle("/static/*", http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store, must-revalidate")
			http.FileServer(http.Dir("./web/static")).ServeHTTP(w, r)
		})))
	} else {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.Files))))
	}
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	// public routes
	r.Group(func(r chi.Router) {
		r.Get("/", s.GetHomePage)
		r.Get("/home", s.GetHomePage)
		r.Get("/about", s.GetAboutPage)
		r.Get("/user/{username}", s.GetUserPosts)

		r.Get("/register", s.GetRegisterPage)
		r.Post("/register", s.HandleRegister)
		r.Get("/login", s.GetLoginPage)
		r.With(s.RateLimit).Post("/login", s.HandleLogin)
		r.Get("/logout", s.HandleLogout)

		r.With(s.PostCtx).Get("/post/{postID:[0-9]+}", s.GetPost)
	})

	// protected routes, the session check runs before the post lookup
	r.Group(func(r chi.Router) {
		r.Use(s.LoginRequired)

		r.Get("/post/new", s.withUser(s.GetNewPost))
		r.Post("/post/new", s.withUser(s.HandleCreatePost))

		r.With(s.PostCtx).Get("/post/{postID:[0-9]+}/update", s.withUser(s.GetUpdatePost))
		r.With(s.PostCtx).Post("/post/{postID:[0-9]+}/update", s.withUser(s.HandleUpdatePost))
		r.With(s.PostCtx).Post("/post/{postID:[0-9]+}/delete", s.withUser(s.HandleDeletePost))
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	var handler http.Handler = s.Routes()

	if s.cfg.IsDev() {
		// list of directories to recursively watch
		reloader := reload.New("web/static/html/", "web/static/css/")
		handler = reloader.Handle(handler)
	}

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Server running", "addr", srv.Addr, "dev", s.cfg.IsDev())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Infow("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
