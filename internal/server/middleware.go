package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"blogpost/internal/db"
	"blogpost/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type key int

const (
	postKey key = iota
	userKey
)

// Request logging middleware
func (s *Server) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			duration := time.Since(start)

			s.logger.Infow("HTTP request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", ww.Status(),
				"size", ww.BytesWritten(),
				"duration", duration,
				"remote_addr", r.RemoteAddr,
			)

			if s.metrics != nil {
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				s.metrics.RecordHTTPRequest(r.Context(), r.Method, route, ww.Status(), duration)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recovery middleware with structured logging
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				s.logger.Errorw("Panic recovered",
					"panic", rvr,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				s.renderError(w, r, types.NewStatusError(fmt.Errorf("panic: %v", rvr), http.StatusInternalServerError))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// idle buckets are swept once this many clients are tracked
const maxTrackedClients = 10000

// clientLimiters keeps one token bucket per client address.
type clientLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(rpm int) *clientLimiters {
	return &clientLimiters{
		limit:   rate.Limit(float64(rpm) / 60.0),
		burst:   max(rpm/6, 1), // Allow burst of 1/6th of rpm
		clients: make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) allow(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if len(c.clients) >= maxTrackedClients {
		for k, v := range c.clients {
			// a bucket idle this long has refilled completely
			if now.Sub(v.lastSeen) > 10*time.Minute {
				delete(c.clients, k)
			}
		}
	}

	cl, ok := c.clients[addr]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[addr] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Rate limiting middleware keyed by client address. RealIP runs first, so
// RemoteAddr already reflects proxy headers.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.loginLimiters != nil && !s.loginLimiters.allow(clientAddr(r)) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CurrentUser loads the account named by a verified session token. A
// missing, invalid or stale token leaves the request anonymous.
func (s *Server) CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			next.ServeHTTP(w, r)
			return
		}

		id, ok := userIDClaim(claims)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.store.GetUser(r.Context(), id)
		if err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				s.logger.Errorw("Failed to load session user", "user_id", id, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// user_id comes back as a float64 from the claims map
func userIDClaim(claims map[string]interface{}) (uint, bool) {
	switch v := claims["user_id"].(type) {
	case float64:
		if v < 1 {
			return 0, false
		}
		return uint(v), true
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 0)
		return uint(n), err == nil && n > 0
	case string:
		n, err := strconv.ParseUint(v, 10, 0)
		return uint(n), err == nil && n > 0
	default:
		return 0, false
	}
}

func currentUser(r *http.Request) *db.User {
	user, _ := r.Context().Value(userKey).(*db.User)
	return user
}

// LoginRequired sends anonymous visitors to the login page, remembering
// where they were headed.
func (s *Server) LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			s.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	s.flash(w, r, "info", "Please log in to access this page.")
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *db.User)

// withUser hands the authenticated account to fn as an explicit argument.
func (s *Server) withUser(fn userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			s.redirectToLogin(w, r)
			return
		}
		fn(w, r, user)
	}
}

// middleware to add post to context, render 404 if not found
func (s *Server) PostCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "postID"), 10, 0)
		if err != nil || id == 0 {
			s.renderError(w, r, types.NotFound())
			return
		}

		post, err := s.store.GetPost(r.Context(), uint(id))
		if errors.Is(err, db.ErrNotFound) {
			s.renderError(w, r, types.NotFound())
			return
		} else if err != nil {
			s.serverError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), postKey, post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func postFromContext(ctx context.Context) (*db.Post, bool) {
	post, ok := ctx.Value(postKey).(*db.Post)
	return post, ok
}
