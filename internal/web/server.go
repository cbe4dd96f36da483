// Package web serves the worksheet over HTTP: sign-in, chapter lists, the
// quiz pages with their form events, and a live websocket channel.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ready4exam/worksheet/internal/auth"
	"github.com/ready4exam/worksheet/internal/catalog"
	"github.com/ready4exam/worksheet/internal/profile"
	"github.com/ready4exam/worksheet/internal/quiz"
	"github.com/ready4exam/worksheet/internal/render"
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the services the handlers call.
type Deps struct {
	Engine  *quiz.Engine
	Access  *profile.Access
	Syncer  *profile.Syncer // optional; syncs profiles on sign-in
	Auth    *auth.Authenticator
	Catalog *catalog.Loader
	View    *render.View
	Checks  map[string]HealthChecker
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
	Defaults       quiz.Defaults
	AuthRate       int // requests per minute per client on /auth
	AuthBurst      int
}

// Server holds the handler dependencies.
type Server struct {
	engine      *quiz.Engine
	access      *profile.Access
	auth        *auth.Authenticator
	catalog     *catalog.Loader
	view        *render.View
	checks      map[string]HealthChecker
	opts        Options
	limiter     *ipLimiter
	unsubscribe func()
}

// New creates the server. When a syncer is given, every signed-in user seen
// by the auth notifier gets a profile ensured in the background.
func New(deps Deps, opts Options) (*Server, error) {
	switch {
	case deps.Engine == nil:
		return nil, errors.New("web: engine is required")
	case deps.Access == nil:
		return nil, errors.New("web: access policy is required")
	case deps.Auth == nil:
		return nil, errors.New("web: authenticator is required")
	case deps.Catalog == nil:
		return nil, errors.New("web: catalog is required")
	case deps.View == nil:
		return nil, errors.New("web: view is required")
	}
	if opts.Defaults == (quiz.Defaults{}) {
		opts.Defaults = quiz.DefaultParams
	}

	s := &Server{
		engine:  deps.Engine,
		access:  deps.Access,
		auth:    deps.Auth,
		catalog: deps.Catalog,
		view:    deps.View,
		checks:  deps.Checks,
		opts:    opts,
		limiter: newIPLimiter(opts.AuthRate, opts.AuthBurst),
	}
	if syncer := deps.Syncer; syncer != nil {
		s.unsubscribe = deps.Auth.Notifier().Subscribe(func(u *auth.User) {
			if u != nil {
				syncer.EnsureAsync(context.Background(), identity(*u))
			}
		})
	}
	return s, nil
}

// Close detaches the server from the auth notifier.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(s.auth.Middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	r.Route("/auth", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Post("/logout", s.handleLogout)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/chapters", http.StatusFound)
	})
	r.Get("/chapters", s.handleChapters)

	r.Route("/quiz", func(r chi.Router) {
		r.Get("/", s.handleStart)
		r.Get("/{id}", s.handleShow)
		r.Post("/{id}/events", s.handleEvent)
		r.Get("/{id}/live", s.handleLive)
	})
	return r
}

func identity(u auth.User) profile.Identity {
	return profile.Identity{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}
}

func greeting(r *http.Request) string {
	if u, ok := auth.UserFrom(r.Context()); ok {
		return u.Greeting()
	}
	return ""
}
