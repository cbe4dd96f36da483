package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ready4exam/worksheet/internal/auth"
	"github.com/ready4exam/worksheet/internal/catalog"
	"github.com/ready4exam/worksheet/internal/platform/cache"
	"github.com/ready4exam/worksheet/internal/platform/config"
	"github.com/ready4exam/worksheet/internal/platform/database"
	"github.com/ready4exam/worksheet/internal/profile"
	"github.com/ready4exam/worksheet/internal/question"
	"github.com/ready4exam/worksheet/internal/quiz"
	"github.com/ready4exam/worksheet/internal/render"
	"github.com/ready4exam/worksheet/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "access_mode", cfg.Access.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app is the wired service with the connections it owns.
type app struct {
	handler http.Handler
	web     *web.Server
	db      *database.DB
	cache   *cache.Cache
}

// newApp connects the backing services concurrently, then wires stores,
// sign-in and the HTTP layer. Without a database or cache URL the matching
// stores stay in memory.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	var loader *catalog.Loader

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Database.URL != "" {
		g.Go(func() error {
			db, err := database.New(gctx, database.Options{
				URL:      cfg.Database.URL,
				MaxConns: cfg.Database.MaxConns,
				MinConns: cfg.Database.MinConns,
			})
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := db.Migrate(gctx); err != nil {
				db.Close()
				return fmt.Errorf("database: %w", err)
			}
			a.db = db
			return nil
		})
	}
	if cfg.Cache.URL != "" {
		g.Go(func() error {
			c, err := cache.New(gctx, cache.Options{URL: cfg.Cache.URL})
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			a.cache = c
			return nil
		})
	}
	g.Go(func() error {
		l, err := catalog.NewLoader(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		loader = l
		return nil
	})
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.wire(cfg, loader); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(cfg *config.Config, loader *catalog.Loader) error {
	var (
		questions question.Store    = question.NewMemoryStore()
		results   quiz.ResultSaver  = question.NewMemoryResultStore()
		events    quiz.EventLogger  = quiz.NopEventLogger{}
		sessions  quiz.SessionStore = quiz.NewMemoryStore()
		profiles  profile.Store     = profile.NewMemoryStore()
	)
	checks := map[string]web.HealthChecker{}

	if a.db != nil {
		pq, err := question.NewPostgresStore(a.db.Pool)
		if err != nil {
			return err
		}
		pp, err := profile.NewPostgresStore(a.db.Pool)
		if err != nil {
			return err
		}
		questions, profiles = pq, pp
		results = question.NewPostgresResultStore(a.db.Pool)
		events = quiz.NewPostgresEventLogger(a.db.Pool)
		checks["database"] = a.db
	} else {
		slog.Warn("QUIZ_DATABASE_URL not set; profiles, questions and results are kept in memory")
	}

	if a.cache != nil {
		cached, err := question.NewCachedStore(questions, a.cache.Client, cfg.Cache.QuestionCacheTTL())
		if err != nil {
			return err
		}
		rs, err := quiz.NewRedisStore(a.cache.Client, cfg.Cache.SessionStoreTTL())
		if err != nil {
			return err
		}
		questions, sessions = cached, rs
		checks["cache"] = a.cache
	}

	tokens, err := auth.NewTokens(cfg.Auth.SessionSecret, cfg.Auth.SessionLifetime())
	if err != nil {
		return err
	}
	provider := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret,
		RedirectURL:  cfg.Auth.RedirectURL,
	})
	authn := auth.NewAuthenticator(provider, tokens, nil, cfg.Auth.SecureCookies)
	syncer := profile.NewSyncer(profiles, cfg.Auth.AdminEmails)

	view, err := render.New()
	if err != nil {
		return err
	}

	engine := quiz.NewEngine(quiz.EngineConfig{
		Questions: question.NewSource(questions),
		Results:   results,
		Store:     sessions,
		Events:    events,
	})

	srv, err := web.New(web.Deps{
		Engine:  engine,
		Access:  profile.NewAccess(profiles, syncer, cfg.Access.Mode),
		Syncer:  syncer,
		Auth:    authn,
		Catalog: loader,
		View:    view,
		Checks:  checks,
	}, web.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Auth.SecureCookies,
		Defaults: quiz.Defaults{
			Class:      cfg.Quiz.DefaultClass,
			Subject:    cfg.Quiz.DefaultSubject,
			Difficulty: quiz.NormalizeDifficulty(cfg.Quiz.DefaultDifficulty, quiz.DifficultySimple),
		},
		AuthRate:  cfg.Auth.RatePerMinute,
		AuthBurst: cfg.Auth.RateBurst,
	})
	if err != nil {
		return err
	}
	a.web = srv
	a.handler = srv.Handler()
	return nil
}

// Close releases the server and the connections it owns.
func (a *app) Close() {
	if a.web != nil {
		a.web.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("failed to close cache", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
