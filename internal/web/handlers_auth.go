package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ready4exam/worksheet/internal/auth"
	"github.com/ready4exam/worksheet/internal/render"
)

const (
	nextCookie = "worksheet_next"
	loginPath  = "/auth/login"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if next := localPath(r.URL.Query().Get("next")); next != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     nextCookie,
			Value:    url.QueryEscape(next),
			Path:     "/auth",
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600,
		})
	}
	http.Redirect(w, r, s.auth.BeginLogin(w), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.CompleteLogin(r.Context(), w, r); err != nil {
		code := "auth/internal-error"
		var lerr *auth.LoginError
		if errors.As(err, &lerr) {
			code = lerr.Code
		}
		slog.Warn("sign-in failed", "code", code, "error", err)
		s.render(w, r, http.StatusUnauthorized, render.PageAuthError, render.AuthErrorPage{
			Header:   render.Header{Title: "Sign-in failed"},
			Code:     code,
			LoginURL: loginPath,
		})
		return
	}

	next := "/"
	if c, err := r.Cookie(nextCookie); err == nil {
		if raw, err := url.QueryUnescape(c.Value); err == nil && localPath(raw) != "" {
			next = raw
		}
	}
	http.SetCookie(w, &http.Cookie{Name: nextCookie, Path: "/auth", MaxAge: -1, HttpOnly: true, Secure: s.opts.SecureCookies})
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// localPath returns raw when it is a same-site path, "" otherwise.
func localPath(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return ""
	}
	return raw
}

// loginURL sends the user back to the current page after signing in.
func loginURL(r *http.Request) string {
	return loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}
