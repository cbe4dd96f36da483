package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookie = "worksheet_session"
	StateCookie   = "worksheet_oauth_state"
	stateTTL      = 10 * time.Minute
)

// LoginError is a failed sign-in with a short code for the user.
type LoginError struct {
	Code string
	Err  error
}

func (e *LoginError) Error() string {
	if e.Err == nil {
		return "login failed: " + e.Code
	}
	return fmt.Sprintf("login failed: %s: %v", e.Code, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Authenticator ties the identity provider, session tokens and the
// auth-state notifier together for HTTP handlers.
type Authenticator struct {
	provider Provider
	tokens   *Tokens
	notifier *Notifier
	secure   bool
}

// NewAuthenticator creates an authenticator. secure marks cookies Secure.
func NewAuthenticator(provider Provider, tokens *Tokens, notifier *Notifier, secure bool) *Authenticator {
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &Authenticator{provider: provider, tokens: tokens, notifier: notifier, secure: secure}
}

// Notifier returns the auth-state notifier.
func (a *Authenticator) Notifier() *Notifier {
	return a.notifier
}

// BeginLogin stores a fresh state cookie and returns the provider URL.
func (a *Authenticator) BeginLogin(w http.ResponseWriter) string {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})
	return a.provider.AuthCodeURL(state)
}

// CompleteLogin validates the callback, exchanges the code, sets the
// persistent session cookie and publishes the new user.
func (a *Authenticator) CompleteLogin(ctx context.Context, w http.ResponseWriter, r *http.Request) (User, error) {
	clearCookie(w, StateCookie, "/auth", a.secure)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return User{}, &LoginError{Code: "auth/" + e}
	}
	c, err := r.Cookie(StateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		return User{}, &LoginError{Code: "auth/state-mismatch"}
	}
	code := q.Get("code")
	if code == "" {
		return User{}, &LoginError{Code: "auth/missing-code"}
	}

	u, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return User{}, &LoginError{Code: "auth/exchange-failed", Err: err}
	}

	token, err := a.tokens.Issue(u)
	if err != nil {
		return User{}, &LoginError{Code: "auth/internal-error", Err: err}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.tokens.TTL().Seconds()),
	})

	slog.Info("user signed in", "uid", u.UID)
	a.notifier.Publish(&u)
	return u, nil
}

// Logout clears the session cookie and publishes the signed-out state.
func (a *Authenticator) Logout(w http.ResponseWriter) {
	clearCookie(w, SessionCookie, "/", a.secure)
	a.notifier.Publish(nil)
}

// Current returns the user of the request's session cookie.
func (a *Authenticator) Current(r *http.Request) (User, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	return a.tokens.Parse(c.Value)
}

// Middleware attaches the signed-in user, if any, to the request context and
// publishes it. Requests without a valid session pass through anonymously.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Current(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		a.notifier.Publish(&u)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func clearCookie(w http.ResponseWriter, name, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
