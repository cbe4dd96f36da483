// Package auth signs users in through Google, keeps them signed in with a
// persistent session cookie, and tells subscribers when the signed-in user
// changes.
package auth

import (
	"context"
	"strings"
)

type contextKey string

const userKey contextKey = "auth_user"

// User is the signed-in identity.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Greeting is the short name shown in the page header.
func (u User) Greeting() string {
	if name, _, ok := strings.Cut(u.Email, "@"); ok && name != "" {
		return name
	}
	return u.DisplayName
}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the signed-in user stored in ctx.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok && u.UID != ""
}
