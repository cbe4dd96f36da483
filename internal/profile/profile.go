// Package profile keeps the per-user record created on first sign-in: role,
// per-class entitlement flags and sign-up date.
package profile

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no profile exists for a uid.
var ErrNotFound = errors.New("profile not found")

// Roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Entitlement flags cover classes 6 through 12.
const (
	MinClass = 6
	MaxClass = 12
)

// Profile is the stored user record.
type Profile struct {
	UID         string          `json:"uid"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	PaidClasses map[string]bool `json:"paidClasses"`
	Streams     string          `json:"streams"`
	Role        string          `json:"role"`
	SignupDate  time.Time       `json:"signupDate"`
}

// New builds the record written on first sign-in: every class unpaid and an
// empty stream.
func New(uid, email, displayName, role string) Profile {
	paid := make(map[string]bool, MaxClass-MinClass+1)
	for c := MinClass; c <= MaxClass; c++ {
		paid[strconv.Itoa(c)] = false
	}
	return Profile{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		PaidClasses: paid,
		Role:        role,
		SignupDate:  time.Now().UTC(),
	}
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// HasPaid reports whether the class is unlocked for this profile.
func (p Profile) HasPaid(class string) bool {
	return p.PaidClasses[strings.TrimSpace(class)]
}

// Store reads and writes profiles.
type Store interface {
	Get(ctx context.Context, uid string) (Profile, error)
	// Create writes p only if no profile exists for p.UID and reports
	// whether it did.
	Create(ctx context.Context, p Profile) (bool, error)
	// SetRole updates only the role field.
	SetRole(ctx context.Context, uid, role string) error
}
