package profile

import (
	"context"
	"fmt"
	"log/slog"
)

// Access modes.
const (
	// ModeOpen lets every signed-in user into every class.
	ModeOpen = "open"
	// ModePaid requires the class flag to be set, except for admins.
	ModePaid = "paid"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Access decides whether a signed-in user may open a class worksheet.
// Profile read failures never deny access.
type Access struct {
	store  Store
	syncer *Syncer
	mode   string
}

// NewAccess creates an access policy. Unknown modes behave as ModeOpen.
func NewAccess(store Store, syncer *Syncer, mode string) *Access {
	if mode != ModePaid {
		mode = ModeOpen
	}
	return &Access{store: store, syncer: syncer, mode: mode}
}

// Mode returns the effective access mode.
func (a *Access) Mode() string {
	return a.mode
}

// Check decides access to class for the user.
func (a *Access) Check(ctx context.Context, id Identity, class string) Decision {
	if id.UID == "" {
		return Decision{Reason: "Please sign in to continue."}
	}
	if a.mode == ModeOpen {
		return Decision{Allowed: true}
	}
	if a.syncer != nil && a.syncer.IsAdminEmail(id.Email) {
		return Decision{Allowed: true}
	}

	p, err := a.store.Get(ctx, id.UID)
	if err != nil {
		slog.Warn("access check could not read profile; allowing", "uid", id.UID, "error", err)
		return Decision{Allowed: true}
	}
	if p.IsAdmin() || p.HasPaid(class) {
		return Decision{Allowed: true}
	}
	return Decision{Reason: fmt.Sprintf("Class %s is not unlocked for your account.", class)}
}
