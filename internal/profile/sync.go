package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const syncTimeout = 10 * time.Second

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Syncer ensures a profile exists for every signed-in user. Concurrent calls
// for the same uid share one store round-trip, and a uid that synced once is
// not synced again for the life of the process.
type Syncer struct {
	store  Store
	admins map[string]struct{}
	group  singleflight.Group

	mu     sync.Mutex
	synced map[string]struct{}
}

// NewSyncer creates a profile syncer. adminEmails are compared
// case-insensitively.
func NewSyncer(store Store, adminEmails []string) *Syncer {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Syncer{
		store:  store,
		admins: admins,
		synced: make(map[string]struct{}),
	}
}

// IsAdminEmail reports whether email is in the configured admin set.
func (s *Syncer) IsAdminEmail(email string) bool {
	_, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Ensure creates the profile if it is missing and escalates the role of
// configured admins. It is safe to call repeatedly for the same user.
func (s *Syncer) Ensure(ctx context.Context, id Identity) error {
	if id.UID == "" {
		return nil
	}
	if s.isSynced(id.UID) {
		return nil
	}

	_, err, _ := s.group.Do(id.UID, func() (any, error) {
		if s.isSynced(id.UID) {
			return nil, nil
		}
		if err := s.sync(ctx, id); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.synced[id.UID] = struct{}{}
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// EnsureAsync runs Ensure in the background. Failures are logged and never
// reach the caller.
func (s *Syncer) EnsureAsync(ctx context.Context, id Identity) {
	if id.UID == "" || s.isSynced(id.UID) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncTimeout)
		defer cancel()
		if err := s.Ensure(ctx, id); err != nil {
			slog.Warn("profile sync deferred; access unaffected", "uid", id.UID, "error", err)
		}
	}()
}

func (s *Syncer) sync(ctx context.Context, id Identity) error {
	admin := s.IsAdminEmail(id.Email)

	existing, err := s.store.Get(ctx, id.UID)
	switch {
	case errors.Is(err, ErrNotFound):
		role := RoleStudent
		if admin {
			role = RoleAdmin
		}
		created, err := s.store.Create(ctx, New(id.UID, id.Email, id.DisplayName, role))
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if created {
			slog.Info("profile created", "uid", id.UID, "role", role)
			return nil
		}
		// Lost a race with another writer; fall through to the role check.
		existing, err = s.store.Get(ctx, id.UID)
		if err != nil {
			return fmt.Errorf("reload profile: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read profile: %w", err)
	}

	if admin && !existing.IsAdmin() {
		if err := s.store.SetRole(ctx, id.UID, RoleAdmin); err != nil {
			return fmt.Errorf("escalate role: %w", err)
		}
		slog.Info("profile escalated to admin", "uid", id.UID)
	}
	return nil
}

func (s *Syncer) isSynced(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.synced[uid]
	return ok
}
