//go:build integration

package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ready4exam/worksheet/internal/platform/database/dbtest"
	"github.com/ready4exam/worksheet/internal/profile"
)

func TestPostgresStore_EnsureIdempotent(t *testing.T) {
	db := dbtest.New(t)
	store, err := profile.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := store.Get(ctx, "uid-1"); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("Get() on empty table error = %v, want ErrNotFound", err)
	}

	id := profile.Identity{UID: "uid-1", Email: "teacher@example.com", DisplayName: "T"}
	for range 2 {
		if err := profile.NewSyncer(store, nil).Ensure(ctx, id); err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM profiles WHERE uid = $1`, "uid-1").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}

	p, err := store.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.PaidClasses) != 7 || p.Role != profile.RoleStudent {
		t.Errorf("Get() = %+v", p)
	}

	if err := profile.NewSyncer(store, []string{"teacher@example.com"}).Ensure(ctx, id); err != nil {
		t.Fatalf("admin Ensure() error = %v", err)
	}
	p, _ = store.Get(ctx, "uid-1")
	if !p.IsAdmin() {
		t.Errorf("Role = %q, want admin after escalation", p.Role)
	}
}

func TestPostgresStore_SetRoleMissing(t *testing.T) {
	db := dbtest.New(t)
	store, _ := profile.NewPostgresStore(db.Pool)

	err := store.SetRole(context.Background(), "ghost", profile.RoleAdmin)
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("SetRole() error = %v, want ErrNotFound", err)
	}
}
