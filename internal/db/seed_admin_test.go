package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/db"
	"github.com/geocoder89/fittrack/internal/repo/memory"
	"github.com/geocoder89/fittrack/internal/security"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUsersRepo()
	cfg := config.Config{AdminEmail: "Admin@Example.com", AdminPassword: "admin-password", AdminFirstName: "Admin"}

	created, err := db.EnsureAdminUser(ctx, store, cfg)
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	u, err := store.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !u.IsAdmin {
		t.Fatalf("seeded user must be admin")
	}
	if err := security.CheckPassword(u.PasswordHash, "admin-password"); err != nil {
		t.Fatalf("password not hashed correctly: %v", err)
	}

	created, err = db.EnsureAdminUser(ctx, store, cfg)
	if err != nil || created {
		t.Fatalf("second seed must be a no-op: created=%v err=%v", created, err)
	}
}

func TestEnsureAdminUser_NotConfigured(t *testing.T) {
	store := memory.NewUsersRepo()

	created, err := db.EnsureAdminUser(context.Background(), store, config.Config{})
	if err != nil || created {
		t.Fatalf("created=%v err=%v", created, err)
	}

	all, _ := store.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("nothing should be created, got %d users", len(all))
	}
}
