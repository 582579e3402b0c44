package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/geocoder89/fittrack/internal/security"
)

type AdminSeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
}

// EnsureAdminUser creates the configured admin account if it does not exist
// yet. Without ADMIN_EMAIL/ADMIN_PASSWORD it does nothing. An existing account
// with that email is left as it is.
func EnsureAdminUser(ctx context.Context, store AdminSeedStore, cfg config.Config) (created bool, err error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err = store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	_, err = store.Create(ctx, user.NewUser{
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FirstName:    cfg.AdminFirstName,
		IsAdmin:      true,
	})

	// another instance seeded it between our lookup and insert
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	return true, nil
}
