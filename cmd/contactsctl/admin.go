package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redmonkez12/go-contacts-api/cmd/contactsctl/ui"
	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

type adminStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	SetRole(ctx context.Context, username string, role user.Role) error
}

// createAdmin stores a confirmed admin account
func createAdmin(ctx context.Context, store adminStore, hasher auth.PasswordHasher, in ui.AdminInput) (*user.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := ui.ValidateAdmin(in); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := store.Create(ctx, &user.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Confirmed:    true,
		Role:         user.RoleAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			return nil, fmt.Errorf("username %q is already taken", in.Username)
		case errors.Is(err, user.ErrDuplicateEmail):
			return nil, fmt.Errorf("email %q is already registered", in.Email)
		}
		return nil, err
	}

	return created, nil
}

func promoteAdmin(ctx context.Context, store adminStore, username string) error {
	err := store.SetRole(ctx, username, user.RoleAdmin)
	if errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("user %q does not exist", username)
	}
	return err
}
