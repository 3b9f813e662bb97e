package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

const uniqueViolation = "23505"

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
// ID, timestamps and a default role are filled in when missing
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	dbUser := mapModelToDBUser(u)
	if dbUser.ID == uuid.Nil {
		dbUser.ID = uuid.New()
	}
	if dbUser.Role == "" {
		dbUser.Role = string(RoleUser)
	}
	dbUser.CreatedAt = now
	dbUser.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		if dupErr := duplicateError(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, oops.Code("USER_CREATE_FAILED").With("username", u.Username).Wrap(err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "get_by_id", "id = ?", id)
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "get_by_username", "username = ?", username)
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get_by_email", "email = ?", email)
}

func (r *Repository) getOne(ctx context.Context, operation, where string, arg any) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", operation).Wrap(err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetConfirmed marks the user's email as confirmed
func (r *Repository) SetConfirmed(ctx context.Context, email string) error {
	return r.update(ctx, "set_confirmed", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("confirmed = ?", true).Where("email = ?", email)
	})
}

// SetPasswordHash stores a new password hash and bumps the token version,
// which invalidates every access and reset token issued before the change
func (r *Repository) SetPasswordHash(ctx context.Context, email, passwordHash string) error {
	return r.update(ctx, "set_password_hash", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("password_hash = ?", passwordHash).
			Set("token_version = token_version + 1").
			Where("email = ?", email)
	})
}

// RehashPassword replaces the digest of an unchanged password
// The token version is kept, so outstanding tokens stay valid
func (r *Repository) RehashPassword(ctx context.Context, email, passwordHash string) error {
	return r.update(ctx, "rehash_password", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("password_hash = ?", passwordHash).Where("email = ?", email)
	})
}

// UpdateAvatar stores the avatar URL for the user
func (r *Repository) UpdateAvatar(ctx context.Context, email, url string) error {
	return r.update(ctx, "update_avatar", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("avatar = ?", url).Where("email = ?", email)
	})
}

// SetRole changes the role of the user
func (r *Repository) SetRole(ctx context.Context, username string, role Role) error {
	if !role.Valid() {
		return oops.Code("USER_INVALID_ROLE").With("role", role).Errorf("invalid role %q", role)
	}
	return r.update(ctx, "set_role", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("role = ?", string(role)).Where("username = ?", username)
	})
}

// Count returns the number of registered users
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, oops.Code("USER_QUERY_FAILED").With("operation", "count").Wrap(err)
	}
	return count, nil
}

func (r *Repository) update(ctx context.Context, operation string, apply func(q *bun.UpdateQuery) *bun.UpdateQuery) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()")

	result, err := apply(q).Exec(ctx)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", operation).Wrap(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", operation).Wrap(err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func duplicateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Confirmed:    u.Confirmed,
		Avatar:       u.Avatar,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
	}
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		Confirmed:    dbu.Confirmed,
		Avatar:       dbu.Avatar,
		Role:         Role(dbu.Role),
		TokenVersion: dbu.TokenVersion,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
