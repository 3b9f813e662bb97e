package user

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/redmonkez12/go-contacts-api/internal/cache"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// CachedRepository serves profiles from the cache and invalidates the
// entry on every mutation of that user.
// Credentials never enter the cache: GetByUsername and GetByEmail always
// read the database, so password hashes and token versions are current.
type CachedRepository struct {
	*Repository
	cache  cache.Cache
	logger *logging.Logger
}

func NewCachedRepository(repo *Repository, c cache.Cache, logger *logging.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		cache:      c,
		logger:     logger,
	}
}

// profileEntry is the cached projection of a user
type profileEntry struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
	Avatar    *string   `json:"avatar"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func cacheKey(username string) string {
	return "user:" + username
}

// GetProfile returns the user without PasswordHash and TokenVersion
// Cache failures are logged and fall through to the database.
func (r *CachedRepository) GetProfile(ctx context.Context, username string) (*User, error) {
	key := cacheKey(username)

	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.LogError("user cache read failed", err)
	} else if ok {
		var entry profileEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			return entry.toUser(), nil
		}
		r.logger.Warn("discarding malformed user cache entry", "key", key)
	}

	u, err := r.Repository.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	entry := newProfileEntry(u)
	if data, err := json.Marshal(entry); err == nil {
		if err := r.cache.Put(ctx, key, data); err != nil {
			r.logger.LogError("user cache write failed", err)
		}
	}

	return entry.toUser(), nil
}

func (r *CachedRepository) SetConfirmed(ctx context.Context, email string) error {
	if err := r.Repository.SetConfirmed(ctx, email); err != nil {
		return err
	}
	return r.invalidateByEmail(ctx, email)
}

func (r *CachedRepository) SetPasswordHash(ctx context.Context, email, passwordHash string) error {
	if err := r.Repository.SetPasswordHash(ctx, email, passwordHash); err != nil {
		return err
	}
	return r.invalidateByEmail(ctx, email)
}

func (r *CachedRepository) RehashPassword(ctx context.Context, email, passwordHash string) error {
	if err := r.Repository.RehashPassword(ctx, email, passwordHash); err != nil {
		return err
	}
	return r.invalidateByEmail(ctx, email)
}

func (r *CachedRepository) UpdateAvatar(ctx context.Context, email, url string) error {
	if err := r.Repository.UpdateAvatar(ctx, email, url); err != nil {
		return err
	}
	return r.invalidateByEmail(ctx, email)
}

func (r *CachedRepository) SetRole(ctx context.Context, username string, role Role) error {
	if err := r.Repository.SetRole(ctx, username, role); err != nil {
		return err
	}
	return r.invalidate(ctx, username)
}

// invalidateByEmail drops the entry of the user owning email
// The update has already been committed when this fails.
func (r *CachedRepository) invalidateByEmail(ctx context.Context, email string) error {
	u, err := r.Repository.GetByEmail(ctx, email)
	if err != nil {
		return oops.Code("USER_CACHE_INVALIDATION_FAILED").With("email", email).Wrap(err)
	}
	return r.invalidate(ctx, u.Username)
}

func (r *CachedRepository) invalidate(ctx context.Context, username string) error {
	if err := r.cache.Delete(ctx, cacheKey(username)); err != nil {
		return oops.Code("USER_CACHE_INVALIDATION_FAILED").With("username", username).Wrap(err)
	}
	return nil
}

func newProfileEntry(u *User) profileEntry {
	return profileEntry{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (e profileEntry) toUser() *User {
	return &User{
		ID:        e.ID,
		Username:  e.Username,
		Email:     e.Email,
		Confirmed: e.Confirmed,
		Avatar:    e.Avatar,
		Role:      e.Role,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
