package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet    bool
	failDelete bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDelete {
		return errors.New("cache down")
	}
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func TestCachedRepository_GetProfileHitsDatabaseOnce(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())
	id := uuid.New()

	mock.ExpectQuery(`FROM "users".*username = 'alice'`).WillReturnRows(aliceRow(id))

	first, err := cached.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, mem.has("user:alice"))

	second, err := cached.GetProfile(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, id, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Role, second.Role)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Empty(t, second.PasswordHash)
	assert.Zero(t, second.TokenVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_CredentialsNeverCached(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())

	mock.ExpectQuery(`FROM "users"`).WillReturnRows(aliceRow(uuid.New()))

	_, err := cached.GetProfile(context.Background(), "alice")
	require.NoError(t, err)

	raw, ok, err := mem.Get(context.Background(), "user:alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "argon2id")
	assert.NotContains(t, string(raw), "token_version")
}

func TestCachedRepository_GetByUsernameBypassesCache(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())

	require.NoError(t, mem.Put(context.Background(), "user:alice", []byte(`{"username":"alice","email":"stale@x.com"}`)))
	mock.ExpectQuery(`FROM "users".*username = 'alice'`).WillReturnRows(aliceRow(uuid.New()))

	u, err := cached.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, "$argon2id$hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_ResetWithFailingInvalidation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	mem.failDelete = true
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())
	ctx := context.Background()
	id := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`FROM "users".*username = 'alice'`).WillReturnRows(aliceRow(id))
	mock.ExpectQuery(`FROM "users".*username = 'alice'`).WillReturnRows(aliceRow(id))
	mock.ExpectExec(`UPDATE "users".*token_version = token_version \+ 1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "users".*email = 'alice@x.com'`).WillReturnRows(aliceRow(id))
	mock.ExpectQuery(`FROM "users".*username = 'alice'`).WillReturnRows(sqlmock.NewRows(userColumns).
		AddRow(id.String(), "alice", "alice@x.com", "new-hash", true, nil, "user", int64(3), now, now))

	before, err := cached.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	_, err = cached.GetProfile(ctx, "alice")
	require.NoError(t, err)

	err = cached.SetPasswordHash(ctx, "alice@x.com", "new-hash")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "USER_CACHE_INVALIDATION_FAILED", oopsErr.Code())

	after, err := cached.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", after.PasswordHash)
	assert.Equal(t, before.TokenVersion+1, after.TokenVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_NotFoundIsNotCached(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())

	mock.ExpectQuery(`FROM "users"`).WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := cached.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mem.has("user:ghost"))
}

func TestCachedRepository_CacheFailureFallsThrough(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	mem.failGet = true
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())

	mock.ExpectQuery(`FROM "users"`).WillReturnRows(aliceRow(uuid.New()))

	u, err := cached.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestCachedRepository_MutationInvalidates(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())
	id := uuid.New()

	require.NoError(t, mem.Put(context.Background(), "user:alice", []byte(`{"username":"alice"}`)))

	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "users".*email = 'alice@x.com'`).WillReturnRows(aliceRow(id))

	require.NoError(t, cached.SetPasswordHash(context.Background(), "alice@x.com", "new-hash"))
	assert.False(t, mem.has("user:alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_SetRoleInvalidates(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mem := newMemoryCache()
	cached := NewCachedRepository(repo, mem, logging.NewNopLogger())

	require.NoError(t, mem.Put(context.Background(), "user:alice", []byte(`{}`)))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, cached.SetRole(context.Background(), "alice", RoleAdmin))
	assert.False(t, mem.has("user:alice"))
}
