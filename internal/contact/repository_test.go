package contact

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

var contactColumns = []string{
	"id", "first_name", "last_name", "email", "phone",
	"date_of_birth", "info", "created_at", "user_id",
}

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(database.NewBunDB(db)), mock
}

func janeRows(id int64, owner uuid.UUID) *sqlmock.Rows {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dob := time.Date(1990, time.March, 3, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(contactColumns).
		AddRow(id, "Jane", "Doe", "jane@example.com", "555", dob, nil, created, owner.String())
}

func TestRepository_Get(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "contacts".*id = 7.*user_id = '` + owner.String() + `'`).
		WillReturnRows(janeRows(7, owner))

	c, err := repo.Get(context.Background(), owner, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, owner, c.UserID)
	assert.Equal(t, NewDate(1990, time.March, 3), c.DateOfBirth)
	assert.Nil(t, c.Info)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM "contacts"`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Search(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = .*last_name = 'Doe'.*ORDER BY "?id"? ASC LIMIT 10 OFFSET 20`).
		WillReturnRows(janeRows(1, owner))

	contacts, err := repo.Search(context.Background(), owner, Filter{LastName: "Doe"}, 20, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Doe", contacts[0].LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM "contacts"`).WillReturnRows(sqlmock.NewRows(contactColumns))

	contacts, err := repo.List(context.Background(), uuid.New(), 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()

	mock.ExpectQuery(`INSERT INTO "contacts".*RETURNING`).
		WillReturnRows(janeRows(42, owner))

	created, err := repo.Create(context.Background(), &Contact{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		Phone:       "555",
		DateOfBirth: NewDate(1990, time.March, 3),
		UserID:      owner,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "contacts"`).WillReturnError(errors.New("foreign key violation"))

	_, err := repo.Create(context.Background(), &Contact{UserID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key violation")
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE "contacts"`).WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.Update(context.Background(), &Contact{ID: 7, UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()

	mock.ExpectQuery(`DELETE FROM "contacts".*id = 7.*RETURNING`).
		WillReturnRows(janeRows(7, owner))

	deleted, err := repo.Delete(context.Background(), owner, 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane", deleted.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Count(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}
