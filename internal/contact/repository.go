package contact

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

var ErrNotFound = errors.New("contact not found")

// Repository handles contact persistence
// Every query is scoped to the owning user
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of the user's contacts ordered by id
func (r *Repository) List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error) {
	return r.Search(ctx, userID, Filter{}, skip, limit)
}

// Search returns a page of the user's contacts matching every non-empty filter field exactly
func (r *Repository) Search(ctx context.Context, userID uuid.UUID, f Filter, skip, limit int) ([]Contact, error) {
	var rows []database.Contact
	q := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID)
	if f.FirstName != "" {
		q = q.Where("first_name = ?", f.FirstName)
	}
	if f.LastName != "" {
		q = q.Where("last_name = ?", f.LastName)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}

	err := q.Order("id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, oops.Code("CONTACT_QUERY_FAILED").With("operation", "search").Wrap(err)
	}

	return mapDBContacts(rows), nil
}

// ListAll returns every contact of the user
func (r *Repository) ListAll(ctx context.Context, userID uuid.UUID) ([]Contact, error) {
	var rows []database.Contact
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, oops.Code("CONTACT_QUERY_FAILED").With("operation", "list_all").Wrap(err)
	}

	return mapDBContacts(rows), nil
}

// Get retrieves one of the user's contacts
func (r *Repository) Get(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	row := new(database.Contact)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("CONTACT_QUERY_FAILED").With("operation", "get").With("id", id).Wrap(err)
	}

	return mapDBContact(row), nil
}

// Create inserts a contact and returns it with its generated id
func (r *Repository) Create(ctx context.Context, c *Contact) (*Contact, error) {
	row := mapContactToDB(c)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NewInsert().
		Model(row).
		ExcludeColumn("id").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, oops.Code("CONTACT_CREATE_FAILED").Wrap(err)
	}

	return mapDBContact(row), nil
}

// Update overwrites the writable fields of the contact
func (r *Repository) Update(ctx context.Context, c *Contact) (*Contact, error) {
	row := mapContactToDB(c)

	result, err := r.db.NewUpdate().
		Model(row).
		Column("first_name", "last_name", "email", "phone", "date_of_birth", "info").
		Where("id = ?", c.ID).
		Where("user_id = ?", c.UserID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("CONTACT_UPDATE_FAILED").With("id", c.ID).Wrap(err)
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBContact(row), nil
}

// Delete removes one of the user's contacts and returns it
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	row := new(database.Contact)

	result, err := r.db.NewDelete().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("CONTACT_DELETE_FAILED").With("id", id).Wrap(err)
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBContact(row), nil
}

// Count returns the number of contacts across all users
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Contact)(nil)).
		Count(ctx)
	if err != nil {
		return 0, oops.Code("CONTACT_QUERY_FAILED").With("operation", "count").Wrap(err)
	}
	return count, nil
}

func mapContactToDB(c *Contact) *database.Contact {
	return &database.Contact{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		DateOfBirth: c.DateOfBirth.Time,
		Info:        c.Info,
		CreatedAt:   c.CreatedAt,
		UserID:      c.UserID,
	}
}

func mapDBContact(row *database.Contact) *Contact {
	return &Contact{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		Phone:       row.Phone,
		DateOfBirth: NewDate(row.DateOfBirth.Year(), row.DateOfBirth.Month(), row.DateOfBirth.Day()),
		Info:        row.Info,
		CreatedAt:   row.CreatedAt,
		UserID:      row.UserID,
	}
}

func mapDBContacts(rows []database.Contact) []Contact {
	contacts := make([]Contact, 0, len(rows))
	for i := range rows {
		contacts = append(contacts, *mapDBContact(&rows[i]))
	}
	return contacts
}
