package contact

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store with the same scoping rules as Repository
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	contacts map[int64]Contact
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, contacts: make(map[int64]Contact)}
}

func (s *memoryStore) owned(userID uuid.UUID, f Filter) []Contact {
	result := make([]Contact, 0)
	for _, c := range s.contacts {
		if c.UserID != userID {
			continue
		}
		if (f.FirstName != "" && c.FirstName != f.FirstName) ||
			(f.LastName != "" && c.LastName != f.LastName) ||
			(f.Email != "" && c.Email != f.Email) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func page(contacts []Contact, skip, limit int) []Contact {
	if skip >= len(contacts) {
		return []Contact{}
	}
	end := skip + limit
	if end > len(contacts) {
		end = len(contacts)
	}
	return contacts[skip:end]
}

func (s *memoryStore) List(_ context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error) {
	return s.Search(context.Background(), userID, Filter{}, skip, limit)
}

func (s *memoryStore) Search(_ context.Context, userID uuid.UUID, f Filter, skip, limit int) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return page(s.owned(userID, f), skip, limit), nil
}

func (s *memoryStore) ListAll(_ context.Context, userID uuid.UUID) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.owned(userID, Filter{}), nil
}

func (s *memoryStore) Get(_ context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *memoryStore) Create(_ context.Context, c *Contact) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	stored := *c
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()
	s.nextID++
	s.contacts[stored.ID] = stored
	return &stored, nil
}

func (s *memoryStore) Update(_ context.Context, c *Contact) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.contacts[c.ID]
	if !ok || existing.UserID != c.UserID {
		return nil, ErrNotFound
	}
	updated := *c
	updated.CreatedAt = existing.CreatedAt
	s.contacts[c.ID] = updated
	return &updated, nil
}

func (s *memoryStore) Delete(_ context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	delete(s.contacts, id)
	return &c, nil
}

func birthdayInput(first string, dob Date) Input {
	return Input{
		FirstName:   first,
		LastName:    "Doe",
		Email:       first + "@example.com",
		Phone:       "+420123456789",
		DateOfBirth: &dob,
	}
}

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name  string
		dob   Date
		today Date
		want  Date
	}{
		{"later this year", NewDate(1990, time.August, 10), NewDate(2024, time.June, 1), NewDate(2024, time.August, 10)},
		{"today", NewDate(1990, time.June, 1), NewDate(2024, time.June, 1), NewDate(2024, time.June, 1)},
		{"already passed", NewDate(1990, time.May, 31), NewDate(2024, time.June, 1), NewDate(2025, time.May, 31)},
		{"across new year", NewDate(1990, time.January, 2), NewDate(2024, time.December, 28), NewDate(2025, time.January, 2)},
		{"leap day in leap year", NewDate(2000, time.February, 29), NewDate(2024, time.February, 25), NewDate(2024, time.February, 29)},
		{"leap day in common year", NewDate(2000, time.February, 29), NewDate(2023, time.February, 25), NewDate(2023, time.March, 1)},
		{"leap day after march in year before leap year", NewDate(2000, time.February, 29), NewDate(2023, time.March, 2), NewDate(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextBirthday(tt.dob.Time, tt.today.Time)
			assert.Equal(t, tt.want.Time, got)
		})
	}
}

func TestService_UpcomingBirthdays(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	for _, c := range []struct {
		user uuid.UUID
		in   Input
	}{
		{owner, birthdayInput("week", NewDate(1985, time.January, 4))},
		{owner, birthdayInput("today", NewDate(1990, time.December, 28))},
		{owner, birthdayInput("newyear", NewDate(1992, time.January, 1))},
		{owner, birthdayInput("eightdays", NewDate(1980, time.January, 5))},
		{owner, birthdayInput("yesterday", NewDate(1980, time.December, 27))},
		{stranger, birthdayInput("other", NewDate(1990, time.December, 29))},
	} {
		_, err := svc.Create(ctx, c.user, c.in)
		require.NoError(t, err)
	}

	// Late in the evening, after the day has started in UTC
	today := time.Date(2024, time.December, 28, 22, 30, 0, 0, time.UTC)

	got, err := svc.UpcomingBirthdays(ctx, owner, today)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.FirstName)
	}
	assert.Equal(t, []string{"today", "newyear", "week"}, names)
}

func TestService_UpcomingBirthdays_StoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")

	_, err := NewService(store).UpcomingBirthdays(context.Background(), uuid.New(), time.Now())
	assert.Error(t, err)
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMemoryStore())
	long := string(make([]byte, 201))
	dob := NewDate(1990, time.March, 3)

	_, err := svc.Create(context.Background(), uuid.New(), Input{
		FirstName: "   ",
		LastName:  "ThisLastNameIsWayTooLongToFitIntoTheFiftyCharacterColumn",
		Email:     "not-an-email",
		Phone:     "123",
		Info:      &long,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := make(map[string]bool)
	for _, f := range validationErr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["first_name"])
	assert.True(t, fields["last_name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["date_of_birth"])
	assert.True(t, fields["info"])
	assert.False(t, fields["phone"])

	created, err := svc.Create(context.Background(), uuid.New(), Input{
		FirstName:   " Jane ",
		LastName:    "Doe",
		Email:       "Jane@Example.com",
		Phone:       "123",
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", created.FirstName)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Nil(t, created.Info)
}

func TestService_OwnershipScoping(t *testing.T) {
	svc := NewService(newMemoryStore())
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.Create(ctx, owner, birthdayInput("jane", NewDate(1990, time.March, 3)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, stranger, created.ID, birthdayInput("mallory", NewDate(1990, time.March, 3)))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", got.FirstName)
}
