package contact

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BirthdayWindowDays is how far ahead UpcomingBirthdays looks, today included
const BirthdayWindowDays = 7

// Store is the persistence the contact service needs
type Store interface {
	List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error)
	Search(ctx context.Context, userID uuid.UUID, f Filter, skip, limit int) ([]Contact, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]Contact, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error)
	Create(ctx context.Context, c *Contact) (*Contact, error)
	Update(ctx context.Context, c *Contact) (*Contact, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error)
}

// Service handles contact business logic
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error) {
	return s.store.List(ctx, userID, skip, limit)
}

func (s *Service) Search(ctx context.Context, userID uuid.UUID, f Filter, skip, limit int) ([]Contact, error) {
	return s.store.Search(ctx, userID, f, skip, limit)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	return s.store.Get(ctx, userID, id)
}

// Create validates the input and stores a new contact for the user
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Contact, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c := &Contact{UserID: userID}
	in.apply(c)
	return s.store.Create(ctx, c)
}

// Update replaces the writable fields of one of the user's contacts
func (s *Service) Update(ctx context.Context, userID uuid.UUID, id int64, in Input) (*Contact, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c := &Contact{ID: id, UserID: userID}
	in.apply(c)
	return s.store.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id int64) (*Contact, error) {
	return s.store.Delete(ctx, userID, id)
}

// UpcomingBirthdays returns the user's contacts whose next birthday is
// between today and BirthdayWindowDays days later, soonest first
func (s *Service) UpcomingBirthdays(ctx context.Context, userID uuid.UUID, today time.Time) ([]Contact, error) {
	all, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := truncateToDay(today)
	type upcoming struct {
		contact Contact
		days    int
	}
	var matches []upcoming
	for _, c := range all {
		days := daysBetween(day, nextBirthday(c.DateOfBirth.Time, day))
		if days <= BirthdayWindowDays {
			matches = append(matches, upcoming{contact: c, days: days})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].days < matches[j].days
	})

	result := make([]Contact, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.contact)
	}
	return result, nil
}

// nextBirthday returns the first anniversary of dob on or after today
// Feb 29 birthdays fall on Mar 1 in common years
func nextBirthday(dob, today time.Time) time.Time {
	candidate := birthdayIn(dob, today.Year())
	if candidate.Before(today) {
		candidate = birthdayIn(dob, today.Year()+1)
	}
	return candidate
}

func birthdayIn(dob time.Time, year int) time.Time {
	if dob.Month() == time.February && dob.Day() == 29 && !isLeap(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
