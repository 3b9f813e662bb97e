package contact

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of dates of birth
const DateLayout = "2006-01-02"

// Field limits, matching the column sizes
const (
	MaxNameLength  = 50
	MaxEmailLength = 100
	MaxPhoneLength = 20
	MaxInfoLength  = 200
)

// Date is a calendar day encoded as "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate returns midnight UTC of the given day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("date must use the YYYY-MM-DD format: %w", err)
	}
	d.Time = t
	return nil
}

// Contact is an address-book entry owned by one user
type Contact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth Date      `json:"date_of_birth"`
	Info        *string   `json:"info"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uuid.UUID `json:"-"`
}

// Input is the writable part of a contact
type Input struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	DateOfBirth *Date   `json:"date_of_birth"`
	Info        *string `json:"info"`
}

// Filter narrows Search; empty fields match everything
type Filter struct {
	FirstName string
	LastName  string
	Email     string
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of an Input
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid contact: " + strings.Join(parts, "; ")
}

// Normalize trims surrounding whitespace from every text field
func (in *Input) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Info != nil {
		info := strings.TrimSpace(*in.Info)
		if info == "" {
			in.Info = nil
		} else {
			in.Info = &info
		}
	}
}

// Validate checks required fields and length limits
func (in *Input) Validate() error {
	var fields []FieldError
	check := func(field, value string, max int) {
		switch {
		case value == "":
			fields = append(fields, FieldError{Field: field, Message: "is required"})
		case len(value) > max:
			fields = append(fields, FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)})
		}
	}

	check("first_name", in.FirstName, MaxNameLength)
	check("last_name", in.LastName, MaxNameLength)
	check("email", in.Email, MaxEmailLength)
	check("phone", in.Phone, MaxPhoneLength)

	if in.Email != "" && !strings.Contains(in.Email, "@") {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if in.DateOfBirth == nil || in.DateOfBirth.IsZero() {
		fields = append(fields, FieldError{Field: "date_of_birth", Message: "is required"})
	}
	if in.Info != nil && len(*in.Info) > MaxInfoLength {
		fields = append(fields, FieldError{Field: "info", Message: fmt.Sprintf("must be at most %d characters", MaxInfoLength)})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// apply copies the input onto c
func (in *Input) apply(c *Contact) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	if in.DateOfBirth != nil {
		c.DateOfBirth = *in.DateOfBirth
	}
	c.Info = in.Info
}
