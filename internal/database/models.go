package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model of the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Confirmed    bool      `bun:"confirmed,notnull"`
	Avatar       *string   `bun:"avatar"`
	Role         string    `bun:"role,notnull"`
	TokenVersion int64     `bun:"token_version,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Contact is the bun model of the contacts table
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	FirstName   string    `bun:"first_name,notnull"`
	LastName    string    `bun:"last_name,notnull"`
	Email       string    `bun:"email,notnull"`
	Phone       string    `bun:"phone,notnull"`
	DateOfBirth time.Time `bun:"date_of_birth,type:date,notnull"`
	Info        *string   `bun:"info"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UserID      uuid.UUID `bun:"user_id,type:uuid,notnull"`
}
