package auth

import (
	"fmt"
	"time"

	"github.com/redmonkez12/go-contacts-api/internal/config"
)

// TokenKind separates the purposes a token can be issued for
// A token only verifies against the kind it was issued with
type TokenKind string

const (
	KindAccess            TokenKind = "access"
	KindEmailConfirmation TokenKind = "email_confirmation"
	KindPasswordReset     TokenKind = "password_reset"
)

func (k TokenKind) valid() bool {
	switch k {
	case KindAccess, KindEmailConfirmation, KindPasswordReset:
		return true
	}
	return false
}

// TokenClaims are the verified contents of a token
type TokenClaims struct {
	Subject   string    `json:"sub"`
	Kind      TokenKind `json:"kind"`
	Version   int64     `json:"ver"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenCodec issues and verifies signed, time-limited tokens
// Implementations are stateless and safe for concurrent use
type TokenCodec interface {
	Issue(subject string, kind TokenKind, version int64, ttl time.Duration) (string, error)
	// Verify fails with ErrInvalidToken (or ErrExpiredToken) on any problem,
	// including a kind different from expected
	Verify(token string, expected TokenKind) (*TokenClaims, error)
}

// CodecOption configures a TokenCodec
type CodecOption func(*codecOptions)

type codecOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now as the codec's time source
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		o.now = now
	}
}

func applyCodecOptions(opts []CodecOption) codecOptions {
	o := codecOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validateIssue(subject string, kind TokenKind, ttl time.Duration) error {
	if subject == "" {
		return fmt.Errorf("token subject is required")
	}
	if !kind.valid() {
		return fmt.Errorf("unknown token kind %q", kind)
	}
	if ttl <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return nil
}

// NewTokenCodec builds the codec selected by the auth configuration
func NewTokenCodec(cfg config.AuthConfig, opts ...CodecOption) (TokenCodec, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		return NewPasetoCodec(cfg.PasetoKey, opts...)
	case config.TokenFormatJWT, "":
		return NewJWTCodec(cfg.JWTSecret, cfg.JWTAlgorithm, opts...)
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}
