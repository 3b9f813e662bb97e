package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const jwtIssuer = "go-contacts-api"

type jwtClaims struct {
	Kind    TokenKind `json:"kind"`
	Version int64     `json:"ver"`
	jwt.RegisteredClaims
}

// JWTCodec signs tokens with an HMAC secret
type JWTCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewJWTCodec accepts HS256, HS384 or HS512; an empty algorithm means HS256
func NewJWTCodec(secret []byte, algorithm string, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 bytes, got %d", len(secret))
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}

	o := applyCodecOptions(opts)
	return &JWTCodec{
		secret: secret,
		method: method,
		now:    o.now,
	}, nil
}

func (c *JWTCodec) Issue(subject string, kind TokenKind, version int64, ttl time.Duration) (string, error) {
	if err := validateIssue(subject, kind, ttl); err != nil {
		return "", err
	}

	now := c.now()
	claims := jwtClaims{
		Kind:    kind,
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    jwtIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Verify(token string, expected TokenKind) (*TokenClaims, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.Kind != expected || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   claims.Subject,
		Kind:      claims.Kind,
		Version:   claims.Version,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
