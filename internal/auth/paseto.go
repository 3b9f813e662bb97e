package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoCodec handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
	now          func() time.Time
}

func NewPasetoCodec(symmetricKey []byte, opts ...CodecOption) (*PasetoCodec, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	o := applyCodecOptions(opts)
	return &PasetoCodec{
		symmetricKey: key,
		now:          o.now,
	}, nil
}

func (c *PasetoCodec) Issue(subject string, kind TokenKind, version int64, ttl time.Duration) (string, error) {
	if err := validateIssue(subject, kind, ttl); err != nil {
		return "", err
	}

	now := c.now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(ttl))
	token.SetSubject(subject)
	token.SetString("kind", string(kind))
	if err := token.Set("ver", version); err != nil {
		return "", fmt.Errorf("failed to set token version: %w", err)
	}

	return token.V4Encrypt(c.symmetricKey, nil), nil
}

// Verify decrypts the token and checks expiry against the codec clock
func (c *PasetoCodec) Verify(tokenStr string, expected TokenKind) (*TokenClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !c.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	kind, err := token.GetString("kind")
	if err != nil || TokenKind(kind) != expected {
		return nil, ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	var version int64
	if err := token.Get("ver", &version); err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   subject,
		Kind:      TokenKind(kind),
		Version:   version,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
