package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/config"
)

var (
	testJWTSecret = []byte("0123456789abcdef0123456789abcdef")
	testPasetoKey = []byte("fedcba9876543210fedcba9876543210")
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// codecFactories lets every codec behaviour run against both formats
func codecFactories(t *testing.T) map[string]func(clock *fakeClock) TokenCodec {
	t.Helper()
	return map[string]func(clock *fakeClock) TokenCodec{
		"jwt": func(clock *fakeClock) TokenCodec {
			codec, err := NewJWTCodec(testJWTSecret, "HS256", WithClock(clock.Now))
			require.NoError(t, err)
			return codec
		},
		"paseto": func(clock *fakeClock) TokenCodec {
			codec, err := NewPasetoCodec(testPasetoKey, WithClock(clock.Now))
			require.NoError(t, err)
			return codec
		},
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	for name, factory := range codecFactories(t) {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			codec := factory(clock)

			token, err := codec.Issue("alice", KindAccess, 3, 15*time.Minute)
			require.NoError(t, err)

			claims, err := codec.Verify(token, KindAccess)
			require.NoError(t, err)

			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, KindAccess, claims.Kind)
			assert.Equal(t, int64(3), claims.Version)
			assert.WithinDuration(t, clock.now, claims.IssuedAt, time.Second)
			assert.WithinDuration(t, clock.now.Add(15*time.Minute), claims.ExpiresAt, time.Second)
		})
	}
}

func TestTokenCodec_KindMismatch(t *testing.T) {
	for name, factory := range codecFactories(t) {
		t.Run(name, func(t *testing.T) {
			codec := factory(newFakeClock())

			token, err := codec.Issue("alice@x.com", KindEmailConfirmation, 0, time.Hour)
			require.NoError(t, err)

			_, err = codec.Verify(token, KindAccess)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = codec.Verify(token, KindPasswordReset)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	for name, factory := range codecFactories(t) {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			codec := factory(clock)

			token, err := codec.Issue("alice", KindAccess, 0, time.Minute)
			require.NoError(t, err)

			clock.Advance(30 * time.Second)
			_, err = codec.Verify(token, KindAccess)
			require.NoError(t, err)

			clock.Advance(time.Minute)
			_, err = codec.Verify(token, KindAccess)
			assert.ErrorIs(t, err, ErrExpiredToken)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenCodec_Tampered(t *testing.T) {
	for name, factory := range codecFactories(t) {
		t.Run(name, func(t *testing.T) {
			codec := factory(newFakeClock())

			token, err := codec.Issue("alice", KindAccess, 0, time.Minute)
			require.NoError(t, err)

			for _, bad := range []string{"", "garbage", token + "x", token[:len(token)-4]} {
				_, err = codec.Verify(bad, KindAccess)
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.NotErrorIs(t, err, ErrExpiredToken)
			}
		})
	}
}

func TestTokenCodec_WrongKey(t *testing.T) {
	clock := newFakeClock()

	jwtCodec, err := NewJWTCodec(testJWTSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)
	otherJWT, err := NewJWTCodec([]byte("another-secret-another-secret-xx"), "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	token, err := jwtCodec.Issue("alice", KindAccess, 0, time.Minute)
	require.NoError(t, err)
	_, err = otherJWT.Verify(token, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	pasetoCodec, err := NewPasetoCodec(testPasetoKey, WithClock(clock.Now))
	require.NoError(t, err)
	otherPaseto, err := NewPasetoCodec([]byte("another-key-another-key-another!"), WithClock(clock.Now))
	require.NoError(t, err)

	token, err = pasetoCodec.Issue("alice", KindAccess, 0, time.Minute)
	require.NoError(t, err)
	_, err = otherPaseto.Verify(token, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_IssueValidation(t *testing.T) {
	for name, factory := range codecFactories(t) {
		t.Run(name, func(t *testing.T) {
			codec := factory(newFakeClock())

			_, err := codec.Issue("", KindAccess, 0, time.Minute)
			assert.Error(t, err)

			_, err = codec.Issue("alice", TokenKind("refresh"), 0, time.Minute)
			assert.Error(t, err)

			_, err = codec.Issue("alice", KindAccess, 0, 0)
			assert.Error(t, err)
		})
	}
}

func TestJWTCodec_RejectsOtherAlgorithm(t *testing.T) {
	clock := newFakeClock()

	hs512, err := NewJWTCodec(testJWTSecret, "HS512", WithClock(clock.Now))
	require.NoError(t, err)
	hs256, err := NewJWTCodec(testJWTSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	token, err := hs512.Issue("alice", KindAccess, 0, time.Minute)
	require.NoError(t, err)

	_, err = hs256.Verify(token, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTCodec_Validation(t *testing.T) {
	_, err := NewJWTCodec([]byte("short"), "HS256")
	assert.Error(t, err)

	_, err = NewJWTCodec(testJWTSecret, "RS256")
	assert.Error(t, err)

	_, err = NewPasetoCodec([]byte("short"))
	assert.Error(t, err)
}

func TestNewTokenCodec(t *testing.T) {
	jwtCodec, err := NewTokenCodec(config.AuthConfig{
		TokenFormat:  config.TokenFormatJWT,
		JWTSecret:    testJWTSecret,
		JWTAlgorithm: "HS384",
	})
	require.NoError(t, err)
	assert.IsType(t, &JWTCodec{}, jwtCodec)

	pasetoCodec, err := NewTokenCodec(config.AuthConfig{
		TokenFormat: config.TokenFormatPaseto,
		PasetoKey:   testPasetoKey,
	})
	require.NoError(t, err)
	assert.IsType(t, &PasetoCodec{}, pasetoCodec)

	_, err = NewTokenCodec(config.AuthConfig{TokenFormat: "macaroon"})
	assert.Error(t, err)
}
