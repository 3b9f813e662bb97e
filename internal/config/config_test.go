package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AUTH_TOKEN_FORMAT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ACCESS_TOKEN_DURATION", "")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("SMTP_USER", "mailer@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, TokenFormatJWT, cfg.Auth.TokenFormat)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "mailer@example.com", cfg.Email.FromAddress)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_TOKEN_FORMAT", "PASETO")
	t.Setenv("PASETO_KEY", testSecret)
	t.Setenv("ACCESS_TOKEN_DURATION", "60")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_BASE_URL", "https://api.example.com/")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TokenFormatPaseto, cfg.Auth.TokenFormat)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestAuthConfig_Validate(t *testing.T) {
	valid := AuthConfig{
		TokenFormat:     TokenFormatJWT,
		JWTSecret:       []byte(testSecret),
		JWTAlgorithm:    "HS256",
		Argon2Time:      1,
		Argon2MemoryKiB: 1024,
		Argon2Threads:   1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *AuthConfig)
	}{
		{"short jwt secret", func(c *AuthConfig) { c.JWTSecret = []byte("short") }},
		{"unknown algorithm", func(c *AuthConfig) { c.JWTAlgorithm = "RS256" }},
		{"paseto key length", func(c *AuthConfig) {
			c.TokenFormat = TokenFormatPaseto
			c.PasetoKey = []byte("too-short")
		}},
		{"unknown format", func(c *AuthConfig) { c.TokenFormat = "saml" }},
		{"zero argon2 threads", func(c *AuthConfig) { c.Argon2Threads = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "contacts", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=contacts sslmode=require", c.ConnectionString())

	c.ChannelBinding = "require"
	assert.Contains(t, c.ConnectionString(), " channel_binding=require")
}
