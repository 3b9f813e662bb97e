package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,50}$`)

// UserStore is the persistence the auth flows need
// Lookups return user.ErrNotFound when nothing matches
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (*user.User, error)
	SetConfirmed(ctx context.Context, email string) error
	SetPasswordHash(ctx context.Context, email, passwordHash string) error
	// RehashPassword swaps the digest of the same password without revoking tokens
	RehashPassword(ctx context.Context, email, passwordHash string) error
}

// Notifier delivers the emails carrying confirmation and reset tokens
type Notifier interface {
	SendConfirmation(ctx context.Context, email, username, token string) error
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// TokenTTLs are the lifetimes of the three token kinds
type TokenTTLs struct {
	Access            time.Duration
	EmailConfirmation time.Duration
	PasswordReset     time.Duration
}

// DefaultTokenTTLs: 15 minutes, 24 hours, 1 hour
var DefaultTokenTTLs = TokenTTLs{
	Access:            15 * time.Minute,
	EmailConfirmation: 24 * time.Hour,
	PasswordReset:     time.Hour,
}

// ConfirmationStatus is the outcome of the email confirmation flows
type ConfirmationStatus string

const (
	StatusConfirmed        ConfirmationStatus = "confirmed"
	StatusAlreadyConfirmed ConfirmationStatus = "already_confirmed"
	StatusSent             ConfirmationStatus = "sent"
)

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccessToken is returned by a successful login
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	users      UserStore
	hasher     PasswordHasher
	tokens     TokenCodec
	notifier   Notifier
	dispatcher *Dispatcher
	logger     *logging.Logger
	ttl        TokenTTLs
	// verified against on unknown usernames so both login failures cost the same
	dummyHash string
}

func NewService(
	users UserStore,
	hasher PasswordHasher,
	tokens TokenCodec,
	notifier Notifier,
	dispatcher *Dispatcher,
	logger *logging.Logger,
	ttl TokenTTLs,
) *Service {
	dummyHash, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}

	return &Service{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger,
		ttl:        ttl,
		dummyHash:  dummyHash,
	}
}

// Register creates an unconfirmed account and mails a confirmation link
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if err := validateRegistration(username, email, in.Password); err != nil {
		return nil, err
	}

	if exists, err := s.exists(ctx, email, username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").With("operation", "register").Wrap(err)
	}

	newUser, err := s.users.Create(ctx, &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.RoleUser,
	})
	if err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrDuplicateUsername) {
			return nil, ErrUserExists
		}
		return nil, oops.Code("AUTH_CREATE_USER_FAILED").With("operation", "register").Wrap(err)
	}

	s.sendConfirmation(newUser)

	return newUser, nil
}

// Login checks the credentials and issues an access token
// Unknown usernames and wrong passwords fail identically
func (s *Service) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	existingUser, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("operation", "login").Wrap(err)
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	if s.hasher.NeedsUpgrade(existingUser.PasswordHash) {
		s.upgradeHash(ctx, existingUser, password)
	}

	accessToken, err := s.tokens.Issue(existingUser.Username, KindAccess, existingUser.TokenVersion, s.ttl.Access)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("operation", "login").Wrap(err)
	}

	return &AccessToken{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.ttl.Access.Seconds()),
	}, nil
}

// upgradeHash replaces a legacy or weak digest; failures only get logged
func (s *Service) upgradeHash(ctx context.Context, u *user.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.LogError("failed to rehash password", err, "username", u.Username)
		return
	}
	if err := s.users.RehashPassword(ctx, u.Email, newHash); err != nil {
		s.logger.LogError("failed to store upgraded password hash", err, "username", u.Username)
		return
	}
	u.PasswordHash = newHash
	s.logger.Info("upgraded password hash", "username", u.Username)
}

// ConfirmEmail marks the token's subject as confirmed
// Confirming twice is not an error
func (s *Service) ConfirmEmail(ctx context.Context, token string) (ConfirmationStatus, error) {
	claims, err := s.tokens.Verify(token, KindEmailConfirmation)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	existingUser, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrVerificationFailed
		}
		return "", oops.Code("AUTH_LOOKUP_FAILED").With("operation", "confirm_email").Wrap(err)
	}

	if existingUser.Confirmed {
		return StatusAlreadyConfirmed, nil
	}

	if err := s.users.SetConfirmed(ctx, existingUser.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrVerificationFailed
		}
		return "", oops.Code("AUTH_CONFIRM_FAILED").With("operation", "confirm_email").Wrap(err)
	}

	return StatusConfirmed, nil
}

// RequestEmailConfirmation mails a new confirmation link
// Unknown addresses get the same answer as unconfirmed ones
func (s *Service) RequestEmailConfirmation(ctx context.Context, email string) (ConfirmationStatus, error) {
	existingUser, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return StatusSent, nil
		}
		return "", oops.Code("AUTH_LOOKUP_FAILED").With("operation", "request_email").Wrap(err)
	}

	if existingUser.Confirmed {
		return StatusAlreadyConfirmed, nil
	}

	s.sendConfirmation(existingUser)

	return StatusSent, nil
}

// RequestPasswordReset mails a reset link when the address is registered
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.LogError("failed to get user for password reset", err)
		}
		return nil
	}

	token, err := s.tokens.Issue(existingUser.Email, KindPasswordReset, existingUser.TokenVersion, s.ttl.PasswordReset)
	if err != nil {
		s.logger.LogError("failed to issue password reset token", err)
		return nil
	}

	recipient, username := existingUser.Email, existingUser.Username
	s.dispatcher.Go("password_reset_email", func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, recipient, username, token)
	})

	return nil
}

// ResetPassword stores a new password for the token's subject
// The token carries the token version it was issued under; storing the
// new hash bumps the version, so the token works only once
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	claims, err := s.tokens.Verify(token, KindPasswordReset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResetToken, err)
	}

	existingUser, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNoLongerExists
		}
		return oops.Code("AUTH_LOOKUP_FAILED").With("operation", "reset_password").Wrap(err)
	}

	if claims.Version != existingUser.TokenVersion {
		return ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").With("operation", "reset_password").Wrap(err)
	}

	if err := s.users.SetPasswordHash(ctx, existingUser.Email, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNoLongerExists
		}
		return oops.Code("AUTH_UPDATE_PASSWORD_FAILED").With("operation", "reset_password").Wrap(err)
	}

	return nil
}

// Authenticate resolves an access token to the current user
// Tokens issued before the last password change are rejected
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.Verify(accessToken, KindAccess)
	if err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNoLongerExists
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("operation", "authenticate").Wrap(err)
	}

	if claims.Version != existingUser.TokenVersion {
		return nil, ErrInvalidToken
	}

	return existingUser, nil
}

// AccessTokenTTL is the lifetime of tokens returned by Login
func (s *Service) AccessTokenTTL() time.Duration {
	return s.ttl.Access
}

func (s *Service) exists(ctx context.Context, email, username string) (bool, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return false, oops.Code("AUTH_LOOKUP_FAILED").With("operation", "register").Wrap(err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return false, oops.Code("AUTH_LOOKUP_FAILED").With("operation", "register").Wrap(err)
	}

	return false, nil
}

// sendConfirmation issues a confirmation token and mails it in the background
// Confirmation tokens are not bound to the token version
func (s *Service) sendConfirmation(u *user.User) {
	token, err := s.tokens.Issue(u.Email, KindEmailConfirmation, 0, s.ttl.EmailConfirmation)
	if err != nil {
		s.logger.LogError("failed to issue confirmation token", err, "username", u.Username)
		return
	}

	recipient, username := u.Email, u.Username
	s.dispatcher.Go("confirmation_email", func(ctx context.Context) error {
		return s.notifier.SendConfirmation(ctx, recipient, username, token)
	})
}

func validateRegistration(username, email, password string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
