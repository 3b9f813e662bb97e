package auth

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameInvalid    = errors.New("username must be 3-50 letters, digits, dots, dashes or underscores")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")

	ErrInvalidCredentials = errors.New("wrong credentials")
	ErrEmailNotConfirmed  = errors.New("email is not confirmed")

	ErrVerificationFailed = errors.New("verification error")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrUserNoLongerExists = errors.New("user is no longer exists")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrInvalidToken)
)
