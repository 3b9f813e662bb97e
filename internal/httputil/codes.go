package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeNotFound           = "NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"

	// Registration
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeUsernameRequired   = "USERNAME_REQUIRED"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"

	// Login and access tokens
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "FORBIDDEN"

	// Email confirmation and password reset
	CodeVerificationFailed = "VERIFICATION_FAILED"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeUserNoLongerExists = "USER_NO_LONGER_EXISTS"

	// Contacts and avatars
	CodeContactNotFound = "CONTACT_NOT_FOUND"
	CodeInvalidID       = "INVALID_ID"
	CodeFileRequired    = "FILE_REQUIRED"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeUploadFailed    = "UPLOAD_FAILED"
)
