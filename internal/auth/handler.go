package auth

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/templates"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service   *Service
	resetForm *template.Template
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		resetForm: template.Must(template.ParseFS(templates.PagesFS, "pages/reset_password_form.html")),
	}
}

// EmailRequest carries the address for the confirmation and reset requests
type EmailRequest struct {
	Email string `json:"email"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account. A confirmation email will be sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterInput true "Registration data"
// @Success      201 {object} user.Response
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "User already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			logger.Warn("registration failed: user already exists")
			httputil.RespondErrorWithCode(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusConflict)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.LogError("registration failed: internal error", err)
		httputil.RespondInternalError(w)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, newUser.ToResponse(), http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with username and password (form encoded) and receive an access token
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username formData string true "Username"
// @Param        password formData string true "Password"
// @Success      200 {object} AccessToken
// @Failure      401 {object} httputil.ErrorResponse "Wrong credentials or email not confirmed"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	username, password, err := loginCredentials(r)
	if err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": username})

	token, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: wrong credentials")
			httputil.RespondErrorWithCode(w, "Wrong credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotConfirmed) {
			logger.Warn("login failed: email not confirmed")
			httputil.RespondErrorWithCode(w, "Email is not confirmed", httputil.CodeEmailNotConfirmed, http.StatusUnauthorized)
			return
		}
		logger.LogError("login failed: internal error", err)
		httputil.RespondInternalError(w)
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, token, http.StatusOK)
}

// ConfirmEmail handles the link sent in the confirmation email
// @Summary      Confirm email address
// @Description  Confirm a user's email address using the token sent via email
// @Tags         auth
// @Produce      json
// @Param        token path string true "Confirmation token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Verification error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/confirmed_email/{token} [get]
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	status, err := h.service.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			logger.Warn("email confirmation failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Verification error", httputil.CodeVerificationFailed, http.StatusBadRequest)
			return
		}
		logger.LogError("email confirmation failed: internal error", err)
		httputil.RespondInternalError(w)
		return
	}

	if status == StatusAlreadyConfirmed {
		httputil.RespondMessage(w, "Email already confirmed", http.StatusOK)
		return
	}

	logger.Info("email confirmed successfully")
	httputil.RespondMessage(w, "Email confirmed successfully", http.StatusOK)
}

// RequestEmail resends the confirmation email
// @Summary      Request confirmation email
// @Description  Send a new confirmation link. Unknown addresses get the same answer.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Router       /api/auth/request_email [post]
func (h *Handler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request email body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	status, err := h.service.RequestEmailConfirmation(r.Context(), req.Email)
	if err != nil {
		logger.LogError("request email failed: internal error", err)
		httputil.RespondInternalError(w)
		return
	}

	if status == StatusAlreadyConfirmed {
		httputil.RespondMessage(w, "Email already confirmed", http.StatusOK)
		return
	}

	httputil.RespondMessage(w, "Check your email for confirmation.", http.StatusOK)
}

// RequestResetPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link to the user's email. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/request_reset_password [post]
func (h *Handler) RequestResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Process request (always returns nil for security)
	_ = h.service.RequestPasswordReset(r.Context(), req.Email)

	httputil.RespondMessage(w, "Check your email for a password reset link.", http.StatusOK)
}

// ResetPasswordForm renders the page the reset email links to
// @Summary      Password reset form
// @Description  HTML form that posts the new password back to the same URL
// @Tags         auth
// @Produce      html
// @Param        token path string true "Reset token"
// @Success      200 {string} string "HTML page"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/password_reset/{token} [get]
func (h *Handler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// The form posts to the path it was served from
	data := struct{ Action string }{Action: r.URL.Path}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; form-action 'self'")
	if err := h.resetForm.Execute(w, data); err != nil {
		logger.Error("failed to render reset password form", "error", err)
	}
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Store a new password using a valid reset token
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        token path string true "Reset token"
// @Param        new_password formData string true "New password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing password, invalid token or unknown user"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/password_reset/{token} [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid reset password form", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), r.PostForm.Get("new_password"))
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, "No password provided", httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetToken):
			logger.Warn("password reset failed: invalid token", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Invalid or expired token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
		case errors.Is(err, ErrUserNoLongerExists):
			logger.Warn("password reset failed: user no longer exists")
			httputil.RespondErrorWithCode(w, "User is no longer exists", httputil.CodeUserNoLongerExists, http.StatusBadRequest)
		default:
			logger.LogError("password reset failed: internal error", err)
			httputil.RespondInternalError(w)
		}
		return
	}

	logger.Info("password reset successfully")

	httputil.RespondMessage(w, "Password updated successfully", http.StatusOK)
}

// loginCredentials reads username and password from a form body,
// or from a JSON body when the request declares one
func loginCredentials(r *http.Request) (string, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", err
		}
		return req.Username, req.Password, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostForm.Get("username"), r.PostForm.Get("password"), nil
}

func validationCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameInvalid):
		return httputil.CodeUsernameRequired, true
	case errors.Is(err, ErrEmailRequired):
		return httputil.CodeEmailRequired, true
	case errors.Is(err, ErrInvalidEmailFormat):
		return httputil.CodeInvalidEmailFormat, true
	case errors.Is(err, ErrPasswordRequired):
		return httputil.CodePasswordRequired, true
	case errors.Is(err, ErrPasswordTooShort):
		return httputil.CodePasswordTooShort, true
	}
	return "", false
}
