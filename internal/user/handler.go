package user

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/storage"
)

// MaxAvatarSize bounds the uploaded avatar file
const MaxAvatarSize = 5 << 20

// Store is the persistence the profile handlers need
type Store interface {
	// GetProfile returns the user without credentials
	GetProfile(ctx context.Context, username string) (*User, error)
	UpdateAvatar(ctx context.Context, email, url string) error
}

// Handler contains HTTP handlers for the current user's profile
type Handler struct {
	store    Store
	uploader storage.Uploader
}

func NewHandler(store Store, uploader storage.Uploader) *Handler {
	return &Handler{
		store:    store,
		uploader: uploader,
	}
}

// Me returns the authenticated user
// @Summary      Current user
// @Description  Return the profile of the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	profile, err := h.store.GetProfile(r.Context(), current.Username)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).LogError("failed to load profile", err)
		httputil.RespondInternalError(w)
		return
	}

	httputil.RespondJSON(w, profile.ToResponse(), http.StatusOK)
}

// UpdateAvatar uploads a new avatar image for the authenticated user
// @Summary      Update avatar
// @Description  Upload an image and store it as the user's avatar
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Avatar image"
// @Success      200 {object} Response
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid file"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      413 {object} httputil.ErrorResponse "File too large"
// @Failure      502 {object} httputil.ErrorResponse "Upload failed"
// @Router       /api/users/avatar [patch]
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarSize+1<<20)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondErrorWithCode(w, "file too large", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		logger.Warn("avatar upload without file", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file is required", httputil.CodeFileRequired, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxAvatarSize+1))
	if err != nil {
		logger.Warn("failed to read avatar upload", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid file", httputil.CodeFileRequired, http.StatusBadRequest)
		return
	}
	if len(data) > MaxAvatarSize {
		httputil.RespondErrorWithCode(w, "file too large", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		httputil.RespondErrorWithCode(w, "file must be an image", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	url, err := h.uploader.Upload(r.Context(), storage.AvatarKey(current.Username), contentType, bytes.NewReader(data))
	if err != nil {
		logger.LogError("avatar upload failed", err)
		httputil.RespondErrorWithCode(w, "failed to upload avatar", httputil.CodeUploadFailed, http.StatusBadGateway)
		return
	}

	if err := h.store.UpdateAvatar(r.Context(), current.Email, url); err != nil {
		logger.LogError("failed to store avatar url", err)
		httputil.RespondInternalError(w)
		return
	}

	logger.Info("avatar updated", "username", current.Username)

	updated := *current
	updated.Avatar = &url
	httputil.RespondJSON(w, updated.ToResponse(), http.StatusOK)
}
