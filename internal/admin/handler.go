package admin

import (
	"context"
	"net/http"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// Counter reports the number of stored rows of one kind
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Handler serves the admin-only endpoints
type Handler struct {
	users    Counter
	contacts Counter
}

func NewHandler(users, contacts Counter) *Handler {
	return &Handler{
		users:    users,
		contacts: contacts,
	}
}

// DashboardResponse is the body of the admin dashboard
type DashboardResponse struct {
	Message  string `json:"message"`
	Users    int    `json:"users"`
	Contacts int    `json:"contacts"`
}

// Dashboard returns basic usage numbers
// @Summary      Admin dashboard
// @Description  Requires the admin role
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DashboardResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Router       /api/admin/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.users.Count(r.Context())
	if err != nil {
		logger.LogError("failed to count users", err)
		httputil.RespondInternalError(w)
		return
	}

	contacts, err := h.contacts.Count(r.Context())
	if err != nil {
		logger.LogError("failed to count contacts", err)
		httputil.RespondInternalError(w)
		return
	}

	httputil.RespondJSON(w, DashboardResponse{
		Message:  "This is secret dashboard",
		Users:    users,
		Contacts: contacts,
	}, http.StatusOK)
}
