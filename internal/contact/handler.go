package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// Pagination bounds for list endpoints
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Handler contains HTTP handlers for the contacts endpoints
// Every route expects the authenticated user in the request context
type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

// ValidationErrorResponse is returned when a contact body fails validation
type ValidationErrorResponse struct {
	httputil.ErrorResponse
	Fields []FieldError `json:"fields"`
}

// Routes mounts the contact endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Get("/birthdays", h.Birthdays)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List returns a page of the user's contacts
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        skip  query int false "Number of contacts to skip" default(0)
// @Param        limit query int false "Page size (max 100)" default(10)
// @Success      200 {array} Contact
// @Failure      400 {object} httputil.ErrorResponse "Invalid pagination"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	skip, limit, ok := pagination(w, r)
	if !ok {
		return
	}

	contacts, err := h.service.List(r.Context(), current.ID, skip, limit)
	if err != nil {
		h.respondServiceError(w, r, "list contacts", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Search filters the user's contacts by exact field values
// @Summary      Search contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        first_name query string false "First name"
// @Param        last_name  query string false "Last name"
// @Param        email      query string false "Email"
// @Param        skip  query int false "Number of contacts to skip" default(0)
// @Param        limit query int false "Page size (max 100)" default(10)
// @Success      200 {array} Contact
// @Failure      400 {object} httputil.ErrorResponse "Invalid pagination"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/contacts/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	skip, limit, ok := pagination(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := Filter{
		FirstName: query.Get("first_name"),
		LastName:  query.Get("last_name"),
		Email:     query.Get("email"),
	}

	contacts, err := h.service.Search(r.Context(), current.ID, filter, skip, limit)
	if err != nil {
		h.respondServiceError(w, r, "search contacts", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Birthdays lists contacts with a birthday in the next seven days
// @Summary      Upcoming birthdays
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/contacts/birthdays [get]
func (h *Handler) Birthdays(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), current.ID, h.now())
	if err != nil {
		h.respondServiceError(w, r, "upcoming birthdays", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Get returns one contact
// @Summary      Get contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse "Invalid id"
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /api/contacts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), current.ID, id)
	if err != nil {
		h.respondServiceError(w, r, "get contact", err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Create stores a new contact
// @Summary      Create contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Contact"
// @Success      201 {object} Contact
// @Failure      400 {object} ValidationErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.service.Create(r.Context(), current.ID, in)
	if err != nil {
		h.respondServiceError(w, r, "create contact", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("contact created", "contact_id", c.ID)

	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Update replaces a contact
// @Summary      Update contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Param        request body Input true "Contact"
// @Success      200 {object} Contact
// @Failure      400 {object} ValidationErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /api/contacts/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := contactID(w, r)
	if !ok {
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.service.Update(r.Context(), current.ID, id, in)
	if err != nil {
		h.respondServiceError(w, r, "update contact", err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Delete removes a contact and returns it
// @Summary      Delete contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Success      200 {object} Contact
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /api/contacts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Delete(r.Context(), current.ID, id)
	if err != nil {
		h.respondServiceError(w, r, "delete contact", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("contact deleted", "contact_id", c.ID)

	httputil.RespondJSON(w, c, http.StatusOK)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	current, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return nil, false
	}
	return current, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "Contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
	case errors.As(err, &validationErr):
		httputil.RespondJSON(w, ValidationErrorResponse{
			ErrorResponse: httputil.ErrorResponse{Error: "validation failed", Code: httputil.CodeValidationFailed},
			Fields:        validationErr.Fields,
		}, http.StatusBadRequest)
	default:
		logging.GetLoggerFromContext(r.Context()).LogError(action+" failed", err)
		httputil.RespondInternalError(w)
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid contact body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return Input{}, false
	}
	return in, true
}

func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondErrorWithCode(w, "invalid contact id", httputil.CodeInvalidID, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// pagination reads skip and limit; limit defaults to DefaultLimit and is capped at MaxLimit
func pagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	skip, limit := 0, DefaultLimit
	query := r.URL.Query()

	if v := query.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.RespondErrorWithCode(w, "skip must be a non-negative integer", httputil.CodeValidationFailed, http.StatusBadRequest)
			return 0, 0, false
		}
		skip = n
	}

	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			httputil.RespondErrorWithCode(w, "limit must be between 1 and 100", httputil.CodeValidationFailed, http.StatusBadRequest)
			return 0, 0, false
		}
		limit = n
	}

	return skip, limit, true
}
