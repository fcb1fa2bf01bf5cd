package timeentry

import (
	"context"
	"net/http"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
)

type ServiceAPI interface {
	ClockIn(ctx context.Context, caller *internal.User, dto ClockInDTO) (*TimeEntryResponse, error)
	ClockOut(ctx context.Context, caller *internal.User, dto ClockOutDTO) (*ClockOutResponse, error)
	Current(ctx context.Context, caller *internal.User) (*TimeEntryResponse, error)
	List(ctx context.Context, caller *internal.User, filter ListFilter) ([]TimeEntryResponse, error)
	Get(ctx context.Context, caller *internal.User, id int64) (*TimeEntryResponse, error)
	Create(ctx context.Context, caller *internal.User, dto CreateTimeEntryDTO) (*TimeEntryResponse, error)
	Update(ctx context.Context, caller *internal.User, id int64, dto UpdateTimeEntryDTO) (*TimeEntryResponse, error)
	Delete(ctx context.Context, caller *internal.User, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ClockIn handles POST /clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto ClockInDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.ClockIn(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entry)
}

// ClockOut handles POST /clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto ClockOutDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.ClockOut(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Current handles GET /time-entries/current
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.Service.Current(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

// List handles GET /time-entries
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	filter := ListFilter{
		Limit:  transport.QueryInt(r, "limit", DefaultListLimit, 1, MaxListLimit),
		Offset: transport.QueryInt(r, "offset", 0, 0, 1<<30),
	}
	entries, err := h.Service.List(r.Context(), caller, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}

// Create handles POST /time-entries
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateTimeEntryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entry)
}

// Get handles GET /time-entries/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

// Update handles PUT /time-entries/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateTimeEntryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.Update(r.Context(), caller, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /time-entries/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), caller, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
